// Package ident generates and validates the string identities used by the
// uuid-keyed drivers (ddbstore, memstore).
package ident

import "github.com/google/uuid"

// New returns a fresh identity string.
func New() string {
	return uuid.NewString()
}

// Parse validates the string form of an identity and returns its canonical
// form.
func Parse(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
