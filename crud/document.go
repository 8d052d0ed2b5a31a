package crud

import (
	"time"

	json "github.com/goccy/go-json"

	"github.com/jacentio/strata/schema"
)

// timeLayout is the storage form of timestamps. Nanosecond precision keeps
// consecutive operations within the same second strictly ordered.
const timeLayout = time.RFC3339Nano

// Validator is implemented by read shapes that carry required-field or
// cross-field rules beyond what decoding enforces. A failed Validate
// surfaces as a ValidationError from GetByID and FindOneBy.
type Validator interface {
	Validate() error
}

// encodeDocument serializes a shape value to a flat document via a JSON
// round trip. Update shapes mark optional fields with omitempty or pointer
// types, so unset fields are excluded and updates stay sparse.
func encodeDocument(v any) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// decodeDocument parses a raw record into the read shape. Unknown extra
// fields from storage are ignored; a type mismatch or a failed Validate is
// reported as a ValidationError.
func decodeDocument[R any](collection string, doc Document) (R, error) {
	var out R

	raw, err := json.Marshal(doc)
	if err != nil {
		return out, &ValidationError{Collection: collection, Err: err}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &ValidationError{Collection: collection, Err: err}
	}
	if v, ok := any(&out).(Validator); ok {
		if err := v.Validate(); err != nil {
			return out, &ValidationError{Collection: collection, Err: err}
		}
	}

	return out, nil
}

// applyDefaults merges defaults into doc for keys the document does not
// already carry. Fields explicitly present in the document always win.
func applyDefaults(doc Document, defaults Document) {
	for k, v := range defaults {
		if _, ok := doc[k]; !ok {
			doc[k] = v
		}
	}
}

// isSoftDeleted reads the deletion marker off a raw document. Records
// written before soft deletion was enabled have no marker and count as
// active.
func isSoftDeleted(doc Document) bool {
	v, ok := doc[schema.FieldIsDeleted].(bool)
	return ok && v
}
