package schema

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// Conforms verifies that a concrete struct type carries every field the
// shape declares, matching by json tag (embedded structs are flattened).
// It is meant to run once, at entity registration time.
func (s Shape) Conforms(t reflect.Type) error {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %s shape requires a struct type, got %s",
			ErrInvalidConfiguration, s.role, t.Kind())
	}

	found := make(map[string]reflect.Type)
	collectFields(t, found)

	for _, f := range s.fields {
		ft, ok := found[f.Name]
		if !ok {
			return fmt.Errorf("%w: type %s is missing field %q required by the %s shape",
				ErrInvalidConfiguration, t, f.Name, s.role)
		}
		if err := checkFieldType(f, ft); err != nil {
			return fmt.Errorf("%w: type %s field %q: %v",
				ErrInvalidConfiguration, t, f.Name, err)
		}
	}

	return nil
}

// collectFields gathers json field names of a struct type, descending into
// anonymous embedded structs the way encoding/json does.
func collectFields(t reflect.Type, out map[string]reflect.Type) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		ft := sf.Type
		if sf.Anonymous {
			et := ft
			for et.Kind() == reflect.Pointer {
				et = et.Elem()
			}
			if et.Kind() == reflect.Struct && !hasJSONName(sf) {
				collectFields(et, out)
				continue
			}
		}

		name := jsonName(sf)
		if name == "" || name == "-" {
			continue
		}
		out[name] = ft
	}
}

func hasJSONName(sf reflect.StructField) bool {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	return name != "" && name != "-"
}

func jsonName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return "-"
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		name = sf.Name
	}
	return name
}

func checkFieldType(f Field, t reflect.Type) error {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch f.Type {
	case TypeString:
		if t.Kind() != reflect.String {
			return fmt.Errorf("want string, have %s", t)
		}
	case TypeBool:
		if t.Kind() != reflect.Bool {
			return fmt.Errorf("want bool, have %s", t)
		}
	case TypeTimestamp:
		// Timestamps decode from their ISO-8601 form into either
		// time.Time or a plain string.
		if t != timeType && t.Kind() != reflect.String {
			return fmt.Errorf("want time.Time or string, have %s", t)
		}
	}

	return nil
}
