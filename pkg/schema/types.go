package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Type checks the shape of one config value.
type Type interface {
	// Name returns the type in the notation ParseType accepts (e.g. "string", "{string}?").
	Name() string
	Validate(value any) error
}

type stringType struct{}

func (stringType) Name() string { return "string" }

func (stringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// labelMapType is the shape of key and language options: scalar keys to string labels.
// YAML decoders hand over digit keys as integers, so any scalar key is accepted.
type labelMapType struct{}

func (labelMapType) Name() string { return "{string}" }

func (labelMapType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map {
		return fmt.Errorf("expected object, got %T", value)
	}
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key()
		if k.Kind() == reflect.Interface {
			k = k.Elem()
		}
		switch k.Kind() {
		case reflect.String, reflect.Int, reflect.Int64, reflect.Uint64:
		default:
			return fmt.Errorf("option %v: expected scalar key, got %s", k, k.Kind())
		}
		if _, ok := iter.Value().Interface().(string); !ok {
			return fmt.Errorf("option %v: expected string label, got %T", k, iter.Value().Interface())
		}
	}
	return nil
}

type optionalType struct {
	elem Type
}

func (t optionalType) Name() string { return t.elem.Name() + "?" }

func (t optionalType) Validate(value any) error { return t.elem.Validate(value) }

// String is a text field.
func String() Type { return stringType{} }

// StringMap is an options field.
func StringMap() Type { return labelMapType{} }

// Optional lets a field be absent. A present value must still satisfy t.
func Optional(t Type) Type {
	if IsOptional(t) {
		return t
	}
	return optionalType{elem: t}
}

// IsOptional reports whether t was wrapped by Optional.
func IsOptional(t Type) bool {
	_, ok := t.(optionalType)
	return ok
}

// ParseType reads a type name: "string", "{string}", each with an optional "?" suffix.
func ParseType(name string) (Type, error) {
	if elem, ok := strings.CutSuffix(name, "?"); ok {
		t, err := ParseType(elem)
		if err != nil {
			return nil, err
		}
		return Optional(t), nil
	}
	switch name {
	case "string":
		return String(), nil
	case "{string}":
		return StringMap(), nil
	}
	return nil, fmt.Errorf("unsupported type %q", name)
}
