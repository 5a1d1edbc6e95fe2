package schema

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Schema maps config field names to their types.
type Schema map[string]Type

// Fields returns the field names in lexical order.
func (s Schema) Fields() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks cfg against s and returns FieldErrors, or nil.
// Fields s does not name are ignored.
func Validate(s Schema, cfg map[string]any) error {
	var errs FieldErrors
	for _, name := range s.Fields() {
		typ := s[name]
		value, ok := cfg[name]
		if !ok || value == nil {
			if !IsOptional(typ) {
				errs = append(errs, &FieldError{Field: name, Reason: "required"})
			}
			continue
		}
		if err := typ.Validate(value); err != nil {
			errs = append(errs, &FieldError{Field: name, Reason: err.Error()})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// MarshalJSON writes the schema as field names to type names.
func (s Schema) MarshalJSON() ([]byte, error) {
	names := make(map[string]string, len(s))
	for field, typ := range s {
		names[field] = typ.Name()
	}
	return json.Marshal(names)
}

// UnmarshalJSON reads the form MarshalJSON writes.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var names map[string]string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	out := make(Schema, len(names))
	for field, name := range names {
		typ, err := ParseType(name)
		if err != nil {
			return fmt.Errorf("schema: field %s: %w", field, err)
		}
		out[field] = typ
	}
	*s = out
	return nil
}
