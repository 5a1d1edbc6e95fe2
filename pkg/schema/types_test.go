package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypes(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		value   any
		wantErr bool
	}{
		{"string ok", String(), "hello", false},
		{"string wrong", String(), 42, true},
		{"map json", StringMap(), map[string]any{"1": "Sales"}, false},
		{"map yaml int keys", StringMap(), map[any]any{1: "Sales", "#": "Operator"}, false},
		{"map bad label", StringMap(), map[string]any{"1": 2}, true},
		{"map not object", StringMap(), "1:Sales,2:Support", true},
		{"optional present", Optional(String()), "x", false},
		{"optional wrong", Optional(String()), 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.typ.Validate(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseType(t *testing.T) {
	for _, name := range []string{"string", "{string}", "string?", "{string}?"} {
		typ, err := ParseType(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, typ.Name())
	}

	for _, bad := range []string{"int", "?", "[string]"} {
		_, err := ParseType(bad)
		assert.Error(t, err, bad)
	}
	assert.Equal(t, "string?", Optional(Optional(String())).Name())
}

func TestValidate(t *testing.T) {
	s := Schema{
		"destination": String(),
		"conditions":  Optional(String()),
	}

	assert.NoError(t, Validate(s, map[string]any{"destination": "SIP/100"}))
	assert.NoError(t, Validate(s, map[string]any{"destination": "SIP/100", "extra": 1}), "unknown fields are ignored")

	err := Validate(s, map[string]any{"conditions": 5})
	var errs FieldErrors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, []string{"conditions", "destination"}, errs.Fields())
	assert.Equal(t, "required", errs[1].Reason)
	assert.Contains(t, err.Error(), "conditions: expected string, got int")
}

func TestSchemaJSON(t *testing.T) {
	var s Schema
	require.NoError(t, json.Unmarshal([]byte(`{"options":"{string}?","summary":"string"}`), &s))
	assert.True(t, IsOptional(s["options"]))
	assert.False(t, IsOptional(s["summary"]))

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"options":"{string}?","summary":"string"}`, string(data))

	assert.ErrorContains(t, json.Unmarshal([]byte(`{"x":"nope"}`), &s), "field x")
}
