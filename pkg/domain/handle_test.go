package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSortHandles(t *testing.T) {
	handles := []string{"#", "en", "0", "404", "2", "*", "", "10", "1", "200", "es"}
	SortHandles(handles)
	assert.Equal(t, []string{"", "1", "2", "0", "*", "#", "10", "200", "404", "en", "es"}, handles)
}

func TestBlockType_Classes(t *testing.T) {
	tests := []struct {
		bt        BlockType
		terminal  bool
		branching bool
		handles   bool
	}{
		{BlockPrompt, false, false, false},
		{BlockKey, false, true, true},
		{BlockTransfer, true, false, false},
		{BlockHangup, true, false, false},
		{BlockAPI, false, false, true},
		{BlockLanguage, false, true, true},
		{BlockMenu, false, false, false},
		{BlockQueue, true, false, false},
		{BlockVoicemail, true, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.bt), func(t *testing.T) {
			assert.True(t, tt.bt.Known())
			assert.Equal(t, tt.terminal, tt.bt.Terminal())
			assert.Equal(t, tt.branching, tt.bt.Branching())
			assert.Equal(t, tt.handles, tt.bt.AcceptsHandles())
		})
	}

	bt, ok := ParseBlockType("fax")
	assert.False(t, ok)
	assert.Equal(t, BlockUnknown, bt)
	assert.False(t, BlockUnknown.Known())
}

func TestOptions_Encoding(t *testing.T) {
	opts := NewOptions("2", "Support", "1", "Sales", "#", "Operator")
	assert.Equal(t, []string{"1", "2", "#"}, opts.Keys())

	data, err := json.Marshal(opts)
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":"Sales","2":"Support","#":"Operator"}`, string(data))
	assert.Equal(t, `{"1":"Sales","2":"Support","#":"Operator"}`, string(data), "keys follow branch order")

	var back Options
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, opts, back)

	y, err := yaml.Marshal(opts)
	require.NoError(t, err)
	var fromYAML Options
	require.NoError(t, yaml.Unmarshal(y, &fromYAML))
	assert.Equal(t, opts, fromYAML)

	var unquoted Options
	require.NoError(t, yaml.Unmarshal([]byte("1: Sales\n2: Support\n"), &unquoted))
	assert.Equal(t, NewOptions("1", "Sales", "2", "Support"), unquoted)
}

func TestOptions_WithWithout(t *testing.T) {
	opts := NewOptions("1", "Sales")
	more := opts.With("0", "Operator")
	assert.Equal(t, []string{"1"}, opts.Keys(), "With does not mutate the receiver")
	assert.Equal(t, []string{"1", "0"}, more.Keys())
	assert.Equal(t, []string{"0"}, more.Without("1").Keys())
	assert.Nil(t, opts.Without("1"))
}
