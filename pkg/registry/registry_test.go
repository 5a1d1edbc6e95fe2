package registry

import (
	"testing"

	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Respond(t *testing.T) {
	r := NewRegistry()
	byNode := domain.Unit{NodeID: "A1", Params: map[string]string{"endpoint": "https://crm/x"}}
	byEndpoint := domain.Unit{NodeID: "A2", Params: map[string]string{"endpoint": "https://crm/x"}}
	other := domain.Unit{NodeID: "A3"}

	assert.Equal(t, DefaultCode, r.Respond(other))

	r.Set("https://crm/x", "500")
	r.Set("A1", "404")
	assert.Equal(t, "404", r.Respond(byNode), "node id wins over endpoint")
	assert.Equal(t, "500", r.Respond(byEndpoint))

	r.SetDefault("503")
	assert.Equal(t, "503", r.Respond(other))

	calls := 0
	r.Register("A3", func(u domain.Unit) string {
		calls++
		return "201"
	})
	assert.Equal(t, "201", r.Respond(other))
	assert.Equal(t, 1, calls)
}

func TestRegistry_Parse(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Parse([]string{"A1=404", "https://crm/x?a=1=500"}))
	assert.Equal(t, "404", r.Respond(domain.Unit{NodeID: "A1"}))
	assert.Equal(t, "500", r.Respond(domain.Unit{NodeID: "Z", Params: map[string]string{"endpoint": "https://crm/x?a=1"}}))

	for _, bad := range []string{"A1", "=404", "A1="} {
		assert.Error(t, r.Parse([]string{bad}), bad)
	}
}
