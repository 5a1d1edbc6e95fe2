// Package registry maps api blocks to simulated response codes.
package registry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/ivrflow/pkg/domain"
)

// DefaultCode answers api units with no registered response.
const DefaultCode = "200"

// ResponseFunc produces the response code of an api unit.
type ResponseFunc func(u domain.Unit) string

// Registry manages simulated responses, keyed by node id or endpoint URL.
type Registry struct {
	mu        sync.RWMutex
	responses map[string]ResponseFunc
	fallback  string
}

// NewRegistry creates a new empty registry answering DefaultCode.
func NewRegistry() *Registry {
	return &Registry{
		responses: make(map[string]ResponseFunc),
		fallback:  DefaultCode,
	}
}

// Register adds a response function for a node id or endpoint.
// If one is already registered under key, it is overwritten.
func (r *Registry) Register(key string, fn ResponseFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[key] = fn
}

// Set registers a fixed response code.
func (r *Registry) Set(key, code string) {
	r.Register(key, func(domain.Unit) string { return code })
}

// SetDefault changes the code used when nothing matches.
func (r *Registry) SetDefault(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = code
}

// Parse registers "key=code" pairs, e.g. "A1=404" or "https://crm/x=500".
// The split is on the last '=' so endpoints with query strings work.
func (r *Registry) Parse(pairs []string) error {
	for _, p := range pairs {
		i := strings.LastIndex(p, "=")
		if i <= 0 || i == len(p)-1 {
			return fmt.Errorf("invalid response %q: want key=code", p)
		}
		r.Set(p[:i], p[i+1:])
	}
	return nil
}

// Respond answers u by node id first, then by endpoint. It satisfies simulator.Responder.
func (r *Registry) Respond(u domain.Unit) string {
	r.mu.RLock()
	fn, ok := r.responses[u.NodeID]
	if !ok && u.Params["endpoint"] != "" {
		fn, ok = r.responses[u.Params["endpoint"]]
	}
	fallback := r.fallback
	r.mu.RUnlock()

	if !ok {
		return fallback
	}
	return fn(u)
}
