package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/ports"
)

// Mask replaces redacted config values.
const Mask = "***"

type redactMiddleware struct {
	next     ports.FlowStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a middleware that masks node config values whose field
// name matches one of the patterns (e.g. `^apiMock$`, `(?i)token`) before they are stored.
// Masking is one-way: loads return the masked document.
func NewRedactMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("redact pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.FlowStore) ports.FlowStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, rec *domain.FlowRecord) error {
	var doc map[string]any
	if err := json.Unmarshal(rec.Document, &doc); err != nil {
		return fmt.Errorf("flow %s: %w", rec.ID, err)
	}

	masked := false
	nodes, _ := doc["nodes"].([]any)
	for _, n := range nodes {
		node, _ := n.(map[string]any)
		if cfg, ok := node["config"].(map[string]any); ok {
			masked = maskMap(cfg, m.patterns) || masked
		}
	}
	if !masked {
		return m.next.Save(ctx, rec)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	out := rec.Clone()
	out.Document = data
	return m.next.Save(ctx, out)
}

func (m *redactMiddleware) Load(ctx context.Context, id string) (*domain.FlowRecord, error) {
	return m.next.Load(ctx, id)
}

func (m *redactMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// maskMap masks matching keys in place. Option maps are left alone: their keys are
// branch handles and their values are routing labels.
func maskMap(m map[string]any, patterns []*regexp.Regexp) bool {
	masked := false
	for k, v := range m {
		if k == "options" {
			continue
		}
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				masked = true
				break
			}
		}
		if sub, ok := v.(map[string]any); ok && m[k] != Mask {
			masked = maskMap(sub, patterns) || masked
		}
	}
	return masked
}
