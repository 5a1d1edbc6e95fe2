package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/ivrflow"
	"github.com/aretw0/ivrflow/internal/logging"
	"github.com/aretw0/ivrflow/pkg/codec"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/flows"
	"github.com/aretw0/ivrflow/pkg/observability"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"
)

//go:embed openapi.yaml
var rawSpec []byte

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 4 << 20

// LoadSpec parses the embedded OpenAPI document.
func LoadSpec() (*openapi3.T, error) {
	return openapi3.NewLoader().LoadFromData(rawSpec)
}

// Server serves the flow API.
type Server struct {
	flows      *flows.Manager
	deadBranch domain.DeadBranchPolicy
	hooks      domain.LifecycleHooks
	metrics    *observability.Metrics
	streams    *StreamManager
	validate   *validator.Validate
	logger     *slog.Logger
	apiVersion string
}

// Option configures the Server.
type Option func(*Server)

// WithDeadBranch sets the policy used when a request does not name one.
func WithDeadBranch(p domain.DeadBranchPolicy) Option {
	return func(s *Server) {
		s.deadBranch = p
	}
}

// WithMetrics records lifecycle metrics and serves them at /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
		s.hooks = s.hooks.Merge(m.Hooks())
	}
}

// WithHooks registers extra lifecycle hooks for validate and compile requests.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(s *Server) {
		s.hooks = s.hooks.Merge(h)
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a Server over a flows Manager.
func NewServer(mgr *flows.Manager, opts ...Option) *Server {
	s := &Server{
		flows:      mgr,
		streams:    NewStreamManager(),
		validate:   validator.New(),
		logger:     logging.NewNop(),
		apiVersion: "unknown",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.streams.logger = s.logger
	if spec, err := LoadSpec(); err != nil {
		s.logger.Error("Failed to load OpenAPI spec", "err", err)
	} else if spec.Info != nil {
		s.apiVersion = spec.Info.Version
	}
	return s
}

// NewHandler creates the HTTP handler over a flows Manager.
func NewHandler(mgr *flows.Manager, opts ...Option) http.Handler {
	return enableCORS(NewServer(mgr, opts...).Routes())
}

// Routes builds the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Post("/validate", s.ValidateFlow)
	r.Post("/compile", s.CompileFlow)
	r.Post("/export/agi", s.ExportAGI)

	r.Route("/flows", func(r chi.Router) {
		r.Get("/", s.ListFlows)
		r.Post("/", s.CreateFlow)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetFlow)
			r.Put("/", s.SaveFlow)
			r.Delete("/", s.DeleteFlow)
			r.Get("/script", s.GetFlowScript)
			r.Get("/graph", s.GetFlowGraph)
			r.Get("/events", s.SubscribeFlowEvents)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>ivrflow API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "ivrflow-http",
		"version":     strings.TrimSpace(ivrflow.Version),
		"api_version": s.apiVersion,
	})
}

// ValidateFlow handles the POST /validate request.
func (s *Server) ValidateFlow(w http.ResponseWriter, r *http.Request) {
	g, err := s.readGraph(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts, err := s.facadeOptions(r, "")
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ivrflow.Validate(r.Context(), g, opts...))
}

// CompileFlow handles the POST /compile request.
func (s *Server) CompileFlow(w http.ResponseWriter, r *http.Request) {
	g, err := s.readGraph(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.compile(w, r, g, "")
}

// ExportAGI handles the POST /export/agi request.
func (s *Server) ExportAGI(w http.ResponseWriter, r *http.Request) {
	g, err := s.readGraph(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts, err := s.facadeOptions(r, "")
	if err != nil {
		s.writeError(w, err)
		return
	}
	script, err := ivrflow.Compile(r.Context(), g, opts...)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var agiContext string
	if err := runtime.BindQueryParameter("form", true, false, "context", r.URL.Query(), &agiContext); err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if agiContext != "" {
		opts = append(opts, ivrflow.WithAGIContext(agiContext))
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, ivrflow.ExportAGI(script, opts...))
}

type createFlowRequest struct {
	Name     string          `json:"name" validate:"required,max=200"`
	Owner    string          `json:"owner,omitempty" validate:"omitempty,max=200"`
	Document json.RawMessage `json:"document" validate:"required"`
}

type saveFlowRequest struct {
	Version  uint64          `json:"version" validate:"required,min=1"`
	Document json.RawMessage `json:"document" validate:"required"`
}

// ListFlows handles the GET /flows request.
func (s *Server) ListFlows(w http.ResponseWriter, r *http.Request) {
	list, err := s.flows.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

// CreateFlow handles the POST /flows request.
func (s *Server) CreateFlow(w http.ResponseWriter, r *http.Request) {
	var body createFlowRequest
	if err := s.decodeBody(w, r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	g, err := codec.UnmarshalJSON(body.Document)
	if err != nil {
		s.writeError(w, err)
		return
	}
	rec, err := s.flows.Create(r.Context(), body.Name, body.Owner, g)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("flow created", "flow_id", rec.ID)
	s.writeJSON(w, http.StatusCreated, rec)
}

// GetFlow handles the GET /flows/{id} request.
func (s *Server) GetFlow(w http.ResponseWriter, r *http.Request) {
	rec, err := s.flows.Store().Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// SaveFlow handles the PUT /flows/{id} request.
func (s *Server) SaveFlow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body saveFlowRequest
	if err := s.decodeBody(w, r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	g, err := codec.UnmarshalJSON(body.Document)
	if err != nil {
		s.writeError(w, err)
		return
	}
	rec, err := s.flows.Save(r.Context(), id, g, body.Version)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if event, err := json.Marshal(map[string]any{"id": rec.ID, "version": rec.Version}); err == nil {
		s.streams.Broadcast(id, string(event))
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// DeleteFlow handles the DELETE /flows/{id} request.
func (s *Server) DeleteFlow(w http.ResponseWriter, r *http.Request) {
	if err := s.flows.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetFlowScript handles the GET /flows/{id}/script request.
func (s *Server) GetFlowScript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	flow, err := s.flows.Load(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.compile(w, r, flow.Graph, id)
}

// GetFlowGraph handles the GET /flows/{id}/graph request.
func (s *Server) GetFlowGraph(w http.ResponseWriter, r *http.Request) {
	flow, err := s.flows.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, ivrflow.ExportMermaid(flow.Graph, nil, ""))
}

func (s *Server) compile(w http.ResponseWriter, r *http.Request, g *domain.Graph, flowID string) {
	opts, err := s.facadeOptions(r, flowID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	script, err := ivrflow.Compile(r.Context(), g, opts...)
	var cerr *domain.CompileError
	if errors.As(err, &cerr) {
		s.writeJSON(w, http.StatusUnprocessableEntity, &domain.Report{Errors: cerr.Findings, Warnings: []domain.Finding{}})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, script)
}

// facadeOptions binds the optional deadBranch query parameter over the server default.
func (s *Server) facadeOptions(r *http.Request, flowID string) ([]ivrflow.Option, error) {
	var q string
	if err := runtime.BindQueryParameter("form", true, false, "deadBranch", r.URL.Query(), &q); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	policy := s.deadBranch
	if q != "" {
		policy = domain.DeadBranchPolicy(q)
	}
	return []ivrflow.Option{
		ivrflow.WithDeadBranch(policy),
		ivrflow.WithLifecycleHooks(s.hooks),
		ivrflow.WithLogger(s.logger),
		ivrflow.WithFlowID(flowID),
	}, nil
}

// readGraph decodes a document body; YAML is picked by Content-Type or sniffed.
func (s *Server) readGraph(w http.ResponseWriter, r *http.Request) (*domain.Graph, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", errBadRequest, err)
	}
	format := codec.Sniff(data)
	if ct := r.Header.Get("Content-Type"); strings.Contains(ct, "yaml") {
		format = codec.FormatYAML
	} else if strings.Contains(ct, "json") {
		format = codec.FormatJSON
	}
	return codec.Decode(data, format)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", errBadRequest, err)
	}
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

var errBadRequest = errors.New("bad request")

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest),
		errors.Is(err, domain.ErrMalformedDocument),
		errors.Is(err, domain.ErrMissingDeadBranchPolicy),
		errors.Is(err, domain.ErrInvalidDeadBranchPolicy):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrFlowNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrStaleVersion):
		return http.StatusConflict
	case errors.Is(err, domain.ErrGraphNotCompilable),
		errors.Is(err, domain.ErrUnsupportedBlockType):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		return 499
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	} else {
		s.logger.Debug("request rejected", "status", status, "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
