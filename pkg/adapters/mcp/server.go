package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/ivrflow"
	"github.com/aretw0/ivrflow/internal/logging"
	"github.com/aretw0/ivrflow/pkg/codec"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/flows"
	"github.com/aretw0/ivrflow/pkg/registry"
	"github.com/aretw0/ivrflow/pkg/schema"
	"github.com/aretw0/ivrflow/pkg/simulator"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// BlockTypesURI is the resource describing the block palette.
const BlockTypesURI = "ivrflow://block-types"

// SimulationResult is the output of the simulate_call tool.
type SimulationResult struct {
	State  *simulator.State  `json:"state" jsonschema_description:"Where the call stopped"`
	Events []simulator.Event `json:"events" jsonschema_description:"Units executed, in order"`
}

// Server exposes flow validation and compilation as an MCP server.
type Server struct {
	flows      *flows.Manager
	deadBranch domain.DeadBranchPolicy
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	mcpServer  *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithFlows exposes stored flows through the list_flows tool and flow:// resources.
func WithFlows(m *flows.Manager) Option {
	return func(s *Server) {
		s.flows = m
	}
}

// WithDeadBranch sets the policy used when a tool call does not name one.
func WithDeadBranch(p domain.DeadBranchPolicy) Option {
	return func(s *Server) {
		s.deadBranch = p
	}
}

// WithHooks registers lifecycle hooks for validate and compile calls.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(s *Server) {
		s.hooks = s.hooks.Merge(h)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(opts ...Option) *Server {
	s := &Server{
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("ivrflow-mcp", strings.TrimSpace(ivrflow.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func documentArg() mcp.ToolOption {
	return mcp.WithString("document", mcp.Required(),
		mcp.Description("Flow interchange document, JSON or YAML ({nodes, edges, start?})"))
}

func deadBranchArg() mcp.ToolOption {
	return mcp.WithString("dead_branch",
		mcp.Description("What branching blocks do on input with no connected branch"),
		mcp.Enum(string(domain.DeadBranchReprompt), string(domain.DeadBranchHangup)))
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("validate_flow",
		mcp.WithDescription("Validate a call flow and list every error and warning. Never fails on an invalid graph."),
		documentArg(),
		mcp.WithOutputSchema[domain.Report](),
	), mcp.NewStructuredToolHandler(s.handleValidate))

	s.mcpServer.AddTool(mcp.NewTool("compile_flow",
		mcp.WithDescription("Compile a call flow into a call-control script. Fails with the blocking findings if the graph has errors."),
		documentArg(),
		deadBranchArg(),
		mcp.WithOutputSchema[domain.Script](),
	), mcp.NewStructuredToolHandler(s.handleCompile))

	s.mcpServer.AddTool(mcp.NewTool("export_agi",
		mcp.WithDescription("Compile a call flow and render it as an Asterisk dialplan."),
		documentArg(),
		deadBranchArg(),
		mcp.WithString("context", mcp.Description("Dialplan context name (default ivrflow)")),
	), s.handleExportAGI)

	s.mcpServer.AddTool(mcp.NewTool("mermaid",
		mcp.WithDescription("Render a call flow as a Mermaid flowchart."),
		documentArg(),
	), s.handleMermaid)

	s.mcpServer.AddTool(mcp.NewTool("simulate_call",
		mcp.WithDescription("Compile a call flow and walk it with the given caller inputs (digits or language codes)."),
		documentArg(),
		deadBranchArg(),
		mcp.WithString("inputs", mcp.Description("JSON array of caller inputs, e.g. [\"1\", \"2\"]")),
		mcp.WithString("responses", mcp.Description("JSON object of api response codes by node id or endpoint, e.g. {\"A1\": \"404\"} (default 200)")),
		mcp.WithOutputSchema[SimulationResult](),
	), mcp.NewStructuredToolHandler(s.handleSimulate))

	if s.flows != nil {
		s.mcpServer.AddTool(mcp.NewTool("list_flows",
			mcp.WithDescription("List stored flows (id, name, version)."),
		), s.handleListFlows)
	}
}

func (s *Server) handleListFlows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.flows.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(list)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) graphArg(args map[string]interface{}) (*domain.Graph, error) {
	doc, _ := args["document"].(string)
	if strings.TrimSpace(doc) == "" {
		return nil, errors.New("document is required")
	}
	return ivrflow.Import([]byte(doc), "")
}

func (s *Server) options(args map[string]interface{}) []ivrflow.Option {
	policy := s.deadBranch
	if p, _ := args["dead_branch"].(string); p != "" {
		policy = domain.DeadBranchPolicy(p)
	}
	return []ivrflow.Option{
		ivrflow.WithDeadBranch(policy),
		ivrflow.WithLifecycleHooks(s.hooks),
		ivrflow.WithLogger(s.logger),
	}
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.Report, error) {
	g, err := s.graphArg(args)
	if err != nil {
		return domain.Report{}, err
	}
	return *ivrflow.Validate(ctx, g, s.options(args)...), nil
}

func (s *Server) handleCompile(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.Script, error) {
	g, err := s.graphArg(args)
	if err != nil {
		return domain.Script{}, err
	}
	script, err := ivrflow.Compile(ctx, g, s.options(args)...)
	if err != nil {
		return domain.Script{}, err
	}
	return *script, nil
}

func (s *Server) handleExportAGI(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	g, err := s.graphArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opts := s.options(args)
	script, err := ivrflow.Compile(ctx, g, opts...)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if c, _ := args["context"].(string); c != "" {
		opts = append(opts, ivrflow.WithAGIContext(c))
	}
	return mcp.NewToolResultText(ivrflow.ExportAGI(script, opts...)), nil
}

func (s *Server) handleMermaid(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, err := s.graphArg(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(ivrflow.ExportMermaid(g, nil, "")), nil
}

func (s *Server) handleSimulate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SimulationResult, error) {
	g, err := s.graphArg(args)
	if err != nil {
		return SimulationResult{}, err
	}
	var inputs []string
	if raw, _ := args["inputs"].(string); raw != "" {
		if err := json.Unmarshal([]byte(raw), &inputs); err != nil {
			return SimulationResult{}, fmt.Errorf("inputs must be a JSON array of strings: %w", err)
		}
	}
	reg := registry.NewRegistry()
	if raw, _ := args["responses"].(string); raw != "" {
		var codes map[string]string
		if err := json.Unmarshal([]byte(raw), &codes); err != nil {
			return SimulationResult{}, fmt.Errorf("responses must be a JSON object of strings: %w", err)
		}
		for key, code := range codes {
			reg.Set(key, code)
		}
	}
	script, err := ivrflow.Compile(ctx, g, s.options(args)...)
	if err != nil {
		return SimulationResult{}, err
	}

	sim := simulator.New(script, simulator.WithLogger(s.logger), simulator.WithResponder(reg.Respond))
	state, events, err := sim.Start()
	if err != nil {
		return SimulationResult{}, err
	}
	for _, in := range inputs {
		if state.Status != simulator.StatusWaiting {
			break
		}
		next, more, err := sim.Step(state, in)
		events = append(events, more...)
		if err != nil {
			return SimulationResult{State: state, Events: events}, err
		}
		state = next
	}
	return SimulationResult{State: state, Events: events}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(BlockTypesURI, "Block Types",
		mcp.WithResourceDescription("Every block type with its config fields and routing rules"),
		mcp.WithMIMEType("application/json"),
	), s.readBlockTypes)

	if s.flows == nil {
		return
	}
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate("ivrflow://flows/{id}", "Stored Flow",
		mcp.WithTemplateDescription("Interchange document of a stored flow"),
		mcp.WithTemplateMIMEType("application/json"),
	), s.readFlow)
}

func (s *Server) readBlockTypes(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(schema.Catalog())
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      BlockTypesURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func (s *Server) readFlow(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	id := strings.TrimPrefix(request.Params.URI, "ivrflow://flows/")
	flow, err := s.flows.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := codec.MarshalJSON(flow.Graph)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(doc),
		},
	}, nil
}
