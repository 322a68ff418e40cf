// Package mcpserver exposes the autofill pipeline as MCP tools. Every tool
// takes the page HTML as a string and answers with JSON text.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"autofill/internal/autofill"
	"autofill/internal/config"
	"autofill/internal/facts"
	"autofill/internal/form"
	"autofill/internal/htmldoc"
	"autofill/internal/match"
	"autofill/internal/resolver"
)

const (
	ToolExtract    = "form_extract"
	ToolScanMarked = "form_scan_marked"
	ToolMatch      = "form_match"
	ToolFill       = "form_fill"
	ToolFillMarked = "form_fill_marked"
)

// Server wraps an MCP server with the autofill tools registered.
type Server struct {
	cfg   *config.Config
	known *form.ValueMap
	log   *slog.Logger
	mcp   *server.MCPServer
}

// NewServer registers the tools. known holds the facts used when a call
// does not carry its own.
func NewServer(cfg *config.Config, known *form.ValueMap, log *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if known == nil {
		known = form.NewValueMap()
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		cfg:   cfg,
		known: known,
		log:   log,
		mcp:   server.NewMCPServer(cfg.MCP.Name, cfg.MCP.Version, server.WithToolCapabilities(false)),
	}
	s.registerTools()
	return s, nil
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcp }

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func htmlArg() mcp.ToolOption {
	return mcp.WithString("html", mcp.Required(), mcp.Description("HTML document containing the form"))
}

func scopeArg() mcp.ToolOption {
	return mcp.WithString("scope", mcp.Description("CSS selector of the form scope (default from config)"))
}

func factsArg() mcp.ToolOption {
	return mcp.WithString("facts", mcp.Description("JSON object of known facts; server facts are used when empty"))
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool(ToolExtract,
		mcp.WithDescription("List the fields of a form with their resolved labels"),
		htmlArg(), scopeArg(),
	), s.handleExtract)

	s.mcp.AddTool(mcp.NewTool(ToolScanMarked,
		mcp.WithDescription("List only the fields whose value is the trigger token"),
		htmlArg(), scopeArg(),
		mcp.WithString("token", mcp.Description("Trigger token (default from config)")),
	), s.handleScanMarked)

	s.mcp.AddTool(mcp.NewTool(ToolMatch,
		mcp.WithDescription("Fuzzy match unfilled form fields against known facts"),
		htmlArg(), scopeArg(), factsArg(),
		mcp.WithNumber("threshold", mcp.Description("Match threshold in (0,1) (default from config)")),
	), s.handleMatch)

	s.mcp.AddTool(mcp.NewTool(ToolFill,
		mcp.WithDescription("Fill unfilled form fields from known facts and return the updated HTML"),
		htmlArg(), scopeArg(), factsArg(),
	), s.handleFill)

	s.mcp.AddTool(mcp.NewTool(ToolFillMarked,
		mcp.WithDescription("Fill fields marked with the trigger token from a JSON object of field id to value"),
		htmlArg(), scopeArg(),
		mcp.WithString("values", mcp.Required(), mcp.Description("JSON object of field id to value")),
	), s.handleFillMarked)
}

func (s *Server) document(req mcp.CallToolRequest) (*htmldoc.Document, error) {
	html, err := req.RequireString("html")
	if err != nil {
		return nil, err
	}
	scope := req.GetString("scope", s.cfg.Scope)
	return htmldoc.ParseString(html, htmldoc.WithScope(scope))
}

// factsFor returns the server's facts with the call's facts merged over
// them. Name parts are derived from the call's facts before the merge so a
// supplied name replaces the server's first and last name too.
func (s *Server) factsFor(req mcp.CallToolRequest) (*form.ValueMap, error) {
	raw := strings.TrimSpace(req.GetString("facts", ""))
	if raw == "" {
		return s.known, nil
	}
	m := form.NewValueMap()
	if err := json.Unmarshal([]byte(raw), m); err != nil {
		return nil, fmt.Errorf("facts: %w", err)
	}
	return facts.Merge(s.known, facts.WithNameParts(facts.StripMarkup(m))), nil
}

func (s *Server) runner(opts ...autofill.Option) *autofill.Runner {
	base := []autofill.Option{
		autofill.WithLogger(s.log),
		autofill.WithThreshold(s.cfg.MatchThreshold),
		autofill.WithTriggerToken(s.cfg.TriggerToken),
	}
	if s.cfg.Negation {
		base = append(base, autofill.WithNegation())
	}
	return autofill.New(append(base, opts...)...)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func (s *Server) handleExtract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := s.document(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ex, err := form.Extract(d)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"fields":     ex.Fields,
		"all_filled": form.AllFilled(ex.Fields),
	})
}

func (s *Server) handleScanMarked(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := s.document(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	token := req.GetString("token", s.cfg.TriggerToken)
	ex, err := form.ScanMarked(d, token)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"token": token, "fields": ex.Fields})
}

func (s *Server) handleMatch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := s.document(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	known, err := s.factsFor(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	threshold := req.GetFloat("threshold", s.cfg.MatchThreshold)
	if threshold <= 0 || threshold >= 1 {
		return mcp.NewToolResultError(fmt.Sprintf("threshold must be in (0,1), got %v", threshold)), nil
	}

	ex, err := form.Extract(d)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	candidates := form.Unfilled(ex.Fields)
	results := match.New(threshold).Explain(candidates, known)
	if s.cfg.Negation {
		autofill.InvertNegated(candidates, results)
	}
	values := form.NewValueMap()
	for _, r := range results {
		values.Set(r.FieldID, r.Value)
	}
	return jsonResult(map[string]any{"matches": results, "values": values})
}

type fillResponse struct {
	Filled int            `json:"filled"`
	Values *form.ValueMap `json:"values"`
	HTML   string         `json:"html"`
}

func (s *Server) handleFill(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := s.document(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	known, err := s.factsFor(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.runner().FillFromFacts(ctx, d, known)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.filled(d, res)
}

func (s *Server) handleFillMarked(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := s.document(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("values")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	supplied := form.NewValueMap()
	if err := json.Unmarshal([]byte(raw), supplied); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("values: %v", err)), nil
	}
	supplied = facts.StripMarkup(supplied)

	static := resolver.Func(func(context.Context, []form.FieldDescriptor) (*form.ValueMap, error) {
		return supplied, nil
	})
	res, err := s.runner().FillMarked(ctx, d, static)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.filled(d, res)
}

func (s *Server) filled(d *htmldoc.Document, res autofill.Result) (*mcp.CallToolResult, error) {
	html, err := d.HTML()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(fillResponse{Filled: res.Filled, Values: res.Values, HTML: html})
}
