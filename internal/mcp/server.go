// Package mcp provides an MCP (Model Context Protocol) server for cevents.
// Agents can transduce C sources and query the recorded event log through
// MCP tools instead of CLI commands.
package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/hargabyte/cevents/internal/event"
	"github.com/hargabyte/cevents/internal/output"
	"github.com/hargabyte/cevents/internal/store"
	"github.com/hargabyte/cevents/internal/transducer"
)

// Server wraps the MCP server with cevents-specific functionality
type Server struct {
	mcpServer    *server.MCPServer
	store        *store.Store
	projectRoot  string
	tools        map[string]bool
	lastActivity time.Time
	timeout      time.Duration
	mu           sync.RWMutex
}

// Config holds server configuration
type Config struct {
	Root      string        // Project root that relative file arguments resolve against
	StorePath string        // Event log database
	Tools     []string      // Which tools to expose (empty = DefaultTools)
	Timeout   time.Duration // Inactivity timeout (0 = no timeout)
}

// DefaultTools is the default set of tools to expose
var DefaultTools = []string{"c_events", "c_signatures", "c_check"}

// AllTools lists all available tools
var AllTools = []string{"c_events", "c_signatures", "c_check", "c_history"}

// New creates a new MCP server
func New(cfg Config) (*Server, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}
	if real, err := filepath.EvalSymlinks(root); err == nil {
		root = real
	}

	storeDB, err := store.Open(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	mcpServer := server.NewMCPServer(
		"cevents",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcpServer:    mcpServer,
		store:        storeDB,
		projectRoot:  root,
		tools:        make(map[string]bool),
		lastActivity: time.Now(),
		timeout:      cfg.Timeout,
	}

	toolsToRegister := cfg.Tools
	if len(toolsToRegister) == 0 {
		toolsToRegister = DefaultTools
	}

	for _, toolName := range toolsToRegister {
		if err := s.registerTool(toolName); err != nil {
			storeDB.Close()
			return nil, fmt.Errorf("failed to register tool %s: %w", toolName, err)
		}
		s.tools[toolName] = true
	}

	return s, nil
}

// registerTool registers a single tool with the MCP server
func (s *Server) registerTool(name string) error {
	schema, ok := toolSchemaRegistry[name]
	if !ok {
		return fmt.Errorf("unknown tool: %s", name)
	}
	s.mcpServer.AddTool(newTool(schema), s.handler(name))
	return nil
}

// newTool builds the mcp-go tool definition from a schema.
func newTool(schema ToolSchema) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(schema.Description)}
	for _, p := range schema.Parameters {
		propOpts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			propOpts = append(propOpts, mcp.Required())
		}
		switch p.Type {
		case "number":
			opts = append(opts, mcp.WithNumber(p.Name, propOpts...))
		case "boolean":
			opts = append(opts, mcp.WithBoolean(p.Name, propOpts...))
		default:
			opts = append(opts, mcp.WithString(p.Name, propOpts...))
		}
	}
	return mcp.NewTool(schema.Name, opts...)
}

// handler adapts CallTool to the mcp-go handler signature.
func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.updateActivity()

		result, err := s.CallTool(name, req.GetArguments())
		if err != nil {
			log.Debug().Str("tool", name).Err(err).Msg("tool call failed")
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(result), nil
	}
}

// ServeStdio starts the server using stdio transport
func (s *Server) ServeStdio() error {
	if s.timeout > 0 {
		go s.timeoutChecker()
	}

	return server.ServeStdio(s.mcpServer)
}

// timeoutChecker monitors for inactivity and exits if timeout exceeded
func (s *Server) timeoutChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.RLock()
		elapsed := time.Since(s.lastActivity)
		s.mu.RUnlock()

		if elapsed > s.timeout {
			fmt.Fprintf(os.Stderr, "cevents serve: timeout after %v of inactivity\n", s.timeout)
			os.Exit(0)
		}
	}
}

// updateActivity updates the last activity timestamp
func (s *Server) updateActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// Close closes the server and its resources
func (s *Server) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// ListTools returns the registered tools in sorted order
func (s *Server) ListTools() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]string, 0, len(s.tools))
	for t := range s.tools {
		tools = append(tools, t)
	}
	slices.Sort(tools)
	return tools
}

// ToolSchema describes a tool's name, description, and parameters.
type ToolSchema struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Parameters  []ParameterSchema `json:"parameters" yaml:"parameters"`
}

// ParameterSchema describes a single tool parameter.
type ParameterSchema struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
}

// toolSchemaRegistry holds the schema definitions for all tools.
// newTool builds the mcp-go definitions from these.
var toolSchemaRegistry = map[string]ToolSchema{
	"c_events": {
		Name:        "c_events",
		Description: "Transduce a C file or snippet into its ordered event stream (tag and text per event).",
		Parameters: []ParameterSchema{
			{Name: "file", Type: "string", Description: "C file path, relative to the project root"},
			{Name: "source", Type: "string", Description: "Inline C source, used when file is empty"},
			{Name: "tags", Type: "string", Description: "Comma-separated tag labels to keep (default: all)"},
			{Name: "histogram", Type: "boolean", Description: "Include per-tag counts"},
		},
	},
	"c_signatures": {
		Name:        "c_signatures",
		Description: "List reconstructed function signatures (return type, name, parameters). Reads the event log when no file is given.",
		Parameters: []ParameterSchema{
			{Name: "file", Type: "string", Description: "C file to transduce now; empty lists every recorded signature"},
		},
	},
	"c_check": {
		Name:        "c_check",
		Description: "Verify that a C file transduces deterministically with balanced Enter/Exit events in both batch and streaming mode.",
		Parameters: []ParameterSchema{
			{Name: "file", Type: "string", Description: "C file path, relative to the project root", Required: true},
		},
	},
	"c_history": {
		Name:        "c_history",
		Description: "Show recent scan runs and the files whose last transduction failed.",
		Parameters: []ParameterSchema{
			{Name: "limit", Type: "number", Description: "Maximum scans to list (default: 10)"},
		},
	},
}

// GetToolSchemas returns schemas for all registered tools in sorted order.
func (s *Server) GetToolSchemas() []ToolSchema {
	names := s.ListTools()
	schemas := make([]ToolSchema, 0, len(names))
	for _, name := range names {
		if schema, ok := toolSchemaRegistry[name]; ok {
			schemas = append(schemas, schema)
		}
	}
	return schemas
}

// CallTool dispatches a tool call by name with the given arguments.
// Returns the JSON result string or an error.
func (s *Server) CallTool(name string, args map[string]any) (string, error) {
	s.mu.RLock()
	registered := s.tools[name]
	s.mu.RUnlock()

	if !registered {
		return "", fmt.Errorf("unknown tool: %s (run 'cevents call --list' to see available tools)", name)
	}

	switch name {
	case "c_events":
		file, _ := args["file"].(string)
		source, _ := args["source"].(string)
		if file == "" && source == "" {
			return "", fmt.Errorf("file or source parameter is required")
		}
		tags, _ := args["tags"].(string)
		histogram, _ := args["histogram"].(bool)
		return s.executeEvents(file, source, tags, histogram)

	case "c_signatures":
		file, _ := args["file"].(string)
		return s.executeSignatures(file)

	case "c_check":
		file, _ := args["file"].(string)
		if file == "" {
			return "", fmt.Errorf("file parameter is required")
		}
		return s.executeCheck(file)

	case "c_history":
		limit := 10
		if l, ok := args["limit"].(float64); ok {
			limit = int(l)
		}
		return s.executeHistory(limit)

	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// resolve maps a file argument to a path inside the project. Symlinks are
// followed before the containment check.
func (s *Server) resolve(file string) (string, error) {
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.projectRoot, path)
	}
	if real, err := filepath.EvalSymlinks(path); err == nil {
		path = real
	}
	rel, err := filepath.Rel(s.projectRoot, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the project root", file)
	}
	return path, nil
}

// transduce runs a fresh transducer; parsers are not shared between calls.
func transduce(fn func(tr *transducer.Transducer) error) error {
	tr, err := transducer.New()
	if err != nil {
		return err
	}
	defer tr.Close()
	return fn(tr)
}

func (s *Server) executeEvents(file, source, tags string, histogram bool) (string, error) {
	filter, err := event.ParseTags(tags)
	if err != nil {
		return "", err
	}

	var evs []event.Event
	err = transduce(func(tr *transducer.Transducer) error {
		if file == "" {
			evs, err = tr.Source([]byte(source))
			return err
		}
		path, err := s.resolve(file)
		if err != nil {
			return err
		}
		evs, err = tr.File(path)
		return err
	})
	if err != nil {
		return "", err
	}

	return toJSON(output.NewEventsOutput(file, evs, histogram, filter...))
}

func (s *Server) executeSignatures(file string) (string, error) {
	out := &output.SignaturesOutput{Signatures: []output.SignatureEntry{}}

	if file == "" {
		sigs, err := s.store.Signatures("")
		if err != nil {
			return "", err
		}
		for _, sig := range sigs {
			out.Signatures = append(out.Signatures, output.SignatureEntry{File: sig.File, Signature: sig.Signature})
		}
		out.Count = len(out.Signatures)
		return toJSON(out)
	}

	path, err := s.resolve(file)
	if err != nil {
		return "", err
	}
	err = transduce(func(tr *transducer.Transducer) error {
		root, err := tr.FileTree(path)
		if err != nil {
			return err
		}
		return transducer.Emit(root, transducer.SinkFunc(func(ev event.Event) error {
			if ev.Tag == event.ExitFunction {
				out.Signatures = append(out.Signatures, output.SignatureEntry{File: file, Signature: ev.Text})
			}
			return nil
		}))
	})
	if err != nil {
		return "", err
	}
	out.Count = len(out.Signatures)
	return toJSON(out)
}

func (s *Server) executeCheck(file string) (string, error) {
	path, err := s.resolve(file)
	if err != nil {
		return "", err
	}

	entry := output.CheckEntry{File: file}
	err = transduce(func(tr *transducer.Transducer) error {
		r, err := tr.CheckFile(path)
		if err != nil {
			return err
		}
		entry.Events = r.Events
		entry.Functions = r.Functions
		entry.Problems = r.Problems
		return nil
	})
	switch {
	case err != nil:
		entry.Status = "error"
		entry.Error = err.Error()
	case len(entry.Problems) > 0:
		entry.Status = "problems"
	default:
		entry.Status = "ok"
	}
	return toJSON(entry)
}

// historyOutput is the c_history result.
type historyOutput struct {
	Stats  *store.Stats      `json:"stats"`
	Scans  []store.Scan      `json:"scans"`
	Failed []store.FileEntry `json:"failed,omitempty"`
}

func (s *Server) executeHistory(limit int) (string, error) {
	stats, err := s.store.GetStats()
	if err != nil {
		return "", err
	}
	scans, err := s.store.GetScans(limit)
	if err != nil {
		return "", err
	}
	failed, err := s.store.GetFailedFiles()
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	if scans == nil {
		scans = []store.Scan{}
	}
	return toJSON(historyOutput{Stats: stats, Scans: scans, Failed: failed})
}

// Helper functions

func toJSON(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
