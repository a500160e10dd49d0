package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hargabyte/cevents/internal/mcp"
)

var (
	callList bool
	callPipe bool
)

var callCmd = &cobra.Command{
	Use:   "call [tool] [json-args]",
	Short: "Call an MCP tool directly from the command line",
	Long: `Call any cevents MCP tool with structured JSON input and output, without
starting a server.

Modes:
  cevents call --list                        List all tools and parameters
  cevents call <tool> '{"key":"value"}'      Call a tool with JSON args
  cevents call --pipe                        Read JSON lines from stdin

Tool names accept shorthand: "events" is equivalent to "c_events".`,
	Example: `  cevents call --list
  cevents call events '{"file":"src/add.c","histogram":true}'
  cevents call signatures '{}'
  cevents call check '{"file":"src/main.c"}'
  echo '{"tool":"c_events","args":{"source":"void f() {}"}}' | cevents call --pipe`,
	Args: cobra.MaximumNArgs(2),
	RunE: runCall,
}

func init() {
	rootCmd.AddCommand(callCmd)
	callCmd.Flags().BoolVar(&callList, "list", false, "List all available tools and their parameters")
	callCmd.Flags().BoolVar(&callPipe, "pipe", false, "Read JSON lines from stdin (pipe mode)")
}

func runCall(cmd *cobra.Command, args []string) error {
	if callList {
		return runCallList(cmd)
	}
	if !callPipe && len(args) == 0 {
		return fmt.Errorf("tool name required (run 'cevents call --list' to see available tools)")
	}

	srv, err := newCallServer()
	if err != nil {
		return err
	}
	defer srv.Close()

	if callPipe {
		return runCallPipe(srv, cmd.InOrStdin(), cmd.OutOrStdout())
	}
	return runCallSingle(cmd, srv, args)
}

// newCallServer builds a server with every tool for the current project.
func newCallServer() (*mcp.Server, error) {
	cfg, root, err := loadConfig()
	if err != nil {
		return nil, err
	}
	srv, err := mcp.New(mcp.Config{
		Root:      root,
		StorePath: cfg.StorePath(root),
		Tools:     mcp.AllTools,
	})
	if err != nil {
		return nil, fmt.Errorf("create server: %w", err)
	}
	return srv, nil
}

func runCallList(cmd *cobra.Command) error {
	srv, err := newCallServer()
	if err != nil {
		return err
	}
	defer srv.Close()

	return writeOutput(cmd, srv.GetToolSchemas())
}

func runCallSingle(cmd *cobra.Command, srv *mcp.Server, args []string) error {
	toolName := normalizeToolName(args[0])

	toolArgs := make(map[string]any)
	if len(args) >= 2 {
		if err := json.Unmarshal([]byte(args[1]), &toolArgs); err != nil {
			return fmt.Errorf("invalid JSON args: %w", err)
		}
	}

	result, err := srv.CallTool(toolName, toolArgs)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), result)
	return nil
}

// pipeRequest is the JSON format for pipe mode input.
type pipeRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// pipeResponse is the JSON format for pipe mode output.
type pipeResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// runCallPipe answers one JSON line per request line. Failures are reported
// in the response and do not stop the loop.
func runCallPipe(srv *mcp.Server, in io.Reader, out io.Writer) error {
	enc := json.NewEncoder(out)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var resp pipeResponse
		var req pipeRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			resp.Error = fmt.Sprintf("invalid JSON: %v", err)
		} else if req.Args == nil {
			req.Args = make(map[string]any)
		}

		if resp.Error == "" {
			result, err := srv.CallTool(normalizeToolName(req.Tool), req.Args)
			if err != nil {
				resp.Error = err.Error()
			} else if !json.Valid([]byte(result)) {
				b, _ := json.Marshal(result)
				resp.Result = b
			} else {
				resp.Result = json.RawMessage(result)
			}
		}

		if err := enc.Encode(resp); err != nil {
			return err
		}
	}

	return scanner.Err()
}

// normalizeToolName converts shorthand names to full tool names.
// "events" -> "c_events", "c_events" -> "c_events"
func normalizeToolName(name string) string {
	if !strings.HasPrefix(name, "c_") {
		return "c_" + name
	}
	return name
}
