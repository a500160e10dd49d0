package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hargabyte/cevents/internal/config"
	"github.com/hargabyte/cevents/internal/mcp"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP server for AI agent integration",
	Long: `Start an MCP (Model Context Protocol) server so agents can transduce C
sources and query the event log through MCP tools instead of spawning CLI
commands.

Available Tools:
  c_events      Event stream of a file or inline snippet
  c_signatures  Reconstructed function signatures
  c_check       Determinism and balance check of one file
  c_history     Recent scans and failed files

The default tool set comes from serve.tools in the config.`,
	Example: `  cevents serve --mcp                         # Start with configured tools
  cevents serve --mcp --tools events,check    # Start with specific tools only
  cevents serve --mcp --timeout 30m           # Auto-stop after 30 minutes idle
  cevents serve --status                      # Check if server is running
  cevents serve --stop                        # Stop running server
  cevents serve --list-tools                  # Show available tools`,
	RunE: runServe,
}

var (
	serveMCP       bool
	serveTools     string
	serveTimeout   string
	serveStatus    bool
	serveStop      bool
	serveListTools bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "Start MCP server (stdio transport)")
	serveCmd.Flags().StringVar(&serveTools, "tools", "", "Comma-separated list of tools to expose (default: serve.tools)")
	serveCmd.Flags().StringVar(&serveTimeout, "timeout", "30m", "Inactivity timeout (0 for no timeout)")
	serveCmd.Flags().BoolVar(&serveStatus, "status", false, "Check if server is running")
	serveCmd.Flags().BoolVar(&serveStop, "stop", false, "Stop running server")
	serveCmd.Flags().BoolVar(&serveListTools, "list-tools", false, "List available tools")
}

func runServe(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if serveListTools {
		fmt.Fprintln(out, "Available MCP tools:")
		fmt.Fprintln(out)
		for _, name := range mcp.AllTools {
			fmt.Fprintf(out, "  %-14s\n", name)
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Default set: %s\n", strings.Join(mcp.DefaultTools, ", "))
		return nil
	}

	if serveStatus {
		return checkServerStatus(cmd)
	}
	if serveStop {
		return stopServer(cmd)
	}

	if !serveMCP {
		return fmt.Errorf("use --mcp to start the MCP server, or --help for usage")
	}

	timeout, err := parseDuration(serveTimeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	cfg, root, err := loadConfig()
	if err != nil {
		return err
	}

	tools := parseToolList(serveTools)
	if len(tools) == 0 {
		tools = cfg.Serve.Tools
	}

	server, err := mcp.New(mcp.Config{
		Root:      root,
		StorePath: cfg.StorePath(root),
		Tools:     tools,
		Timeout:   timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Close()

	if err := writePIDFile(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not write PID file: %v\n", err)
	}
	defer removePIDFile()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintf(os.Stderr, "\ncevents serve: shutting down\n")
		server.Close()
		removePIDFile()
		os.Exit(0)
	}()

	// stdout carries the MCP protocol
	fmt.Fprintf(os.Stderr, "cevents serve: starting MCP server\n")
	fmt.Fprintf(os.Stderr, "cevents serve: tools: %v\n", server.ListTools())
	if timeout > 0 {
		fmt.Fprintf(os.Stderr, "cevents serve: timeout: %v\n", timeout)
	}

	return server.ServeStdio()
}

// parseToolList splits a comma-separated tool list, accepting shorthand
// names ("events" for "c_events").
func parseToolList(list string) []string {
	var tools []string
	for _, t := range strings.Split(list, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tools = append(tools, normalizeToolName(t))
		}
	}
	return tools
}

func parseDuration(s string) (time.Duration, error) {
	if s == "0" || s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func getPIDFilePath() (string, error) {
	dir, err := config.FindConfigDir(".")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "serve.pid"), nil
}

func writePIDFile() error {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return err
	}
	return os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func removePIDFile() {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return
	}
	os.Remove(pidPath)
}

// readPID returns the pid recorded by a running server, or 0.
func readPID() int {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return 0
	}
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}

// findServer returns the running server process, removing a stale PID file.
func findServer() *os.Process {
	pid := readPID()
	if pid == 0 {
		return nil
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		removePIDFile()
		return nil
	}
	// FindProcess always succeeds on Unix; signal 0 checks for the process
	if err := process.Signal(syscall.Signal(0)); err != nil {
		removePIDFile()
		return nil
	}
	return process
}

func checkServerStatus(cmd *cobra.Command) error {
	process := findServer()
	if process == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Status: not running")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Status: running (PID %d)\n", process.Pid)
	return nil
}

func stopServer(cmd *cobra.Command) error {
	process := findServer()
	if process == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No server running")
		return nil
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("stopping server: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stopped server (PID %d)\n", process.Pid)
	return nil
}
