package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hargabyte/cevents/internal/mcp"
)

func TestNormalizeToolName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"events", "c_events"},
		{"c_events", "c_events"},
		{"signatures", "c_signatures"},
		{"check", "c_check"},
		{"history", "c_history"},
		{"nonexistent", "c_nonexistent"},
	}

	for _, tt := range tests {
		got := normalizeToolName(tt.input)
		if got != tt.want {
			t.Errorf("normalizeToolName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCallCmdRequiresToolOrFlag(t *testing.T) {
	// runCall with no args and no flags should error
	err := runCall(callCmd, []string{})
	if err == nil {
		t.Error("runCall with no args should return error")
	}
}

func TestRunCallPipe(t *testing.T) {
	root := t.TempDir()
	srv, err := mcp.New(mcp.Config{
		Root:      root,
		StorePath: filepath.Join(root, ".cevents", "events.db"),
		Tools:     mcp.AllTools,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	defer srv.Close()

	in := strings.Join([]string{
		`{"tool":"events","args":{"source":"void f() {}","tags":"ExitFunction"}}`,
		``,
		`not json`,
		`{"tool":"c_compile"}`,
		`{"tool":"history"}`,
	}, "\n")

	var out bytes.Buffer
	if err := runCallPipe(srv, strings.NewReader(in), &out); err != nil {
		t.Fatalf("pipe: %v", err)
	}

	var responses []pipeResponse
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var resp pipeResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			t.Fatalf("decode %q: %v", scanner.Text(), err)
		}
		responses = append(responses, resp)
	}

	if len(responses) != 4 {
		t.Fatalf("expected 4 responses (blank lines skipped), got %d", len(responses))
	}
	if responses[0].Error != "" || !strings.Contains(string(responses[0].Result), `"void f"`) {
		t.Errorf("events response = %+v", responses[0])
	}
	if !strings.Contains(responses[1].Error, "invalid JSON") {
		t.Errorf("expected invalid JSON error, got %+v", responses[1])
	}
	if !strings.Contains(responses[2].Error, "unknown tool") {
		t.Errorf("expected unknown tool error, got %+v", responses[2])
	}
	if responses[3].Error != "" || len(responses[3].Result) == 0 {
		t.Errorf("history response = %+v", responses[3])
	}
}
