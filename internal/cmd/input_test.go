package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hargabyte/cevents/internal/parser"
	"github.com/hargabyte/cevents/internal/transducer"
)

const missingSemicolon = "int main() { return 1 }"

func TestSyntaxErrorsNameTheFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.c")
	if err := os.WriteFile(path, []byte(missingSemicolon), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		cmd  *cobra.Command
		run  func(*cobra.Command, []string) error
	}{
		{"events", eventsCmd, runEvents},
		{"tree", treeCmd, runTree},
		{"ast", astCmd, runAST},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run(tt.cmd, []string{path})
			if err == nil {
				t.Fatal("expected syntax error")
			}
			var pe *parser.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if pe.File != path || !strings.HasPrefix(err.Error(), path+":1:") {
				t.Errorf("error = %q, want it to start with %q", err, path+":1:")
			}
		})
	}
}

func TestCheckFileNamesTheFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.c")
	if err := os.WriteFile(path, []byte(missingSemicolon), 0644); err != nil {
		t.Fatal(err)
	}
	tr, err := transducer.New()
	if err != nil {
		t.Fatalf("new transducer: %v", err)
	}
	defer tr.Close()

	entry := checkFile(&cobra.Command{}, tr, path)
	if entry.Status != "error" || !strings.HasPrefix(entry.Error, path+":1:") {
		t.Errorf("entry = %+v", entry)
	}
}

func TestInputTreeStdin(t *testing.T) {
	tr, err := transducer.New()
	if err != nil {
		t.Fatalf("new transducer: %v", err)
	}
	defer tr.Close()

	c := &cobra.Command{}
	c.SetIn(strings.NewReader("void f() {}"))
	root, err := inputTree(c, tr, "-")
	if err != nil {
		t.Fatalf("stdin: %v", err)
	}
	evs, err := transducer.Events(root)
	if err != nil || len(evs) != 4 {
		t.Errorf("events = %v, %v", evs, err)
	}

	c.SetIn(strings.NewReader(missingSemicolon))
	_, err = inputTree(c, tr, "-")
	var pe *parser.ParseError
	if !errors.As(err, &pe) || pe.File != "" {
		t.Errorf("stdin syntax error = %v", err)
	}
}

func TestWriteOutputLogsConfigError(t *testing.T) {
	defer func(l zerolog.Logger) { log.Logger = l }(log.Logger)
	defer func(p string) { configPath = p }(configPath)

	bad := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(bad, []byte("scan: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	configPath = bad

	var logs, out bytes.Buffer
	setupLogging(&logs, false)
	c := &cobra.Command{}
	c.SetOut(&out)
	if err := writeOutput(c, map[string]int{"events": 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(out.String(), "events: 1") {
		t.Errorf("output = %q", out.String())
	}
	if !strings.Contains(logs.String(), "ignoring config") || !strings.Contains(logs.String(), "parsing config file") {
		t.Errorf("logs = %q", logs.String())
	}
}
