package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInit_WritesBothSinks(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	closer, err := Init(Options{Verbose: true, Dir: dir, Console: &console})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer func() { log.Logger = zerolog.New(os.Stderr) }()

	log.Debug().Str("jql", "project = P").Msg("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if !strings.Contains(console.String(), "hello") {
		t.Errorf("console output %q missing message", console.String())
	}

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), `"jql":"project = P"`) {
		t.Errorf("log file %q missing structured field", data)
	}
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Errorf("level = %v, want debug", zerolog.GlobalLevel())
	}
}

func TestInit_UnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Init(Options{Dir: filepath.Join(file, "logs")}); err == nil {
		t.Error("expected an error for a log dir below a regular file")
	}
}
