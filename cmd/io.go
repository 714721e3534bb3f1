package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/xkilldash9x/runeforge/internal/catalog"
	"github.com/xkilldash9x/runeforge/internal/config"
	"github.com/xkilldash9x/runeforge/internal/observability"
	"github.com/xkilldash9x/runeforge/internal/reporting"
	"github.com/xkilldash9x/runeforge/internal/source"
	"github.com/xkilldash9x/runeforge/internal/stackerr"
)

// readInput reads path, or stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path != source.Stdio {
		return source.Read(path)
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, &stackerr.IoError{Op: "read", Path: "stdin", Err: err}
	}
	return data, nil
}

// loadRules returns the embedded catalog when path is empty.
func loadRules(path string) (*catalog.RulesDocument, error) {
	if path == "" {
		return catalog.DefaultRules()
	}
	data, err := source.Read(path)
	if err != nil {
		return nil, err
	}
	return catalog.Load(data)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// outputMode is the resolved styling for one destination.
type outputMode struct {
	color    bool
	terminal bool
	width    int
}

// resolveOutput decides color and terminal styling for output going to w.
// Files never get terminal styling.
func resolveOutput(out config.OutputConfig, w io.Writer, toFile bool) outputMode {
	tty := !toFile && isTerminal(w)

	m := outputMode{terminal: tty, width: terminalWidth(w)}
	switch out.Color {
	case "always":
		m.color = true
	case "never":
		m.color = false
	default:
		_, noColor := os.LookupEnv("NO_COLOR")
		m.color = tty && !noColor
	}
	return m
}

func (m outputMode) options() []reporting.Option {
	return []reporting.Option{
		reporting.WithColor(m.color),
		reporting.WithTerminal(m.terminal),
		reporting.WithWidth(m.width),
	}
}

// emit writes data to path, or to w when path is empty or "-".
func emit(w io.Writer, path string, data []byte) error {
	if path == "" || path == source.Stdio {
		if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
			return &stackerr.IoError{Op: "write", Path: "stdout", Err: err}
		}
		return nil
	}
	return source.Write(path, data)
}

// writeMetrics exports m to path. A .json extension selects JSON, anything
// else the Prometheus text format.
func writeMetrics(m *observability.Metrics, path string) error {
	write := m.WritePrometheus
	if strings.EqualFold(filepath.Ext(path), ".json") {
		write = m.WriteJSON
	}
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return fmt.Errorf("failed to export metrics: %w", err)
	}
	return source.Write(path, buf.Bytes())
}
