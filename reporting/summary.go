package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/acarl005/stripansi"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ethereum-optimism/infra/op-bdd/types"
)

const (
	// RunDirectoryPrefix prefixes the directory holding the files of one run
	RunDirectoryPrefix = "testrun-"
	// SummaryFileName is the name of the summary written for every run
	SummaryFileName = "summary.log"
)

// SummarySink collects finished examples and writes a plain text summary
type SummarySink struct {
	baseDir  string
	mu       sync.Mutex
	examples []*types.Example
}

var _ Reporter = (*SummarySink)(nil)

// NewSummarySink creates a sink writing summaries below baseDir
func NewSummarySink(baseDir string) *SummarySink {
	return &SummarySink{baseDir: baseDir}
}

// ExampleFinished implements Reporter
func (s *SummarySink) ExampleFinished(ex *types.Example) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.examples = append(s.examples, ex)
}

// Examples returns the collected examples in the order they finished
func (s *SummarySink) Examples() []*types.Example {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*types.Example(nil), s.examples...)
}

// Path returns where the summary of runID is written
func (s *SummarySink) Path(runID string) string {
	return filepath.Join(s.baseDir, RunDirectoryPrefix+runID, SummaryFileName)
}

// Complete writes the summary of runID and returns its path
func (s *SummarySink) Complete(runID string) (string, error) {
	path := s.Path(runID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(s.Format(runID)), 0644); err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}
	return path, nil
}

// Format renders the summary without ANSI escapes
func (s *SummarySink) Format(runID string) string {
	examples := s.Examples()
	counts := make(map[types.ExampleStatus]int)
	for _, ex := range examples {
		counts[ex.Status]++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s\n", runID)
	fmt.Fprintf(&b, "Total: %d, %s: %d, %s: %d, %s: %d\n\n",
		len(examples),
		title(types.ExampleStatusSuccess), counts[types.ExampleStatusSuccess],
		title(types.ExampleStatusFailure), counts[types.ExampleStatusFailure],
		title(types.ExampleStatusPending), counts[types.ExampleStatusPending])

	for _, ex := range examples {
		fmt.Fprintf(&b, "[%s] %s (%s)\n", title(ex.Status), ex.FullName(), formatDuration(ex.Duration))
		switch {
		case ex.Status == types.ExampleStatusFailure && ex.Error != nil:
			b.WriteString(indent(ex.Error.Message, "    "))
		case ex.Status == types.ExampleStatusPending:
			fmt.Fprintf(&b, "    %v\n", ex.Result)
		}
	}
	return stripansi.Strip(b.String())
}

// title renders a status as a title. A Caser is stateful, so each call gets
// its own.
func title(status types.ExampleStatus) string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(status), "_", " "))
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}

func indent(s, prefix string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		b.WriteString(prefix)
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
