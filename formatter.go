package bdd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/op-bdd/runner"
	"github.com/ethereum-optimism/infra/op-bdd/types"
)

// ResultFormatter is responsible for formatting and displaying run results.
type ResultFormatter interface {
	FormatResults(result *runner.RunnerResult) error
}

// ConsoleResultFormatter renders run results as a table.
type ConsoleResultFormatter struct {
	logger log.Logger
	out    io.Writer
}

// NewConsoleResultFormatter creates a new ConsoleResultFormatter writing to
// out, stdout when nil.
func NewConsoleResultFormatter(logger log.Logger, out io.Writer) *ConsoleResultFormatter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleResultFormatter{
		logger: logger,
		out:    out,
	}
}

// FormatResults formats and displays the run results.
func (f *ConsoleResultFormatter) FormatResults(result *runner.RunnerResult) error {
	f.logger.Info("Printing results...")
	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	t.SetTitle(fmt.Sprintf("Example Results (%s)", formatDuration(result.Duration)))

	t.AppendHeader(table.Row{
		"Type", "ID", "Duration", "Examples", "Succeeded", "Failed", "Pending", "Status", "Error",
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Type", AutoMerge: true},
		{Name: "ID", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Examples", Align: text.AlignRight},
		{Name: "Succeeded", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Pending", Align: text.AlignRight},
		{Name: "Error", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, s := range result.Suites {
		t.AppendRow(table.Row{
			"Suite",
			s.ID,
			formatDuration(s.Duration),
			"-", // a suite is not an example
			s.Stats.Succeeded,
			s.Stats.Failed,
			s.Stats.Pending,
			getResultString(s.Status),
			"",
		})

		for i, ex := range s.Examples {
			prefix := "├─"
			if i == len(s.Examples)-1 {
				prefix = "└─"
			}
			t.AppendRow(table.Row{
				"",
				fmt.Sprintf("%s %s", prefix, ex.FullName()),
				formatDuration(ex.Duration),
				"1",
				boolToInt(ex.Status == types.ExampleStatusSuccess),
				boolToInt(ex.Status == types.ExampleStatusFailure),
				boolToInt(ex.Status == types.ExampleStatusPending),
				getResultString(ex.Status),
				extractKeyErrorMessage(ex),
			})
		}
		t.AppendSeparator()
	}

	switch result.Status {
	case types.ExampleStatusSuccess:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	case types.ExampleStatusPending:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		formatDuration(result.Duration),
		result.Stats.Total,
		result.Stats.Succeeded,
		result.Stats.Failed,
		result.Stats.Pending,
		getResultString(result.Status),
		"",
	})

	t.Render()
	_, err := fmt.Fprintln(f.out, result.String())
	return err
}

// extractKeyErrorMessage returns the first line of a failure, or the message
// of a pending example
func extractKeyErrorMessage(ex *types.Example) string {
	switch {
	case ex.Status == types.ExampleStatusFailure && ex.Error != nil:
		msg, _, _ := strings.Cut(ex.Error.Message, "\n")
		return msg
	case ex.Status == types.ExampleStatusPending && ex.Result != nil:
		return fmt.Sprint(ex.Result)
	}
	return ""
}

// Helper function to format duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
