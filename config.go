package bdd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/op-bdd/flags"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

// Config holds the application configuration
type Config struct {
	SuiteFiles []string // Absolute paths of the suite manifests
	Focus      string   // Only examples whose ID or name contains Focus run
	BeforeCmd  string   // Script run before every example
	FinallyCmd string   // Script run after every example
	LogDir     string   // Directory to store run summaries
	Shell      string   // Shell running manifest scripts
	Metrics    opmetrics.CLIConfig
	Log        log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	suites := ctx.StringSlice(flags.Suite.Name)
	if len(suites) == 0 {
		return nil, errors.New("at least one suite manifest is required")
	}
	absSuites := make([]string, 0, len(suites))
	for _, s := range suites {
		abs, err := filepath.Abs(s)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for suite '%s': %w", s, err)
		}
		absSuites = append(absSuites, abs)
	}

	// Get log directory, default to "logs" if not specified
	logDir := ctx.String(flags.LogDir.Name)
	if logDir == "" {
		logDir = "logs"
	}
	logDir, err := filepath.Abs(logDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for log directory '%s': %w", logDir, err)
	}

	shell := ctx.String(flags.Shell.Name)
	if shell == "" {
		return nil, errors.New("shell must not be empty")
	}

	metricsCfg := opmetrics.ReadCLIConfig(ctx)
	if err := metricsCfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid metrics config: %w", err)
	}

	return &Config{
		SuiteFiles: absSuites,
		Focus:      ctx.String(flags.Focus.Name),
		BeforeCmd:  ctx.String(flags.BeforeCmd.Name),
		FinallyCmd: ctx.String(flags.FinallyCmd.Name),
		LogDir:     logDir,
		Shell:      shell,
		Metrics:    metricsCfg,
		Log:        log,
	}, nil
}
