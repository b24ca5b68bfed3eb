// Package bdd wires suite manifests, the example runner and the reporters
// into a command line lifecycle.
package bdd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/op-bdd/exitcodes"
	"github.com/ethereum-optimism/infra/op-bdd/mocks"
	"github.com/ethereum-optimism/infra/op-bdd/registry"
	"github.com/ethereum-optimism/infra/op-bdd/reporting"
	"github.com/ethereum-optimism/infra/op-bdd/runner"
	"github.com/ethereum-optimism/infra/op-bdd/service"
	"github.com/ethereum-optimism/infra/op-bdd/types"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
)

// app implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &app{}

type app struct {
	config   *Config
	version  string
	registry *registry.Registry
	runner   runner.Runner
	summary  *reporting.SummarySink
	result   *runner.RunnerResult
	service  *service.Service

	formatter        ResultFormatter
	metricsReporter  MetricsReporter
	shutdownCallback func(error)

	running atomic.Bool
}

// New loads the configured suites and prepares a single run over them.
func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*app, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if shutdownCallback == nil {
		shutdownCallback = func(error) {}
	}

	config.Log.Debug("Creating op-bdd with config",
		"suites", config.SuiteFiles,
		"focus", config.Focus,
		"logDir", config.LogDir)

	reg, err := registry.NewRegistry(registry.Config{
		Log:        config.Log,
		SuiteFiles: config.SuiteFiles,
		Shell:      config.Shell,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	summary := reporting.NewSummarySink(config.LogDir)
	exampleRunner, err := runner.NewRunner(runner.Config{
		Suites:   reg.Suites(),
		Globals:  reg.Globals(config.BeforeCmd, config.FinallyCmd),
		Mocks:    mocks.NewRegistry(),
		Reporter: reporting.Multi{reporting.NewLogReporter(config.Log), summary},
		Focus:    config.Focus,
		Log:      config.Log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create example runner: %w", err)
	}
	config.Log.Info("op-bdd.New: created registry and example runner", "suites", len(reg.Suites()))

	return &app{
		config:           config,
		version:          version,
		registry:         reg,
		runner:           exampleRunner,
		summary:          summary,
		formatter:        NewConsoleResultFormatter(config.Log, os.Stdout),
		metricsReporter:  NewDefaultMetricsReporter(),
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start runs every example once. Failed examples are reported as an
// ExampleFailureError.
// Start implements the cliapp.Lifecycle interface.
func (a *app) Start(ctx context.Context) error {
	a.running.Store(true)
	a.config.Log.Info("Starting op-bdd", "version", a.version)

	if a.config.Metrics.Enabled {
		a.service = service.New(service.DefaultConfig(a.config.Metrics.ListenAddr, a.config.Metrics.ListenPort), a.config.Log)
		a.service.Start(ctx)
	}

	if err := a.runExamples(ctx); err != nil {
		a.config.Log.Error("Runtime error running examples", "error", err)
		return cli.Exit(err.Error(), exitcodes.RuntimeErr)
	}

	if a.result.Status == types.ExampleStatusFailure {
		a.config.Log.Warn("Run completed with failures", "failed", a.result.Stats.Failed)
		return NewExampleFailureError(a.result.String())
	}

	go func() {
		a.shutdownCallback(nil)
	}()
	return nil
}

// runExamples runs all examples and processes the results. An interrupted
// run still reports the examples that finished.
func (a *app) runExamples(ctx context.Context) error {
	a.config.Log.Info("Running all examples...")
	result, runErr := a.runner.RunAll(ctx)
	if result == nil {
		if runErr == nil {
			runErr = errors.New("runner returned no result")
		}
		return NewRuntimeError(runErr)
	}
	a.result = result
	a.processResult(result)
	if runErr != nil {
		return NewRuntimeError(runErr)
	}
	return nil
}

// processResult writes the summary, prints the table and records run metrics
func (a *app) processResult(result *runner.RunnerResult) {
	path, err := a.summary.Complete(result.RunID)
	if err != nil {
		a.config.Log.Error("Failed to write run summary", "error", err)
	} else {
		a.config.Log.Info("Run summary written", "path", path)
	}

	if err := a.formatter.FormatResults(result); err != nil {
		a.config.Log.Error("Failed to format results", "error", err)
	}
	a.metricsReporter.ReportResults(result)
	a.config.Log.Info("Example run completed", "run_id", result.RunID, "status", result.Status)
}

// Stop stops the metrics and health servers.
// Stop implements the cliapp.Lifecycle interface.
func (a *app) Stop(ctx context.Context) error {
	a.config.Log.Info("Stopping op-bdd")
	if !a.running.Load() {
		a.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}
	a.running.Store(false)

	if a.service != nil {
		a.service.Shutdown()
	}
	a.config.Log.Info("op-bdd stopped")
	return nil
}

// Stopped implements the cliapp.Lifecycle interface.
func (a *app) Stopped() bool {
	return !a.running.Load()
}

// Result returns the result of the last run, nil before Start.
func (a *app) Result() *runner.RunnerResult {
	return a.result
}
