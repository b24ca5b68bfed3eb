package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	bdd "github.com/ethereum-optimism/infra/op-bdd"
	"github.com/ethereum-optimism/infra/op-bdd/flags"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

// otlpEndpointEnv enables trace export when set
const otlpEndpointEnv = "OTEL_EXPORTER_OTLP_ENDPOINT"

func main() {
	app := newApp()

	if os.Getenv(otlpEndpointEnv) != "" {
		shutdown, err := otelconfig.ConfigureOpenTelemetry(
			otelconfig.WithServiceName(app.Name),
			otelconfig.WithServiceVersion(app.Version),
		)
		if err != nil {
			log.Crit("Failed to setup open telemetry", "message", err)
		}
		defer shutdown()
	}

	ctx := ctxinterrupt.WithSignalWaiterMain(context.Background())
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "op-bdd"
	app.Usage = "Behaviour-driven example runner"
	app.Description = "op-bdd runs the examples declared in suite manifests and reports their outcomes"
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Action = cliapp.LifecycleCmd(run)
	app.ExitErrHandler = handleExitErr
	return app
}

// handleExitErr maps errors to exit codes: runtime errors exit with 2,
// failed examples and anything else with 1.
func handleExitErr(c *cli.Context, err error) {
	if err == nil {
		return
	}
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		cli.HandleExitCoder(exitErr)
		return
	}
	cli.HandleExitCoder(cli.Exit(err.Error(), bdd.ExitCode(err)))
}

func run(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	logCfg := oplog.ReadCLIConfig(ctx)
	log := oplog.NewLogger(oplog.AppOut(ctx), logCfg)
	oplog.SetGlobalLogHandler(log.Handler())
	oplog.SetupDefaults()

	cfg, err := bdd.NewConfig(ctx, log)
	if err != nil {
		return nil, bdd.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}
	cfg.Log.Debug("Config", "config", cfg)

	app, err := bdd.New(ctx.Context, cfg, Version, closeApp)
	if err != nil {
		return nil, bdd.NewRuntimeError(fmt.Errorf("failed to create op-bdd: %w", err))
	}
	return app, nil
}
