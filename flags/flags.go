package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	opflags "github.com/ethereum-optimism/optimism/op-service/flags"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

const EnvVarPrefix = "OP_BDD"

var (
	Suite = &cli.StringSliceFlag{
		Name:     "suite",
		Required: true,
		EnvVars:  opservice.PrefixEnvVar(EnvVarPrefix, "SUITE"),
		Usage:    "Path to a suite manifest (eg. 'checkout.yaml'). May be repeated.",
	}
	Focus = &cli.StringFlag{
		Name:    "focus",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FOCUS"),
		Usage:   "Only run examples whose ID or full name contains this text",
	}
	BeforeCmd = &cli.StringFlag{
		Name:    "before-cmd",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "BEFORE_CMD"),
		Usage:   "Script run before every example. KEY=VALUE output lines are added to the shared context.",
	}
	FinallyCmd = &cli.StringFlag{
		Name:    "finally-cmd",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FINALLY_CMD"),
		Usage:   "Script run after every example, whatever its outcome",
	}
	LogDir = &cli.StringFlag{
		Name:    "log-dir",
		Value:   "logs",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LOG_DIR"),
		Usage:   "Directory the run summaries are written to",
	}
	Shell = &cli.StringFlag{
		Name:    "shell",
		Value:   "sh",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SHELL"),
		Usage:   "Shell running manifest scripts as '<shell> -c <script>'",
	}
)

var requiredFlags = []cli.Flag{
	Suite,
}

var optionalFlags = []cli.Flag{
	Focus,
	BeforeCmd,
	FinallyCmd,
	LogDir,
	Shell,
}
var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return opflags.CheckRequiredXor(ctx)
}
