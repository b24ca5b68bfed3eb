package registry

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-bdd/types"
)

const (
	// DefaultShell runs every manifest script as `<shell> -c <script>`
	DefaultShell = "sh"

	// failedExitCode marks a failed check rather than a broken script
	failedExitCode = 1

	// tailLines bounds the output quoted in failure messages
	tailLines = 20

	// waitDelay bounds the wait for output pipes held open by children of a
	// killed script
	waitDelay = 2 * time.Second
)

var nonIdentChars = regexp.MustCompile(`[^A-Z0-9_]`)

// Output is what a finished script produced
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Shell runs manifest scripts
type Shell struct {
	path string
	dir  string
	log  log.Logger
}

// NewShell creates a shell running scripts from dir
func NewShell(path, dir string, logger log.Logger) *Shell {
	if path == "" {
		path = DefaultShell
	}
	if logger == nil {
		logger = log.New()
	}
	return &Shell{path: path, dir: dir, log: logger}
}

// Exec runs script with the process environment extended by vars. A script
// killed by a signal ends with an exit signal; any exit code is reported in
// the output.
func (s *Shell) Exec(ctx context.Context, script string, vars map[string]string) (*Output, error) {
	cmd := exec.CommandContext(ctx, s.path, "-c", script)
	cmd.WaitDelay = waitDelay
	cmd.Dir = s.dir
	cmd.Env = os.Environ()
	for k, v := range vars {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	s.log.Debug("Running script", "shell", s.path, "dir", s.dir, "script", script)
	err := cmd.Run()
	out := &Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return out, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return nil, fmt.Errorf("failed to run script: %w", err)
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return nil, types.Exit(fmt.Sprintf("signal: %s", ws.Signal()))
	}
	out.ExitCode = exitErr.ExitCode()
	s.log.Debug("Script exited", "code", out.ExitCode, "stderr", tail(out.Stderr))
	return out, nil
}

// check turns a non-zero exit code into an error. Exit code 1 is a failed
// check; any other code is a broken script.
func (o *Output) check(script string) error {
	switch o.ExitCode {
	case 0:
		return nil
	case failedExitCode:
		return types.Fail(o.failureMessage(script))
	default:
		return fmt.Errorf("script %q exited with code %d: %s", script, o.ExitCode, o.failureMessage(script))
	}
}

func (o *Output) failureMessage(script string) string {
	if msg := tail(o.Stderr); msg != "" {
		return msg
	}
	if msg := tail(o.Stdout); msg != "" {
		return msg
	}
	return fmt.Sprintf("script %q failed", script)
}

// Value is the trimmed stdout
func (o *Output) Value() string {
	return strings.TrimSpace(o.Stdout)
}

// Contribution parses KEY=VALUE lines of stdout into a context contribution.
// Keys are lower-cased; other lines are ignored.
func (o *Output) Contribution() types.Context {
	var contribution types.Context
	scanner := bufio.NewScanner(strings.NewReader(o.Stdout))
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok || key == "" || strings.ContainsAny(key, " \t") {
			continue
		}
		if contribution == nil {
			contribution = types.Context{}
		}
		contribution[strings.ToLower(key)] = value
	}
	return contribution
}

func tail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > tailLines {
		lines = lines[len(lines)-tailLines:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// envName maps a context key or let name to an environment variable name
func envName(key string) string {
	return nonIdentChars.ReplaceAllString(strings.ToUpper(key), "_")
}

// contextVars exports every context value as an environment variable
func contextVars(ctx types.Context) map[string]string {
	vars := make(map[string]string, len(ctx))
	for _, k := range ctx.Keys() {
		vars[envName(k)] = fmt.Sprint(ctx[k])
	}
	return vars
}

// referenced reports whether script expands the variable name
func referenced(script, name string) bool {
	return strings.Contains(script, "$"+name) || strings.Contains(script, "${"+name+"}")
}

// envVars exports the context of env plus every let the script references.
// Lets are resolved lazily, so unreferenced lets are never evaluated.
func envVars(env *types.Env, script string) (map[string]string, error) {
	vars := contextVars(env.Context())
	for _, name := range env.LetNames() {
		key := envName(name)
		if !referenced(script, key) {
			continue
		}
		v, err := env.Let(name)
		if err != nil {
			return nil, err
		}
		vars[key] = fmt.Sprint(v)
	}
	return vars, nil
}
