package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-bdd/expect"
	"github.com/ethereum-optimism/infra/op-bdd/runner"
	"github.com/ethereum-optimism/infra/op-bdd/suite"
	"github.com/ethereum-optimism/infra/op-bdd/types"
)

// Registry loads suite manifests and turns them into example trees
type Registry struct {
	config Config
	shell  *Shell
	suites []*suite.Scope
	mu     sync.RWMutex
}

// Config contains registry configuration
type Config struct {
	Log        log.Logger
	SuiteFiles []string
	// Shell runs every script, DefaultShell when empty
	Shell string
	// WorkDir is where scripts run. It defaults to the directory of the
	// first suite file.
	WorkDir string
}

// NewRegistry creates a new registry instance
func NewRegistry(cfg Config) (*Registry, error) {
	if len(cfg.SuiteFiles) == 0 {
		return nil, fmt.Errorf("at least one suite file is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = filepath.Dir(cfg.SuiteFiles[0])
	}

	r := &Registry{
		config: cfg,
		shell:  NewShell(cfg.Shell, cfg.WorkDir, cfg.Log),
	}
	for _, path := range cfg.SuiteFiles {
		if err := r.loadSuite(path); err != nil {
			return nil, fmt.Errorf("failed to load suite %s: %w", path, err)
		}
	}

	cfg.Log.Debug("Registry loaded", "len(suites)", len(r.suites))
	return r, nil
}

func (r *Registry) loadSuite(path string) error {
	r.config.Log.Debug("Reading suite manifest", "path", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.suites = append(r.suites, Build(m, r.shell))
	return nil
}

// Suites returns the loaded suites in file order
func (r *Registry) Suites() []*suite.Scope {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*suite.Scope(nil), r.suites...)
}

// Globals turns the global before and finally scripts into hooks. Empty
// scripts configure no hook.
func (r *Registry) Globals(before, finally string) runner.Globals {
	var globals runner.Globals
	if before != "" {
		globals.Before = hookFunc(r.shell, before)
	}
	if finally != "" {
		globals.Finally = hookFunc(r.shell, finally)
	}
	return globals
}

// GetConfig returns the registry configuration
func (r *Registry) GetConfig() Config {
	return r.config
}

// Build declares the example tree of m. Scripts run through shell.
func Build(m *Manifest, shell *Shell) *suite.Scope {
	return suite.Describe(m.Describe, func(s *suite.Scope) {
		populate(s, m, shell)
	}, scopeOptions(m)...)
}

func populate(s *suite.Scope, m *Manifest, shell *Shell) {
	for _, c := range m.Before {
		if c.Name != "" {
			s.BeforeNamed(c.Name, hookFunc(shell, c.Run))
		} else {
			s.Before(hookFunc(shell, c.Run))
		}
	}
	for _, l := range m.Let {
		if l.Eager {
			s.LetNow(l.Name, letFunc(shell, l.Run))
		} else {
			s.Let(l.Name, letFunc(shell, l.Run))
		}
	}
	for _, c := range m.Finally {
		if c.Name != "" {
			s.FinallyNamed(c.Name, hookFunc(shell, c.Run))
		} else {
			s.Finally(hookFunc(shell, c.Run))
		}
	}
	for _, ex := range m.Examples {
		var body types.BodyFunc
		if ex.Run != "" {
			body = bodyFunc(shell, ex.Run, ex.Expect)
		}
		s.It(ex.It, body, markOptions(ex.Skip, ex.Pending, ex.Tags)...)
	}
	for i := range m.Contexts {
		child := &m.Contexts[i]
		s.Context(child.Describe, func(s *suite.Scope) {
			populate(s, child, shell)
		}, scopeOptions(child)...)
	}
}

func scopeOptions(m *Manifest) []suite.Option {
	return markOptions(m.Skip, m.Pending, m.Tags)
}

func markOptions(skip, pending Mark, tags map[string]any) []suite.Option {
	var opts []suite.Option
	if skip.Enabled {
		opts = append(opts, suite.Skip(skip.Reason))
	}
	if pending.Enabled {
		opts = append(opts, suite.Pending(pending.Reason))
	}
	for k, v := range tags {
		opts = append(opts, suite.Tag(k, v))
	}
	return opts
}

// hookFunc runs a before, finally or global script. Its KEY=VALUE output
// lines are merged into the shared context. The script is killed with the
// run.
func hookFunc(shell *Shell, script string) types.HookFunc {
	return func(ctx context.Context, shared types.Context) (types.Context, error) {
		out, err := shell.Exec(ctx, script, contextVars(shared))
		if err != nil {
			return nil, err
		}
		if err := out.check(script); err != nil {
			return nil, err
		}
		return out.Contribution(), nil
	}
}

// letFunc evaluates a let script, whose value is its trimmed output
func letFunc(shell *Shell, script string) types.LetFunc {
	return func(env *types.Env) (any, error) {
		vars, err := envVars(env, script)
		if err != nil {
			return nil, err
		}
		out, err := shell.Exec(env.Ctx(), script, vars)
		if err != nil {
			return nil, err
		}
		if err := out.check(script); err != nil {
			return nil, err
		}
		return out.Value(), nil
	}
}

// bodyFunc runs an example script. Its result is the trimmed output.
func bodyFunc(shell *Shell, script string, want *ExpectSpec) types.BodyFunc {
	return func(env *types.Env) (any, error) {
		vars, err := envVars(env, script)
		if err != nil {
			return nil, err
		}
		out, err := shell.Exec(env.Ctx(), script, vars)
		if err != nil {
			return nil, err
		}

		if want != nil && want.ExitCode != nil {
			if err := expect.Equal(*want.ExitCode, out.ExitCode); err != nil {
				return nil, err
			}
		} else if err := out.check(script); err != nil {
			return nil, err
		}

		if want != nil && want.Stdout != nil {
			if err := expect.Equal(*want.Stdout, out.Value()); err != nil {
				return nil, err
			}
		}
		return out.Value(), nil
	}
}
