// SPDX-License-Identifier: BSD-3-Clause

package supervisor

import (
	"log/slog"
	"time"
)

const (
	// DefaultOversightTimeout bounds how long the supervision tree waits
	// for a child to exit during a restart before declaring it stuck.
	DefaultOversightTimeout = 10 * time.Second

	// DefaultECIOPath is the debugfs raw register interface used when
	// direct embedded-controller access is enabled (spec.md §4.8).
	DefaultECIOPath = "/sys/kernel/debug/ec/ec0/io"
)

type config struct {
	logger            *slog.Logger
	oversightTimeout  time.Duration
	configDirOverride string
	ecIOPath          string
	ipcSocketPath     string
	allowedGroup      string
}

// Option configures a Supervisor.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithLogger overrides the default stderr logger built by pkg/obslog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *config) { c.logger = l })
}

// WithOversightTimeout overrides how long the restart tree waits for a
// child to exit before it's considered stuck.
func WithOversightTimeout(d time.Duration) Option {
	return optionFunc(func(c *config) {
		if d > 0 {
			c.oversightTimeout = d
		}
	})
}

// WithConfigDir overrides persistence.ResolveConfigDir's autodetection,
// e.g. for tests or for an operator who wants a fixed location regardless
// of which user invoked the daemon.
func WithConfigDir(dir string) Option {
	return optionFunc(func(c *config) { c.configDirOverride = dir })
}

// WithECIOPath overrides the embedded-controller debugfs path probed for
// direct register access.
func WithECIOPath(path string) Option {
	return optionFunc(func(c *config) { c.ecIOPath = path })
}

// WithIPCSocketPath overrides the Unix socket path the IPC server binds.
func WithIPCSocketPath(path string) Option {
	return optionFunc(func(c *config) { c.ipcSocketPath = path })
}

// WithAllowedGroup names the POSIX group (besides root) permitted to
// connect to the IPC socket.
func WithAllowedGroup(group string) Option {
	return optionFunc(func(c *config) { c.allowedGroup = group })
}

func defaultConfig() *config {
	return &config{
		oversightTimeout: DefaultOversightTimeout,
		ecIOPath:         DefaultECIOPath,
	}
}
