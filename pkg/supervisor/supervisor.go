// SPDX-License-Identifier: BSD-3-Clause

package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cirello.io/oversight/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"golang.org/x/sys/unix"

	"github.com/hyperfan/hyperfand/pkg/bus"
	"github.com/hyperfan/hyperfand/pkg/controlloop"
	"github.com/hyperfan/hyperfand/pkg/curve"
	"github.com/hyperfan/hyperfand/pkg/ecio"
	"github.com/hyperfan/hyperfand/pkg/enumerate"
	"github.com/hyperfan/hyperfand/pkg/fingerprint"
	"github.com/hyperfan/hyperfand/pkg/ipcserver"
	"github.com/hyperfan/hyperfand/pkg/model"
	"github.com/hyperfan/hyperfand/pkg/obslog"
	"github.com/hyperfan/hyperfand/pkg/pathguard"
	"github.com/hyperfan/hyperfand/pkg/persistence"
	"github.com/hyperfan/hyperfand/pkg/process"
	"github.com/hyperfan/hyperfand/pkg/prober"
	"github.com/hyperfan/hyperfand/pkg/svc"
	"github.com/hyperfan/hyperfand/pkg/sysfsgw"
)

// Supervisor runs the daemon's startup sequence and then hands its
// subsystems to a restart-tree for the rest of the process's life.
type Supervisor struct {
	config *config
}

// New builds a Supervisor. Logging defaults to obslog.NewDefault when
// WithLogger isn't used.
func New(opts ...Option) *Supervisor {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt.apply(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = obslog.NewDefault()
	}
	return &Supervisor{config: cfg}
}

// Run executes the startup sequence and then blocks, supervising the
// daemon's subsystems, until ctx is canceled.
func (s *Supervisor) Run(ctx context.Context) error {
	l := s.config.logger

	sanitizeEnvironment(l)

	dir, err := s.resolveConfigDir()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfigDir, err)
	}
	l.InfoContext(ctx, "resolved configuration directory", "dir", dir)
	store := persistence.New(dir)

	settings, err := store.LoadSettings()
	if err != nil {
		return err
	}
	fpStore, err := store.LoadFingerprints()
	if err != nil {
		return err
	}
	bindingStore, err := store.LoadBindings()
	if err != nil {
		return err
	}
	curveStore, err := store.LoadCurves()
	if err != nil {
		return err
	}
	if len(curveStore.Curves) == 0 {
		balanced := curve.Balanced()
		balanced.ID = uuid.NewString()
		curveStore.Curves = map[string]model.Curve{balanced.ID: balanced}
		if err := store.SaveCurves(curveStore); err != nil {
			l.WarnContext(ctx, "failed to persist default curve", "error", err)
		}
	}

	fpEngine := fingerprint.New(&fpStore, &bindingStore)

	guard := pathguard.New(pathguard.DefaultHwmonAllowlist()...)
	gw := sysfsgw.New(guard)
	platform := enumerate.NewLinuxEnumerator(enumerate.DefaultHwmonRoot, gw)

	if err := s.correctDrift(ctx, l, platform, gw, fpEngine, store, &fpStore, &bindingStore); err != nil {
		return fmt.Errorf("%w: %w", ErrHardwareDiscovery, err)
	}

	s.applySafeBaseline(ctx, l, gw, fpEngine, bindingStore)

	eventBus := bus.New(l)

	loop := controlloop.New(gw, fpEngine, store, platform, l, curveStore.Curves,
		controlloop.WithPollInterval(time.Duration(settings.PollIntervalMS)*time.Millisecond))

	pr := prober.New(gw)

	var ec *ecio.Reader
	if settings.ECDirectControl {
		if _, statErr := os.Stat(s.config.ecIOPath); statErr == nil {
			ec = ecio.New(s.config.ecIOPath, func() bool { return settings.ECAcknowledged })
		} else {
			l.WarnContext(ctx, "ec direct control enabled but debugfs interface not present", "path", s.config.ecIOPath)
		}
	}

	var ipcOpts []ipcserver.Option
	if s.config.ipcSocketPath != "" {
		ipcOpts = append(ipcOpts, ipcserver.WithSocketPath(s.config.ipcSocketPath))
	}
	if s.config.allowedGroup != "" {
		ipcOpts = append(ipcOpts, ipcserver.WithAllowedGroup(s.config.allowedGroup))
	}
	if settings.RateLimitPerWindow > 0 {
		ipcOpts = append(ipcOpts, ipcserver.WithRateLimit(settings.RateLimitPerWindow))
	}
	server := ipcserver.New(gw, guard, fpEngine, store, loop, pr, platform, ec, l, ipcOpts...)

	tree := oversight.New(
		oversight.NeverHalt(),
		oversight.DefaultRestartStrategy(),
		oversight.WithLogger(obslog.NewOversightLogger(l)),
	)

	if err := addChild(tree, eventBus, nil, s.config.oversightTimeout); err != nil {
		return err
	}
	conn := eventBus.ConnProvider()
	if err := addChild(tree, loop, conn, s.config.oversightTimeout); err != nil {
		return err
	}
	if err := addChild(tree, server, conn, s.config.oversightTimeout); err != nil {
		return err
	}

	l.InfoContext(ctx, "starting supervision tree")
	return tree.Start(ctx)
}

func addChild(tree *oversight.Tree, s svc.Service, conn nats.InProcessConnProvider, timeout time.Duration) error {
	if err := tree.Add(process.New(s, conn), oversight.Transient(), oversight.Timeout(timeout), s.Name()); err != nil {
		return fmt.Errorf("%w %s: %w", ErrAddProcess, s.Name(), err)
	}
	return nil
}

func (s *Supervisor) resolveConfigDir() (string, error) {
	if s.config.configDirOverride != "" {
		return s.config.configDirOverride, nil
	}
	return persistence.ResolveConfigDir()
}

// correctDrift runs one hardware enumeration and fingerprint revalidation
// pass, persisting whatever chip/channel identities and binding states
// result. This is the startup-time half of spec.md's drift-correction
// requirement; the periodic half runs inside the control loop.
func (s *Supervisor) correctDrift(ctx context.Context, l *slog.Logger, platform enumerate.PlatformEnumerator, gw *sysfsgw.Gateway, fpEngine *fingerprint.Engine, store *persistence.Store, fpStore *model.FingerprintStore, bindingStore *model.BindingStore) error {
	snapshot, err := enumerate.Gather(ctx, platform, gw, l)
	if err != nil {
		return err
	}

	report, err := fpEngine.Revalidate(ctx, snapshot, time.Now())
	if err != nil {
		return err
	}
	if len(report.Entries) > 0 {
		l.InfoContext(ctx, "hardware drift detected at startup", "drift", report)
	}

	if err := store.SaveFingerprints(*fpStore); err != nil {
		return err
	}
	if err := store.SaveBindings(*bindingStore); err != nil {
		return err
	}
	return nil
}

// applySafeBaseline puts every drivable binding's PWM into manual mode at
// FallbackPreConfigPercent before curves take over, so there's never a
// window where a fan is left on its pre-daemon firmware default (which may
// be "off") while the control loop is still starting up.
func (s *Supervisor) applySafeBaseline(ctx context.Context, l *slog.Logger, gw *sysfsgw.Gateway, fpEngine *fingerprint.Engine, bindingStore model.BindingStore) {
	baseline := model.PWMFromPercent(controlloop.FallbackPreConfigPercent)

	for _, b := range bindingStore.Bindings {
		if !b.State.DrivableByControlLoop() {
			continue
		}
		pwmPath, ok := fpEngine.ChannelHint(b.PWMChannelID)
		if !ok || pwmPath == "" {
			continue
		}
		if err := gw.SetPWMEnable(ctx, pwmPath+"_enable", 1); err != nil {
			l.WarnContext(ctx, "failed to set manual mode during baseline init", "binding", b.ID, "error", err)
			continue
		}
		if err := gw.WritePWM(ctx, pwmPath, baseline.Raw); err != nil {
			l.WarnContext(ctx, "failed to write baseline duty cycle", "binding", b.ID, "error", err)
		}
	}
}

// environmentAllowlist is every variable the daemon itself reads —
// persistence.ResolveConfigDir's inputs, plus PATH for the NVIDIA vendor
// backend's subprocess calls. Everything else inherited from the invoking
// shell is cleared before any subsystem starts.
var environmentAllowlist = []string{"XDG_CONFIG_HOME", "HOME", "SUDO_USER", "PKEXEC_UID", "PATH"}

// sanitizeEnvironment hardens the process before any subsystem starts:
// clears inherited environment variables the daemon doesn't itself read,
// disables core dumps (register contents would otherwise leak to disk),
// and restricts the umask for any files the daemon itself creates.
func sanitizeEnvironment(l *slog.Logger) {
	keep := make(map[string]string, len(environmentAllowlist))
	for _, name := range environmentAllowlist {
		if v, ok := os.LookupEnv(name); ok {
			keep[name] = v
		}
	}
	os.Clearenv()
	for name, v := range keep {
		os.Setenv(name, v)
	}

	unix.Umask(0o077)

	if err := unix.Setrlimit(unix.RLIMIT_CORE, &unix.Rlimit{Cur: 0, Max: 0}); err != nil {
		l.Warn("failed to disable core dumps", "error", err)
	}
}
