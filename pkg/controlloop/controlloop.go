// SPDX-License-Identifier: BSD-3-Clause

package controlloop

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hyperfan/hyperfand/pkg/bus"
	"github.com/hyperfan/hyperfand/pkg/curve"
	"github.com/hyperfan/hyperfand/pkg/enumerate"
	"github.com/hyperfan/hyperfand/pkg/fingerprint"
	"github.com/hyperfan/hyperfand/pkg/model"
	"github.com/hyperfan/hyperfand/pkg/persistence"
	"github.com/hyperfan/hyperfand/pkg/svc"
	"github.com/hyperfan/hyperfand/pkg/sysfsgw"
)

var _ svc.Service = (*Loop)(nil)

// Loop is the daemon's single control-loop service (spec.md §4.6). One Loop
// drives every binding; there is exactly one per daemon instance.
type Loop struct {
	config   *config
	gateway  *sysfsgw.Gateway
	fpEngine *fingerprint.Engine
	store    *persistence.Store
	platform enumerate.PlatformEnumerator
	logger   *slog.Logger

	mu         sync.RWMutex
	curves     map[string]model.Curve
	runtimes   map[string]*bindingRuntime // keyed by binding ID
	overrides  *overrideTable
	reload     atomic.Bool
	reloadWake chan struct{} // buffered 1, woken by SignalReload
	iterations uint64

	nc         *nats.Conn
	lastStates map[string]model.ValidationState // keyed by binding ID
}

// New builds a Loop. curves is the initial curve set loaded from C8;
// platform is the OS-specific chip enumerator used for periodic
// revalidation (nil disables it, e.g. in tests).
func New(gw *sysfsgw.Gateway, fpEngine *fingerprint.Engine, store *persistence.Store, platform enumerate.PlatformEnumerator, logger *slog.Logger, curves map[string]model.Curve, opts ...Option) *Loop {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt.apply(cfg)
	}
	if logger == nil {
		logger = slog.Default()
	}

	l := &Loop{
		config:     cfg,
		gateway:    gw,
		fpEngine:   fpEngine,
		store:      store,
		platform:   platform,
		logger:     logger,
		curves:     curves,
		runtimes:   make(map[string]*bindingRuntime),
		overrides:  newOverrideTable(),
		reloadWake: make(chan struct{}, 1),
		lastStates: make(map[string]model.ValidationState),
	}
	l.rebuildRuntimes()
	return l
}

// Name implements svc.Service.
func (l *Loop) Name() string { return "controlloop" }

// SignalReload requests that the loop reload settings and curves from the
// persistence layer, waking it immediately rather than waiting for the
// next poll-interval tick (spec.md §4.6 step 6).
func (l *Loop) SignalReload() {
	l.reload.Store(true)
	select {
	case l.reloadWake <- struct{}{}:
	default:
	}
}

// SetOverride installs a transient override, preempting curve control for
// one PWM path until it expires (spec.md §3 Override, invariant I3 callers
// must have already passed IPC validation).
func (l *Loop) SetOverride(o model.Override) {
	l.overrides.Set(o)
}

// ClearOverride removes any live override for pwmPath.
func (l *Loop) ClearOverride(pwmPath string) {
	l.overrides.Clear(pwmPath)
}

// Run implements svc.Service: runs the loop until ctx is canceled.
func (l *Loop) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	tracer := otel.Tracer("hyperfand/controlloop")

	nc, err := nats.Connect("", nats.InProcessServer(ipcConn))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEventBusConnectFailed, err)
	}
	l.nc = nc
	defer nc.Drain() //nolint:errcheck

	l.logger.InfoContext(ctx, "starting control loop", "poll_interval", l.config.pollInterval)

	// Startup: one immediate iteration so fans converge to curve targets
	// promptly, per spec.md §4.6.
	l.runIteration(ctx, tracer)

	ticker := time.NewTicker(l.config.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.InfoContext(ctx, "stopping control loop")
			return ctx.Err()
		case <-ticker.C:
			l.tickAndMaybeReset(ctx, tracer, ticker)
		case <-l.reloadWake:
			l.tickAndMaybeReset(ctx, tracer, ticker)
		}
	}
}

// tickAndMaybeReset runs one iteration and restarts ticker against the
// current poll interval, so an early wake from SignalReload (which may
// itself have changed the interval) doesn't leave the next tick scheduled
// off a stale one.
func (l *Loop) tickAndMaybeReset(ctx context.Context, tracer trace.Tracer, ticker *time.Ticker) {
	l.runIteration(ctx, tracer)
	ticker.Reset(l.config.pollInterval)
}

func (l *Loop) runIteration(ctx context.Context, tracer trace.Tracer) {
	ctx, span := tracer.Start(ctx, "controlloop.iteration")
	defer span.End()

	now := time.Now()
	l.iterations++
	span.SetAttributes(attribute.Int64("controlloop.iteration", int64(l.iterations)))

	if l.iterations%RevalidateEveryIterations == 0 {
		l.revalidate(ctx, now)
	}

	if l.reload.CompareAndSwap(true, false) {
		if err := l.reloadConfig(ctx); err != nil {
			l.logger.WarnContext(ctx, "config reload failed, retaining previous configuration", "error", err)
		}
	}

	live := l.overrides.Sweep(now)
	overridden := make(map[string]bool, len(live))
	for _, o := range live {
		overridden[o.PWMPath] = true
		if err := l.gateway.WritePWM(ctx, o.PWMPath, o.Value); err != nil {
			l.logger.WarnContext(ctx, "override write failed", "path", o.PWMPath, "error", err)
		}
	}

	l.mu.RLock()
	bindings := append([]model.Binding(nil), l.fpEngine.Bindings()...)
	l.mu.RUnlock()

	l.publishStateTransitions(ctx, bindings)

	for i := range bindings {
		b := &bindings[i]
		if !b.State.DrivableByControlLoop() {
			l.applyFallback(ctx, b)
			continue
		}

		pwmPath, ok := l.fpEngine.ChannelHint(b.PWMChannelID)
		if !ok || pwmPath == "" {
			l.logger.WarnContext(ctx, "binding has no resolved pwm path", "binding", b.ID)
			continue
		}
		if overridden[pwmPath] {
			continue
		}

		l.driveBinding(ctx, b, pwmPath, now)
	}
}

func (l *Loop) driveBinding(ctx context.Context, b *model.Binding, pwmPath string, now time.Time) {
	l.mu.Lock()
	rt, ok := l.runtimes[b.ID]
	if !ok {
		rt = newBindingRuntime(l.curveForLocked(b.CurveID))
		l.runtimes[b.ID] = rt
	}
	l.mu.Unlock()

	tempPath, ok := l.fpEngine.ChannelHint(b.TempChannelID)
	if !ok || tempPath == "" {
		l.logger.WarnContext(ctx, "binding has no resolved temperature path", "binding", b.ID)
		l.applyFallback(ctx, b)
		return
	}

	millideg, err := l.gateway.ReadTempMillideg(ctx, tempPath)
	tempC := float64(millideg) / 1000.0
	if err != nil || !isFinite(tempC) {
		l.logger.WarnContext(ctx, "temperature read failed", "binding", b.ID, "path", tempPath, "error", err)
		l.applyFallback(ctx, b)
		return
	}

	percent, err := rt.engine.Calculate(now, tempC)
	if err != nil {
		l.logger.WarnContext(ctx, "curve evaluation failed", "binding", b.ID, "error", err)
		l.applyFallback(ctx, b)
		return
	}

	pwm := model.PWMFromPercent(percent)

	wantEnable := 1
	if pwm.Raw == 0 {
		wantEnable = 0
	}
	if rt.lastEnableMode != wantEnable {
		if err := l.gateway.SetPWMEnable(ctx, enablePath(pwmPath), wantEnable); err != nil {
			l.logger.WarnContext(ctx, "pwm enable write failed", "binding", b.ID, "path", pwmPath, "error", err)
		} else {
			rt.lastEnableMode = wantEnable
		}
	}

	if err := l.gateway.WritePWM(ctx, pwmPath, pwm.Raw); err != nil {
		rt.consecutiveErr++
		l.logger.WarnContext(ctx, "pwm write failed", "binding", b.ID, "path", pwmPath, "error", err, "consecutive", rt.consecutiveErr)
		if rt.consecutiveErr >= ConsecutiveWriteFailureThreshold {
			l.applyFallback(ctx, b)
		}
		return
	}
	rt.consecutiveErr = 0
}

// applyFallback writes the safe fallback duty cycle instead of curve output.
// It always uses model.DefaultSafeFallback (FullSpeed); a PWM channel's own
// Fallback field is not consulted.
func (l *Loop) applyFallback(ctx context.Context, b *model.Binding) {
	pwmPath, ok := l.fpEngine.ChannelHint(b.PWMChannelID)
	if !ok || pwmPath == "" {
		return
	}

	fallback := model.DefaultSafeFallback()
	var percent float64
	switch fallback.Kind {
	case model.FallbackFullSpeed:
		percent = 100
	case model.FallbackFixedPercent:
		percent = fallback.Percent
	case model.FallbackLastKnownGood, model.FallbackHandOffFirmware:
		return // leave hardware as-is; nothing safe to write here
	default:
		percent = 100
	}

	pwm := model.PWMFromPercent(percent)
	if err := l.gateway.WritePWM(ctx, pwmPath, pwm.Raw); err != nil {
		l.logger.ErrorContext(ctx, "fallback pwm write failed", "binding", b.ID, "path", pwmPath, "error", err)
	}
}

func (l *Loop) revalidate(ctx context.Context, now time.Time) {
	if l.platform == nil {
		return
	}
	snapshot, err := enumerate.Gather(ctx, l.platform, l.gateway, l.logger)
	if err != nil {
		l.logger.WarnContext(ctx, "periodic revalidation enumeration failed", "error", err)
		return
	}

	report, err := l.fpEngine.Revalidate(ctx, snapshot, now)
	if err != nil {
		l.logger.WarnContext(ctx, "periodic revalidation failed", "error", err)
		return
	}
	if len(report.Entries) > 0 {
		l.logger.InfoContext(ctx, "hardware drift detected", report.LogValue()...)
		l.publishDrift(ctx, now, report)
	}

	if err := l.store.SaveBindings(*l.fpEngine.BindingStore()); err != nil {
		l.logger.WarnContext(ctx, "failed to persist revalidated bindings", "error", err)
	}
}

// publishDrift emits report on bus.SubjectDrift. The IPC server subscribes
// only to bus.SubjectBindingState, so no subsystem of this daemon consumes
// these events.
func (l *Loop) publishDrift(ctx context.Context, now time.Time, report fingerprint.DriftReport) {
	if l.nc == nil {
		return
	}
	data, err := json.Marshal(bus.DriftEvent{DetectedAt: now, Entries: report.Entries})
	if err != nil {
		l.logger.WarnContext(ctx, "failed to marshal drift event", "error", err)
		return
	}
	if err := l.nc.Publish(bus.SubjectDrift, data); err != nil {
		l.logger.WarnContext(ctx, "failed to publish drift event", "error", err)
	}
}

// publishStateTransitions emits a bus.BindingStateEvent for every binding
// whose ValidationState changed since the previous iteration, so the IPC
// server can keep a live pairing cache without taking the fingerprint
// engine's lock on every request.
func (l *Loop) publishStateTransitions(ctx context.Context, bindings []model.Binding) {
	for _, b := range bindings {
		prev, known := l.lastStates[b.ID]
		l.lastStates[b.ID] = b.State
		if known && prev == b.State {
			continue
		}
		if l.nc == nil {
			continue
		}
		data, err := json.Marshal(bus.BindingStateEvent{Binding: b, Previous: prev})
		if err != nil {
			l.logger.WarnContext(ctx, "failed to marshal binding state event", "error", err)
			continue
		}
		if err := l.nc.Publish(bus.SubjectBindingState, data); err != nil {
			l.logger.WarnContext(ctx, "failed to publish binding state event", "binding", b.ID, "error", err)
		}
	}
}

func (l *Loop) reloadConfig(ctx context.Context) error {
	settings, err := l.store.LoadSettings()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	curveStore, err := l.store.LoadCurves()
	if err != nil {
		return fmt.Errorf("load curves: %w", err)
	}

	l.mu.Lock()
	l.curves = curveStore.Curves
	l.mu.Unlock()
	l.rebuildRuntimes()

	if settings.PollIntervalMS > 0 {
		d := time.Duration(settings.PollIntervalMS) * time.Millisecond
		if d < MinPollInterval {
			d = MinPollInterval
		}
		l.config.pollInterval = d
	}

	l.logger.InfoContext(ctx, "configuration reloaded", "curves", len(l.curves))
	return nil
}

// rebuildRuntimes resets every binding's curve engine, per spec.md §4.5
// reset() semantics ("required whenever a curve's points change").
func (l *Loop) rebuildRuntimes() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, rt := range l.runtimes {
		rt.engine.Rebind(l.curveForLocked(l.bindingCurveID(id)))
	}
}

func (l *Loop) bindingCurveID(bindingID string) string {
	for _, b := range l.fpEngine.Bindings() {
		if b.ID == bindingID {
			return b.CurveID
		}
	}
	return ""
}

func (l *Loop) curveForLocked(curveID string) model.Curve {
	if c, ok := l.curves[curveID]; ok {
		return c
	}
	return curve.Balanced()
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func enablePath(pwmPath string) string {
	return pwmPath + "_enable"
}
