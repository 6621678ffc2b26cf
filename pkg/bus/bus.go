// SPDX-License-Identifier: BSD-3-Clause

package bus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hyperfan/hyperfand/pkg/svc"
)

var _ svc.Service = (*Bus)(nil)

// Bus is an embedded, non-listening NATS server used only for in-process
// publish/subscribe between the daemon's own subsystems.
type Bus struct {
	config *config
	logger *slog.Logger
	server *server.Server
}

// New builds a Bus. logger is used for the embedded server's own log
// output; it is distinct from the logger subsystems use for their own
// messages.
func New(logger *slog.Logger, opts ...Option) *Bus {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return &Bus{config: cfg, logger: logger}
}

// Name implements svc.Service.
func (b *Bus) Name() string { return "bus" }

// Run implements svc.Service: starts the embedded server and blocks until
// ctx is canceled.
func (b *Bus) Run(ctx context.Context, _ nats.InProcessConnProvider) error {
	tracer := otel.Tracer("hyperfand/bus")
	ctx, span := tracer.Start(ctx, "bus.Run")
	defer span.End()

	opts := &server.Options{
		ServerName: b.config.serverName,
		DontListen: true,
		NoLog:      true,
		NoSigs:     true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrServerCreationFailed, err)
	}
	b.server = ns

	b.logger.InfoContext(ctx, "starting internal event bus", "server_name", b.config.serverName)
	b.server.Start()

	if !b.server.ReadyForConnections(b.config.startupTimeout) {
		b.server.Shutdown()
		return ErrServerTimeout
	}
	span.SetAttributes(attribute.String("bus.server_name", b.config.serverName))

	<-ctx.Done()

	b.logger.InfoContext(ctx, "stopping internal event bus")
	b.server.Shutdown()
	b.server.WaitForShutdown()
	return ctx.Err()
}

// ConnProvider returns a connection provider other subsystems use to dial
// the bus in-process.
func (b *Bus) ConnProvider() *ConnProvider {
	return &ConnProvider{bus: b}
}
