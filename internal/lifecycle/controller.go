// Package lifecycle sequences startup (artifact, engine, listener) and the
// bounded graceful drain on shutdown.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"nllbd/internal/artifact"
	"nllbd/internal/engine"
	"nllbd/pkg/types"
)

// DefaultDrainTimeout bounds how long admitted requests may run after a
// termination signal.
const DefaultDrainTimeout = 5 * time.Second

// ErrShutdownTimeout reports that in-flight requests were abandoned because
// the drain window elapsed.
var ErrShutdownTimeout = errors.New("shutdown timed out; in-flight requests abandoned")

// Ensurer produces a ready artifact directory.
type Ensurer interface {
	Ensure(ctx context.Context, modelID, dir string) (artifact.Artifact, error)
}

// EngineLoader loads the engine from a ready artifact.
type EngineLoader interface {
	Load(ctx context.Context, art artifact.Artifact, opts engine.ComputeOptions) error
	Close() error
}

// Gate is the request handler's admission state.
type Gate interface {
	MarkServing() bool
	BeginDrain() bool
	WaitIdle(ctx context.Context) error
	MarkStopped()
	State() types.LifecycleState
}

// Transport serves requests on a bound listener.
type Transport interface {
	Serve(lis net.Listener) error
	Shutdown(ctx context.Context) error
	Close() error
}

// servingSetter is implemented by transports that publish health themselves.
type servingSetter interface {
	SetServing(bool)
}

// Config wires the collaborators of a Controller.
type Config struct {
	ModelID     string
	ArtifactDir string
	Compute     engine.ComputeOptions
	// Addr is host:port; an IPv6 wildcard host accepts IPv4 clients too.
	Addr         string
	DrainTimeout time.Duration

	Cache     Ensurer
	Engine    EngineLoader
	Gate      Gate
	Transport Transport
	Logger    zerolog.Logger
}

// Controller drives one serve cycle. It is not reusable after Run returns.
type Controller struct {
	cfg Config
	log zerolog.Logger

	ready     chan struct{}
	addr      atomic.Value // net.Addr
	stopOnce  sync.Once
	stopCh    chan struct{}
	abandon   context.Context
	abandonFn context.CancelFunc
}

// New validates cfg and returns a Controller.
func New(cfg Config) (*Controller, error) {
	if cfg.Cache == nil || cfg.Engine == nil || cfg.Gate == nil || cfg.Transport == nil {
		return nil, errors.New("lifecycle: cache, engine, gate and transport are required")
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = DefaultDrainTimeout
	}
	abandon, cancel := context.WithCancel(context.Background())
	return &Controller{
		cfg:       cfg,
		log:       cfg.Logger,
		ready:     make(chan struct{}),
		stopCh:    make(chan struct{}),
		abandon:   abandon,
		abandonFn: cancel,
	}, nil
}

// Ready is closed once the listener is bound and requests are admitted.
func (c *Controller) Ready() <-chan struct{} { return c.ready }

// Addr returns the bound listener address, or nil before Ready.
func (c *Controller) Addr() net.Addr {
	if a, ok := c.addr.Load().(net.Addr); ok {
		return a
	}
	return nil
}

// State reports the current lifecycle state.
func (c *Controller) State() types.LifecycleState { return c.cfg.Gate.State() }

// AbandonContext is canceled when the drain window elapses. Transports derive
// request contexts from it so abandoned work stops.
func (c *Controller) AbandonContext() context.Context { return c.abandon }

// Stop begins draining. Calling it again, or after Run returned, does nothing.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// Run performs startup in order and blocks until ctx is canceled or Stop is
// called, then drains. Startup failures are returned before anything listens.
func (c *Controller) Run(ctx context.Context) error {
	defer c.abandonFn()
	start := time.Now()

	c.log.Info().Str("model", c.cfg.ModelID).Str("dir", c.cfg.ArtifactDir).Msg("ensuring artifact")
	art, err := c.cfg.Cache.Ensure(ctx, c.cfg.ModelID, c.cfg.ArtifactDir)
	if err != nil {
		c.cfg.Gate.MarkStopped()
		return fmt.Errorf("ensure artifact: %w", err)
	}
	c.log.Info().Bool("converted", art.Converted).Int64("size_bytes", art.SizeBytes).Msg("artifact ready")

	if err := c.cfg.Engine.Load(ctx, art, c.cfg.Compute); err != nil {
		c.cfg.Gate.MarkStopped()
		return fmt.Errorf("load engine: %w", err)
	}
	c.log.Info().Msg("engine loaded")

	lis, err := c.listen(ctx)
	if err != nil {
		_ = c.cfg.Engine.Close()
		c.cfg.Gate.MarkStopped()
		return fmt.Errorf("listen %s: %w", c.cfg.Addr, err)
	}
	c.addr.Store(lis.Addr())

	c.cfg.Gate.MarkServing()
	if hs, ok := c.cfg.Transport.(servingSetter); ok {
		hs.SetServing(true)
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- c.cfg.Transport.Serve(lis) }()
	close(c.ready)
	c.log.Info().Str("addr", lis.Addr().String()).Dur("startup", time.Since(start)).Msg("serving")

	select {
	case <-ctx.Done():
	case <-c.stopCh:
	case err := <-serveErr:
		c.cfg.Gate.BeginDrain()
		_ = c.cfg.Engine.Close()
		c.cfg.Gate.MarkStopped()
		if err == nil {
			err = errors.New("transport stopped unexpectedly")
		}
		return fmt.Errorf("serve: %w", err)
	}
	return c.drain(serveErr)
}

// drain stops admission, waits for admitted requests within DrainTimeout and
// tears down the transport and engine.
func (c *Controller) drain(serveErr <-chan error) error {
	c.cfg.Gate.BeginDrain()
	if hs, ok := c.cfg.Transport.(servingSetter); ok {
		hs.SetServing(false)
	}
	c.log.Info().Dur("timeout", c.cfg.DrainTimeout).Msg("draining")

	dctx, cancel := context.WithTimeout(context.Background(), c.cfg.DrainTimeout)
	defer cancel()
	shutErr := c.cfg.Transport.Shutdown(dctx)
	idleErr := c.cfg.Gate.WaitIdle(dctx)

	if shutErr != nil || idleErr != nil {
		c.abandonFn()
		_ = c.cfg.Transport.Close()
		<-serveErr
		c.cfg.Gate.MarkStopped()
		c.log.Error().AnErr("transport", shutErr).AnErr("requests", idleErr).Msg("drain window elapsed")
		// The engine may still be running an abandoned batch; the process exits anyway.
		return ErrShutdownTimeout
	}
	<-serveErr
	if err := c.closeEngine(dctx); err != nil {
		if dctx.Err() != nil {
			c.abandonFn()
			c.cfg.Gate.MarkStopped()
			c.log.Error().Err(err).Msg("engine did not close within the drain window")
			return ErrShutdownTimeout
		}
		c.log.Warn().Err(err).Msg("engine close")
	}
	c.cfg.Gate.MarkStopped()
	c.log.Info().Msg("stopped")
	return nil
}

// closeEngine releases the engine, giving up when ctx ends first.
func (c *Controller) closeEngine(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- c.cfg.Engine.Close() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// listen binds cfg.Addr. When the IPv6 wildcard is unavailable the IPv4
// wildcard is used instead.
func (c *Controller) listen(ctx context.Context) (net.Listener, error) {
	var lc net.ListenConfig
	lis, err := lc.Listen(ctx, "tcp", c.cfg.Addr)
	if err == nil {
		return lis, nil
	}
	host, port, splitErr := net.SplitHostPort(c.cfg.Addr)
	if splitErr != nil || host != "::" {
		return nil, err
	}
	c.log.Warn().Err(err).Msg("IPv6 wildcard unavailable; falling back to 0.0.0.0")
	return lc.Listen(ctx, "tcp", net.JoinHostPort("0.0.0.0", port))
}
