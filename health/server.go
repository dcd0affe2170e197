package health

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/push"
	"golang.org/x/sync/errgroup"

	"amptimal.dev/svc/errors"
)

// ErrAlreadyStarted is returned by [Server.Start] when the server is
// not in the Stopped state.
var ErrAlreadyStarted = errors.New("health: server already started")

// State is the lifecycle state of a [Server].
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	}
	return "unknown"
}

// Server owns a background listener serving the health routes of
// [NewHandler] so the owning service's main control flow never blocks
// on them. Lifecycle: Stopped → Starting → Running → Stopping →
// Stopped, driven only by Start and Stop.
type Server struct {
	service string
	addr    string
	metrics *Metrics
	opts    options
	handler http.Handler

	mu      sync.Mutex
	state   State
	httpSrv *http.Server
	ln      net.Listener
	eg      *errgroup.Group
	cancel  context.CancelFunc
}

// NewServer creates a health server for the given service, listen
// address and metric set. The server does not listen until Start.
func NewServer(service, addr string, m *Metrics, opts ...Option) *Server {
	o := buildOptions(opts)
	return &Server{
		service: service,
		addr:    addr,
		metrics: m,
		opts:    o,
		handler: NewHandler(service, m, opts...),
	}
}

// Start binds the listener and begins serving on a background
// goroutine, returning once the listener is bound. It only succeeds
// from the Stopped state; calling it while the server is running
// returns [ErrAlreadyStarted] without binding a second listener. A bind
// failure is returned to the caller and leaves the server Stopped.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateStopped {
		return ErrAlreadyStarted
	}
	s.state = StateStarting

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.state = StateStopped
		return errors.Wrap(err, "health: bind failed").With("addr", s.addr)
	}
	s.ln = ln

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.httpSrv = &http.Server{
		Handler:  s.handler,
		ErrorLog: slog.NewLogLogger(s.opts.logger.Handler(), slog.LevelError),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	s.eg = &errgroup.Group{}
	s.eg.Go(func() error {
		if err := s.httpSrv.Serve(ln); err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	s.state = StateRunning
	s.opts.logger.Info("health server started", "addr", ln.Addr().String())
	return nil
}

// Stop closes the listener and waits for in-flight requests up to the
// configured grace period, after which remaining connections are
// forcibly closed. If a pushgateway URL is configured, the final metric
// state is pushed before returning. Stop from Stopped is a no-op.
func (s *Server) Stop() error {
	// Transition under the lock, then release it for the drain so State
	// and Addr stay responsive during the grace period.
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return nil
	}
	s.state = StateStopping
	httpSrv, eg, cancelBase := s.httpSrv, s.eg, s.cancel
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.stopTimeout)
	defer cancel()
	shutdownErr := httpSrv.Shutdown(ctx)
	if shutdownErr != nil {
		// Grace period expired; abandon what's left.
		httpSrv.Close()
	}
	serveErr := eg.Wait()
	cancelBase()

	if s.opts.pushURL != "" {
		if err := push.New(s.opts.pushURL, s.service).Gatherer(s.metrics.Gatherer()).Add(); err != nil {
			s.opts.logger.Error("failed to push metrics to pushgateway", "err", err)
		}
	}

	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()
	s.opts.logger.Info("health server stopped")
	if shutdownErr != nil {
		return shutdownErr
	}
	return serveErr
}

// State reports the current lifecycle state.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Addr returns the bound listen address while the server is running,
// which is useful when the configured address uses port 0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}
