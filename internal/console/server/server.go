// Package server runs the console in watch mode: the dashboard is refreshed on
// an interval while a small HTTP listener exposes probes and metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/patrolctl/internal/console/guard"
	"github.com/autopeer-io/patrolctl/internal/console/render"
	"github.com/autopeer-io/patrolctl/internal/console/session"
	"github.com/autopeer-io/patrolctl/internal/console/view"
	"github.com/autopeer-io/patrolctl/internal/pkg/metrics"
	"github.com/autopeer-io/patrolctl/pkg/log"
	"github.com/autopeer-io/patrolctl/pkg/options"
)

// Option configures a Watch.
type Option func(*Watch)

// WithClock replaces the clock driving the refresh interval.
func WithClock(c clock.WithTicker) Option {
	return func(w *Watch) { w.clock = c }
}

// Watch keeps the dashboard fresh until its context ends.
type Watch struct {
	clock     clock.WithTicker
	opts      *options.HttpOptions
	dashboard *view.DashboardView
	session   *session.Manager
	router    *view.Router
	printer   *render.Printer
	logger    log.Logger

	ready atomic.Bool

	// printMu serializes output of overlapping refreshes.
	printMu sync.Mutex

	mu      sync.Mutex
	current *view.Scope
}

func New(opts *options.HttpOptions, dashboard *view.DashboardView, s *session.Manager, printer *render.Printer, logger log.Logger, o ...Option) *Watch {
	w := &Watch{
		clock:     clock.RealClock{},
		opts:      opts,
		dashboard: dashboard,
		session:   s,
		router:    view.NewRouter(s, logger),
		printer:   printer,
		logger:    logger.WithName("watch"),
	}
	for _, opt := range o {
		opt(w)
	}
	return w
}

// Handler returns the probe and metrics router.
func (w *Watch) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/readyz", func(rw http.ResponseWriter, _ *http.Request) {
		if !w.ready.Load() {
			rw.WriteHeader(http.StatusServiceUnavailable)
			_, _ = rw.Write([]byte(string(session.Unauthenticated)))
			return
		}
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return r
}

// Run serves the listener and refreshes the dashboard until ctx ends. It
// returns nil on a clean shutdown.
func (w *Watch) Run(ctx context.Context) error {
	w.ready.Store(w.session.Authenticated())
	unsubscribe := w.session.Subscribe(func(t session.Transition) {
		w.ready.Store(t.To == session.Authenticated)
	})
	defer unsubscribe()

	ln, err := net.Listen("tcp", w.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", w.opts.Addr, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.serve(ctx, ln)
	})
	g.Go(func() error {
		w.loop(ctx)
		return nil
	})

	return g.Wait()
}

func (w *Watch) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           w.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	w.logger.Info("Watch listener started", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), w.opts.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			w.logger.Error(err, "Watch listener shutdown failed")
		}
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("watch listener: %w", err)
	}
	return nil
}

func (w *Watch) loop(ctx context.Context) {
	ticker := w.clock.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		scope := w.replaceScope(ctx)
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.refresh(scope)
		}()

		select {
		case <-ctx.Done():
			w.replaceScope(nil)
			return
		case <-ticker.C():
		}
	}
}

// replaceScope cancels the running refresh and, unless parent is nil, opens
// the scope of the next one.
func (w *Watch) replaceScope(parent context.Context) *view.Scope {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current != nil {
		w.current.Cancel()
		w.current = nil
	}
	if parent == nil {
		return nil
	}
	w.current = view.NewScope(parent)
	return w.current
}

func (w *Watch) refresh(scope *view.Scope) {
	if _, decision := w.router.Navigate(view.Navigation{Route: guard.RouteDashboard}); !decision.Allowed() {
		metrics.DashboardRefreshesTotal.WithLabelValues("skipped").Inc()
		w.print(scope, func() error { return w.printer.Message(view.MsgNotLoggedIn) })
		return
	}

	if err := w.dashboard.Activate(scope); err != nil {
		metrics.DashboardRefreshesTotal.WithLabelValues("canceled").Inc()
		return
	}

	st := w.dashboard.State()
	outcome := "ok"
	if st.VehiclesError != "" || st.StatsError != "" {
		outcome = "partial"
	}
	metrics.DashboardRefreshesTotal.WithLabelValues(outcome).Inc()

	w.print(scope, func() error { return w.printer.Dashboard(st) })
}

func (w *Watch) print(scope *view.Scope, fn func() error) {
	w.printMu.Lock()
	defer w.printMu.Unlock()

	scope.Deliver(func() {
		if err := fn(); err != nil {
			w.logger.Error(err, "Failed to print dashboard")
		}
	})
}
