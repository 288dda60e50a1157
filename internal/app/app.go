// Package app wires the configured components together and tears them down
// in order.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nibzard/todo-go/internal/config"
	"github.com/nibzard/todo-go/internal/kv"
	"github.com/nibzard/todo-go/internal/logging"
	"github.com/nibzard/todo-go/internal/metrics"
	"github.com/nibzard/todo-go/internal/persist"
	"github.com/nibzard/todo-go/internal/todo"
)

// App is the running set of components behind every front end.
type App struct {
	cfg    *config.Config
	logger *log.Logger

	registry *prometheus.Registry
	metrics  *metrics.Metrics

	kv     kv.Store
	bridge *persist.Bridge
	store  *todo.Store

	metricsSrv *http.Server
	metricsLn  net.Listener
	srvDone    chan error
}

// Option configures Open.
type Option func(*options)

type options struct {
	logOutput io.Writer
	kv        kv.Store
}

// WithLogOutput sets where logs are written. The default is stderr.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) {
		o.logOutput = w
	}
}

// WithKVStore uses s instead of opening the configured backend. The app
// closes it on Close.
func WithKVStore(s kv.Store) Option {
	return func(o *options) {
		o.kv = s
	}
}

// Open builds the logger and metrics, opens the key-value service, hydrates
// the task collection and starts the metrics listener if one is configured.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := options{logOutput: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		cfg:      cfg,
		logger:   logging.NewFromConfig(o.logOutput, cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller),
		registry: prometheus.NewRegistry(),
	}

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(a.registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	a.metrics = m

	codec, err := persist.CodecByName(cfg.Codec)
	if err != nil {
		return nil, err
	}

	if o.kv != nil {
		a.kv = o.kv
	} else {
		store, err := kv.Open(ctx, cfg.KVOptions())
		if err != nil {
			return nil, fmt.Errorf("open %s backend: %w", cfg.Backend, err)
		}
		a.kv = store
	}

	a.bridge = persist.NewBridge(a.kv,
		persist.WithKey(cfg.Key),
		persist.WithCodec(codec),
		persist.WithLogger(a.logger.WithPrefix("persist")),
		persist.WithMetrics(a.metrics),
	)
	tasks := a.bridge.Hydrate(ctx)
	a.store = todo.NewStore(todo.WithTasks(tasks), todo.WithPersister(a.bridge))

	if cfg.MetricsAddr != "" {
		if err := a.serveMetrics(cfg.MetricsAddr); err != nil {
			_ = a.bridge.Close(ctx)
			_ = a.kv.Close()
			return nil, err
		}
	}

	a.logger.Debug("opened", "backend", cfg.Backend, "key", cfg.Key, "codec", codec.Name(), "tasks", len(tasks))
	return a, nil
}

func (a *App) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen for metrics on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	a.metricsLn = ln
	a.metricsSrv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	a.srvDone = make(chan error, 1)
	go func() {
		err := a.metricsSrv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		a.srvDone <- err
	}()
	a.logger.Info("serving metrics", "addr", ln.Addr().String())
	return nil
}

// Store returns the task collection.
func (a *App) Store() *todo.Store { return a.store }

// Logger returns the application logger.
func (a *App) Logger() *log.Logger { return a.logger }

// Registry returns the Prometheus registry the app's collectors are on.
func (a *App) Registry() *prometheus.Registry { return a.registry }

// Config returns the configuration the app was opened with.
func (a *App) Config() *config.Config { return a.cfg }

// MetricsAddr returns the address the metrics listener is bound to, or ""
// when metrics are not served.
func (a *App) MetricsAddr() string {
	if a.metricsLn == nil {
		return ""
	}
	return a.metricsLn.Addr().String()
}

// Flush waits for every mutation made so far to reach the key-value service.
func (a *App) Flush(ctx context.Context) error {
	return a.bridge.Flush(ctx)
}

// Close waits for pending writes, stops the metrics listener and closes the
// key-value service. It returns every error it met.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.bridge.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush tasks: %w", err))
	}
	if a.metricsSrv != nil {
		if err := a.metricsSrv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop metrics listener: %w", err))
		} else if err := <-a.srvDone; err != nil {
			errs = append(errs, fmt.Errorf("metrics listener: %w", err))
		}
	}
	if err := a.kv.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close %s backend: %w", a.cfg.Backend, err))
	}
	return errors.Join(errs...)
}
