// Package watch keeps a translation bundle in sync with a directory of .ts files.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/catalog"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/check"
	"github.com/tscatalog/tscatalog/internal/platform/logging"
	"github.com/tscatalog/tscatalog/internal/platform/otel"
	"github.com/tscatalog/tscatalog/internal/platform/timeouts"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Options configure a Reloader.
type Options struct {
	Catalog  catalog.Options
	Logger   *zap.Logger
	Debounce time.Duration
}

// Hook is called after every reload attempt with the bundle now being
// served and the reload error, if any.
type Hook func(bundle *catalog.Bundle, err error)

// Stats counts reload attempts.
type Stats struct {
	Reloads  int64
	Failures int64
}

// Reloader serves the most recently loaded bundle for a directory.
// Readers never observe a partially loaded bundle.
type Reloader struct {
	dir      string
	opts     catalog.Options
	logger   *zap.Logger
	debounce time.Duration

	current  atomic.Pointer[catalog.Bundle]
	reloads  atomic.Int64
	failures atomic.Int64

	mu      sync.Mutex
	hooks   []Hook
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New loads dir and returns a Reloader serving it. The initial load must
// succeed.
func New(dir string, opts Options) (*Reloader, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("translation directory is required")
	}
	r := &Reloader{
		dir:      filepath.Clean(dir),
		opts:     opts.Catalog,
		logger:   logging.OrNop(opts.Logger),
		debounce: opts.Debounce,
	}
	if r.debounce <= 0 {
		r.debounce = timeouts.ReloadDebounce
	}
	bundle, err := r.load(context.Background())
	if err != nil {
		return nil, err
	}
	r.current.Store(bundle)
	return r, nil
}

// Dir returns the watched directory.
func (r *Reloader) Dir() string {
	return r.dir
}

// Bundle returns the bundle currently served.
func (r *Reloader) Bundle() *catalog.Bundle {
	return r.current.Load()
}

// Stats returns reload counters.
func (r *Reloader) Stats() Stats {
	return Stats{Reloads: r.reloads.Load(), Failures: r.failures.Load()}
}

// OnReload registers fn to run after each reload attempt.
func (r *Reloader) OnReload(fn Hook) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.hooks = append(r.hooks, fn)
	r.mu.Unlock()
}

func (r *Reloader) load(ctx context.Context) (*catalog.Bundle, error) {
	_, span := otel.Tracer().Start(ctx, "catalog.Load")
	defer span.End()
	span.SetAttributes(attribute.String("catalog.dir", r.dir))

	bundle, err := catalog.LoadDir(r.dir, r.opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("load translations from %s: %w", r.dir, err)
	}
	span.SetAttributes(attribute.StringSlice("catalog.locales", bundle.Locales()))
	r.logFindings(bundle)
	return bundle, nil
}

func (r *Reloader) logFindings(bundle *catalog.Bundle) {
	for _, locale := range bundle.Locales() {
		findings := check.Filter(check.Run(bundle.Catalog(locale).Document(), check.Options{}), check.SeverityWarning)
		for _, f := range findings {
			r.logger.Warn("translation finding",
				zap.String("locale", locale),
				zap.String("path", bundle.Path(locale)),
				zap.String("check", f.Check),
				zap.String("severity", f.Severity.String()),
				zap.String("context", f.Context),
				zap.String("source", f.Source),
				zap.String("location", f.Location),
				zap.String("message", f.Message),
			)
		}
	}
}

// Reload loads the directory now. On failure the previous bundle keeps
// being served and the error is returned.
func (r *Reloader) Reload(ctx context.Context) error {
	r.reloads.Add(1)
	bundle, err := r.load(ctx)
	if err != nil {
		r.failures.Add(1)
		r.logger.Error("reload translations", zap.String("dir", r.dir), zap.Error(err))
	} else {
		r.current.Store(bundle)
		r.logger.Info("reloaded translations",
			zap.String("dir", r.dir),
			zap.Strings("locales", bundle.Locales()),
		)
	}

	r.mu.Lock()
	hooks := append([]Hook(nil), r.hooks...)
	r.mu.Unlock()
	for _, hook := range hooks {
		hook(r.Bundle(), err)
	}
	return err
}

// Start watches the directory until ctx is cancelled or Stop is called.
// It returns once the watch is registered.
func (r *Reloader) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(r.dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", r.dir, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.running = true
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.run(runCtx, watcher, r.done)
	r.logger.Info("watching translations", zap.String("dir", r.dir))
	return nil
}

// Stop ends the watch and waits for it to exit.
func (r *Reloader) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()
	<-done
}

// Wait blocks until the watch exits.
func (r *Reloader) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (r *Reloader) run(ctx context.Context, watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	defer func() {
		if err := watcher.Close(); err != nil {
			r.logger.Warn("close watcher", zap.Error(err))
		}
	}()

	var (
		timer  *time.Timer
		settle <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			r.logger.Debug("translation file changed",
				zap.String("path", event.Name),
				zap.String("op", event.Op.String()),
			)
			if timer == nil {
				timer = time.NewTimer(r.debounce)
			} else {
				timer.Reset(r.debounce)
			}
			settle = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			r.logger.Error("watch translations", zap.Error(err))
		case <-settle:
			settle = nil
			_ = r.Reload(ctx)
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(event.Name), ".ts") {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
