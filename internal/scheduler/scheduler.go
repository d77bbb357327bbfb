// Package scheduler renders slides ahead of time on a background worker and
// caches the results.
package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gubarz/mdslides/internal/config"
	"github.com/gubarz/mdslides/internal/widget"
	"github.com/sourcegraph/conc"
)

// ErrStopped is returned when starting a renderer that was stopped
var ErrStopped = errors.New("slide renderer stopped")

// DefaultPollInterval is how often an idle worker checks whether it should exit
const DefaultPollInterval = 100 * time.Millisecond

// RenderFunc renders the slide with the given index
type RenderFunc func(slide int) (widget.Widget, error)

type result struct {
	w   widget.Widget
	err error
}

// SlideRenderer caches rendered slides. Each slide has its own lock so
// different slides render in parallel while the same slide only ever
// renders once per cache generation.
type SlideRenderer struct {
	render       RenderFunc
	log          *slog.Logger
	pollInterval time.Duration

	locksMu sync.Mutex
	locks   map[int]*sync.Mutex

	cacheMu sync.RWMutex
	cache   map[int]result

	queueMu sync.Mutex
	queue   []int
	wake    chan struct{}

	running atomic.Bool
	stopped atomic.Bool
	done    chan struct{}
	wg      conc.WaitGroup
}

// Option configures a SlideRenderer
type Option func(*SlideRenderer)

// WithPollInterval sets how long the worker waits for work between checks
// of the running flag
func WithPollInterval(d time.Duration) Option {
	return func(s *SlideRenderer) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithLogger sets the logger render failures are reported to
func WithLogger(logger *slog.Logger) Option {
	return func(s *SlideRenderer) {
		if logger != nil {
			s.log = logger.With("component", "scheduler")
		}
	}
}

// New creates a slide renderer. Nothing runs in the background until Start.
func New(fn RenderFunc, opts ...Option) *SlideRenderer {
	s := &SlideRenderer{
		render:       fn,
		log:          config.DiscardLogger(),
		pollInterval: DefaultPollInterval,
		locks:        map[int]*sync.Mutex{},
		cache:        map[int]result{},
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the background worker. Calling it again while running is
// a no-op.
func (s *SlideRenderer) Start() error {
	if s.stopped.Load() {
		return ErrStopped
	}
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	s.wg.Go(s.work)
	return nil
}

// Running reports whether the background worker is alive
func (s *SlideRenderer) Running() bool {
	return s.running.Load()
}

// QueueRender asks the worker to render a slide ahead of time
func (s *SlideRenderer) QueueRender(slide int) {
	s.queueMu.Lock()
	s.queue = append(s.queue, slide)
	s.queueMu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// RenderSlide returns the rendered slide, rendering it now if it is not
// cached yet. A failed render is cached as well while the worker runs and
// returned again on every call until the cache is flushed.
func (s *SlideRenderer) RenderSlide(slide int) (widget.Widget, error) {
	lock := s.lock(slide)
	lock.Lock()
	defer lock.Unlock()

	if r, ok := s.cached(slide); ok {
		return r.w, r.err
	}

	w, err := s.render(slide)
	if err != nil {
		s.log.Error("error rendering slide", "slide", slide, "error", Detail(err))
		if !s.running.Load() {
			return nil, err
		}
	}

	s.cacheMu.Lock()
	s.cache[slide] = result{w: w, err: err}
	s.cacheMu.Unlock()
	return w, err
}

// FlushCache drops every cached slide and all queued work. It waits for
// renders in flight to finish first.
func (s *SlideRenderer) FlushCache() {
	unlock := s.lockAll()
	defer unlock()

	s.queueMu.Lock()
	s.queue = nil
	s.queueMu.Unlock()

	s.cacheMu.Lock()
	s.cache = map[int]result{}
	s.cacheMu.Unlock()
}

// Stop shuts down the worker and waits until no slide is rendering
func (s *SlideRenderer) Stop() {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}
	s.running.Store(false)
	close(s.done)
	s.wg.Wait()

	unlock := s.lockAll()
	unlock()
}

func (s *SlideRenderer) work() {
	s.log.Debug("worker started")
	defer s.log.Debug("worker stopped")

	for s.running.Load() {
		slide, ok := s.next()
		if !ok {
			select {
			case <-s.wake:
			case <-s.done:
			case <-time.After(s.pollInterval):
			}
			continue
		}
		// failures are already logged and cached
		_, _ = s.RenderSlide(slide)
	}
}

func (s *SlideRenderer) next() (int, bool) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	if len(s.queue) == 0 {
		return 0, false
	}
	slide := s.queue[0]
	s.queue = s.queue[1:]
	return slide, true
}

func (s *SlideRenderer) cached(slide int) (result, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	r, ok := s.cache[slide]
	return r, ok
}

// lock returns the lock of a slide, creating it on first use
func (s *SlideRenderer) lock(slide int) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[slide]
	if !ok {
		l = &sync.Mutex{}
		s.locks[slide] = l
	}
	return l
}

// lockAll acquires every known slide lock in index order and returns a
// func releasing them
func (s *SlideRenderer) lockAll() func() {
	s.locksMu.Lock()
	slides := make([]int, 0, len(s.locks))
	for slide := range s.locks {
		slides = append(slides, slide)
	}
	s.locksMu.Unlock()
	slices.Sort(slides)

	held := make([]*sync.Mutex, 0, len(slides))
	for _, slide := range slides {
		l := s.lock(slide)
		l.Lock()
		held = append(held, l)
	}
	return func() {
		for _, l := range held {
			l.Unlock()
		}
	}
}

// Detail returns the most descriptive form of a render error, including
// source excerpts and stack traces when the error carries them
func Detail(err error) string {
	var d interface{ Details() string }
	if errors.As(err, &d) {
		return fmt.Sprintf("%s\n%+v", d.Details(), err)
	}
	return fmt.Sprintf("%+v", err)
}
