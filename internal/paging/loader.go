package paging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/rubros-dev/rubros/internal/model"
)

var (
	// ErrBusy is returned when a page fetch is already in flight. The trigger is ignored.
	ErrBusy = errors.New("page fetch already in flight")

	// ErrClosed is returned when the loader was closed; in-flight results are discarded.
	ErrClosed = errors.New("loader closed")

	// ErrExhausted is returned when no more pages remain.
	ErrExhausted = errors.New("no more pages")

	// ErrHalted is returned after a failed fetch; pagination stops.
	ErrHalted = errors.New("pagination halted")
)

// State is the pagination state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateExhausted
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateExhausted:
		return "exhausted"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Fetcher retrieves one page of accounts. Pages are 1-based.
type Fetcher interface {
	ListAccounts(ctx context.Context, page, limit int) (model.AccountPage, error)
}

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	PageSize int
	Logger   *slog.Logger
	// OnAdded receives accounts merged in for the first time, after each page.
	OnAdded func(added []model.Account)
}

// Loader drives pagination. At most one fetch is in flight at a time.
type Loader struct {
	fetch   Fetcher
	size    int
	logger  *slog.Logger
	onAdded func([]model.Account)

	busy atomic.Bool

	// sinkMu serializes delivery to onAdded with Close.
	sinkMu sync.Mutex

	mu       sync.Mutex
	state    State
	nextPage int
	accounts []model.Account
	total    int
	err      error
	closed   bool
}

// NewLoader creates a Loader starting at page 1.
func NewLoader(f Fetcher, cfg LoaderConfig) *Loader {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	size := cfg.PageSize
	if size < 1 {
		size = 15
	}
	return &Loader{
		fetch:    f,
		size:     size,
		logger:   logger,
		onAdded:  cfg.OnAdded,
		nextPage: 1,
	}
}

// LoadNext fetches and merges the next page.
func (l *Loader) LoadNext(ctx context.Context) (Result, error) {
	if !l.busy.CompareAndSwap(false, true) {
		return Result{}, ErrBusy
	}
	defer l.busy.Store(false)

	l.mu.Lock()
	switch {
	case l.closed:
		l.mu.Unlock()
		return Result{}, ErrClosed
	case l.state == StateExhausted:
		l.mu.Unlock()
		return Result{}, ErrExhausted
	case l.state == StateError:
		err := l.err
		l.mu.Unlock()
		return Result{}, fmt.Errorf("%w: %w", ErrHalted, err)
	}
	page := l.nextPage
	l.state = StateLoading
	l.mu.Unlock()

	l.logger.Debug("fetching page", "page", page, "limit", l.size)
	pg, err := l.fetch.ListAccounts(ctx, page, l.size)

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		l.logger.Debug("discarding page from closed loader", "page", page)
		return Result{}, ErrClosed
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			l.state = StateIdle
			l.mu.Unlock()
			return Result{}, ctxErr
		}
		l.state = StateError
		l.err = err
		l.mu.Unlock()
		l.logger.Error("page fetch failed", "page", page, "error", err)
		return Result{}, fmt.Errorf("loading page %d: %w", page, err)
	}

	res := MergePage(l.accounts, pg.Accounts, l.size, pg.Total)
	l.accounts = res.Accounts
	l.total = res.Total
	l.nextPage++
	if res.HasMore {
		l.state = StateIdle
	} else {
		l.state = StateExhausted
	}
	l.mu.Unlock()

	l.logger.Info("page merged", "page", page, "received", len(pg.Accounts),
		"added", len(res.Added), "loaded", len(res.Accounts), "has_more", res.HasMore)

	if !l.deliver(page, res.Added) {
		return Result{}, ErrClosed
	}
	return res, nil
}

// deliver hands newly added accounts to the sink. It reports false when the
// loader was closed first, in which case nothing is delivered.
func (l *Loader) deliver(page int, added []model.Account) bool {
	l.sinkMu.Lock()
	defer l.sinkMu.Unlock()

	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		l.logger.Debug("discarding page from closed loader", "page", page)
		return false
	}
	if l.onAdded != nil && len(added) > 0 {
		l.onAdded(added)
	}
	return true
}

// LoadAll fetches pages until exhausted.
func (l *Loader) LoadAll(ctx context.Context) error {
	for {
		_, err := l.LoadNext(ctx)
		if errors.Is(err, ErrExhausted) {
			return nil
		}
		if err != nil {
			return err
		}
		l.mu.Lock()
		done := l.state == StateExhausted
		l.mu.Unlock()
		if done {
			return nil
		}
	}
}

// Close marks the loader closed. A fetch still in flight completes but its result is dropped.
// Close waits for a delivery to OnAdded already under way; no delivery starts after it returns.
func (l *Loader) Close() {
	l.sinkMu.Lock()
	defer l.sinkMu.Unlock()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

// State returns the current pagination state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Err returns the error that halted pagination, if any.
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// HasMore reports whether another page may be requested.
func (l *Loader) HasMore() bool {
	return l.State() == StateIdle
}

// Total returns the server total, or the merged count when the server reports none.
func (l *Loader) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Accounts returns a copy of the merged working set.
func (l *Loader) Accounts() []model.Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Account, len(l.accounts))
	copy(out, l.accounts)
	return out
}
