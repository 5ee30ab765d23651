package listings

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/donaldgifford/classmart/internal/metrics"
	"github.com/donaldgifford/classmart/pkg/logger"
	domain "github.com/donaldgifford/classmart/pkg/types"
)

// Fetcher loads a listing collection. *Repository implements it.
type Fetcher interface {
	FetchListings(ctx context.Context, search string) ([]domain.ListingViewModel, error)
}

// FeedState is what a view renders. Listings is never nil; while Loading it
// holds the placeholder (empty for a new search, the previous result for a
// refresh), so an empty Listings alone does not mean "no results".
type FeedState struct {
	Search    string
	Loading   bool
	Listings  []domain.ListingViewModel
	Err       error
	UpdatedAt time.Time
}

// Feed is the listing query behind one view. Each SetSearch or Refresh
// supersedes the request before it: the older request is canceled and, if
// its response still arrives, it is dropped instead of overwriting newer
// state.
type Feed struct {
	src     Fetcher
	log     *slog.Logger
	nowFunc func() time.Time

	mu         sync.Mutex
	state      FeedState
	generation uint64
	cancel     context.CancelFunc
	settled    chan struct{}
	subs       map[int]chan FeedState
	nextSub    int
	closed     bool
}

// NewFeed creates an idle feed with no search.
func NewFeed(src Fetcher, log *slog.Logger) *Feed {
	return &Feed{
		src:     src,
		log:     logger.OrDiscard(log),
		nowFunc: time.Now,
		state:   FeedState{Listings: []domain.ListingViewModel{}},
		settled: make(chan struct{}),
		subs:    make(map[int]chan FeedState),
	}
}

// SetSearch starts loading the collection for term. The listings reset to
// the empty placeholder until the response arrives.
func (f *Feed) SetSearch(ctx context.Context, term string) {
	f.start(ctx, strings.TrimSpace(term), true)
}

// Refresh reloads the current search, keeping the current listings as the
// placeholder.
func (f *Feed) Refresh(ctx context.Context) {
	f.mu.Lock()
	term := f.state.Search
	f.mu.Unlock()
	f.start(ctx, term, false)
}

// Snapshot returns the current state.
func (f *Feed) Snapshot() FeedState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Await blocks until the latest request has settled and returns the state.
func (f *Feed) Await(ctx context.Context) (FeedState, error) {
	for {
		f.mu.Lock()
		if !f.state.Loading || f.closed {
			s := f.state
			f.mu.Unlock()
			return s, nil
		}
		ch := f.settled
		f.mu.Unlock()

		select {
		case <-ctx.Done():
			return FeedState{}, ctx.Err()
		case <-ch:
		}
	}
}

// Subscribe returns a channel receiving every state change and a function
// that ends the subscription. Slow subscribers only see the latest state.
func (f *Feed) Subscribe() (<-chan FeedState, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan FeedState, 1)
	if f.closed {
		close(ch)
		return ch, func() {}
	}

	id := f.nextSub
	f.nextSub++
	f.subs[id] = ch
	ch <- f.state

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if c, ok := f.subs[id]; ok {
				delete(f.subs, id)
				close(c)
			}
		})
	}
}

// Close cancels any in-flight request and ends all subscriptions. Responses
// arriving afterwards are dropped.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	if f.cancel != nil {
		f.cancel()
	}
	close(f.settled)
	for id, ch := range f.subs {
		delete(f.subs, id)
		close(ch)
	}
}

func (f *Feed) start(ctx context.Context, term string, reset bool) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}

	if f.cancel != nil {
		f.cancel()
	}
	f.generation++
	gen := f.generation

	// Await callers of the superseded request re-check the new state.
	f.signalSettledLocked()

	reqCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel

	next := FeedState{
		Search:    term,
		Loading:   true,
		Listings:  f.state.Listings,
		UpdatedAt: f.state.UpdatedAt,
	}
	if reset {
		next.Listings = []domain.ListingViewModel{}
	}
	f.setLocked(next)
	f.mu.Unlock()

	go f.run(reqCtx, cancel, gen, term)
}

func (f *Feed) run(ctx context.Context, cancel context.CancelFunc, gen uint64, term string) {
	defer cancel()

	vms, err := f.src.FetchListings(ctx, term)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed || gen != f.generation {
		metrics.FeedDiscardedTotal.Inc()
		f.log.Debug("discarding superseded listing response", "search", term)
		return
	}

	next := FeedState{
		Search:    term,
		Listings:  f.state.Listings,
		Err:       err,
		UpdatedAt: f.state.UpdatedAt,
	}
	if err == nil {
		next.Listings = vms
		next.UpdatedAt = f.nowFunc()
	} else {
		f.log.Warn("listing fetch failed", "search", term, "error", err)
	}

	f.setLocked(next)
	f.signalSettledLocked()
}

func (f *Feed) setLocked(s FeedState) {
	f.state = s
	for _, ch := range f.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

func (f *Feed) signalSettledLocked() {
	close(f.settled)
	f.settled = make(chan struct{})
}
