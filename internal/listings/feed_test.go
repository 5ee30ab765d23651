package listings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/classmart/internal/metrics"
	domain "github.com/donaldgifford/classmart/pkg/types"
)

type fetcherFunc func(ctx context.Context, search string) ([]domain.ListingViewModel, error)

func (f fetcherFunc) FetchListings(ctx context.Context, search string) ([]domain.ListingViewModel, error) {
	return f(ctx, search)
}

func titled(titles ...string) []domain.ListingViewModel {
	out := make([]domain.ListingViewModel, len(titles))
	for i, title := range titles {
		out[i].Title = title
	}
	return out
}

func awaitFeed(t *testing.T, f *Feed) FeedState {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := f.Await(ctx)
	require.NoError(t, err)
	return s
}

func TestFeed_InitialState(t *testing.T) {
	t.Parallel()

	f := NewFeed(fetcherFunc(func(context.Context, string) ([]domain.ListingViewModel, error) {
		return nil, nil
	}), nil)
	defer f.Close()

	s := f.Snapshot()
	assert.False(t, s.Loading)
	assert.NotNil(t, s.Listings)
	assert.Empty(t, s.Listings)
	assert.NoError(t, s.Err)
}

func TestFeed_SetSearch(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	f := NewFeed(fetcherFunc(func(_ context.Context, search string) ([]domain.ListingViewModel, error) {
		<-release
		return titled("result for " + search), nil
	}), nil)
	defer f.Close()

	f.SetSearch(context.Background(), " lamp ")

	loading := f.Snapshot()
	assert.True(t, loading.Loading)
	assert.Equal(t, "lamp", loading.Search)
	assert.NotNil(t, loading.Listings)
	assert.Empty(t, loading.Listings)

	close(release)
	s := awaitFeed(t, f)
	assert.False(t, s.Loading)
	assert.Equal(t, titled("result for lamp"), s.Listings)
	assert.False(t, s.UpdatedAt.IsZero())
}

func TestFeed_SupersededResponseDiscarded(t *testing.T) {
	t.Parallel()

	slowStarted := make(chan struct{})
	releaseSlow := make(chan struct{})

	f := NewFeed(fetcherFunc(func(_ context.Context, search string) ([]domain.ListingViewModel, error) {
		if search == "slow" {
			close(slowStarted)
			// Ignore cancellation so the stale response really arrives late.
			<-releaseSlow
			return titled("stale"), nil
		}
		return titled("fresh"), nil
	}), nil)
	defer f.Close()

	before := testutil.ToFloat64(metrics.FeedDiscardedTotal)

	f.SetSearch(context.Background(), "slow")
	<-slowStarted
	f.SetSearch(context.Background(), "fast")

	s := awaitFeed(t, f)
	assert.Equal(t, "fast", s.Search)
	assert.Equal(t, titled("fresh"), s.Listings)

	close(releaseSlow)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.FeedDiscardedTotal) >= before+1
	}, 2*time.Second, 5*time.Millisecond)

	s = f.Snapshot()
	assert.Equal(t, "fast", s.Search)
	assert.Equal(t, titled("fresh"), s.Listings)
}

func TestFeed_SupersededRequestCanceled(t *testing.T) {
	t.Parallel()

	canceled := make(chan struct{})
	f := NewFeed(fetcherFunc(func(ctx context.Context, search string) ([]domain.ListingViewModel, error) {
		if search == "first" {
			<-ctx.Done()
			close(canceled)
			return nil, ctx.Err()
		}
		return titled("second"), nil
	}), nil)
	defer f.Close()

	f.SetSearch(context.Background(), "first")
	f.SetSearch(context.Background(), "second")

	select {
	case <-canceled:
	case <-time.After(2 * time.Second):
		t.Fatal("first request was not canceled")
	}

	s := awaitFeed(t, f)
	assert.NoError(t, s.Err)
	assert.Equal(t, titled("second"), s.Listings)
}

func TestFeed_RefreshKeepsPlaceholder(t *testing.T) {
	t.Parallel()

	calls := 0
	block := make(chan struct{})
	f := NewFeed(fetcherFunc(func(context.Context, string) ([]domain.ListingViewModel, error) {
		calls++
		if calls > 1 {
			<-block
			return titled("a", "b"), nil
		}
		return titled("a"), nil
	}), nil)
	defer f.Close()

	f.SetSearch(context.Background(), "")
	awaitFeed(t, f)

	f.Refresh(context.Background())
	s := f.Snapshot()
	assert.True(t, s.Loading)
	assert.Equal(t, titled("a"), s.Listings)

	close(block)
	s = awaitFeed(t, f)
	assert.Equal(t, titled("a", "b"), s.Listings)
}

func TestFeed_ErrorKeepsListings(t *testing.T) {
	t.Parallel()

	fail := errors.New("API server not running")
	calls := 0
	f := NewFeed(fetcherFunc(func(context.Context, string) ([]domain.ListingViewModel, error) {
		calls++
		if calls > 1 {
			return nil, fail
		}
		return titled("a"), nil
	}), nil)
	defer f.Close()

	f.SetSearch(context.Background(), "")
	awaitFeed(t, f)

	f.Refresh(context.Background())
	s := awaitFeed(t, f)
	assert.ErrorIs(t, s.Err, fail)
	assert.False(t, s.Loading)
	assert.Equal(t, titled("a"), s.Listings)
}

func TestFeed_Subscribe(t *testing.T) {
	t.Parallel()

	f := NewFeed(fetcherFunc(func(context.Context, string) ([]domain.ListingViewModel, error) {
		return titled("a"), nil
	}), nil)

	ch, unsubscribe := f.Subscribe()
	defer unsubscribe()

	initial := <-ch
	assert.False(t, initial.Loading)

	f.SetSearch(context.Background(), "q")
	awaitFeed(t, f)

	// Slow subscribers see only the latest state.
	latest := <-ch
	assert.False(t, latest.Loading)
	assert.Equal(t, "q", latest.Search)
	assert.Equal(t, titled("a"), latest.Listings)

	f.Close()
	_, open := <-ch
	assert.False(t, open)
}

func TestFeed_Unsubscribe(t *testing.T) {
	t.Parallel()

	f := NewFeed(fetcherFunc(func(context.Context, string) ([]domain.ListingViewModel, error) {
		return nil, nil
	}), nil)
	defer f.Close()

	ch, unsubscribe := f.Subscribe()
	<-ch
	unsubscribe()
	unsubscribe()

	_, open := <-ch
	assert.False(t, open)
}

func TestFeed_AwaitHonoursContext(t *testing.T) {
	t.Parallel()

	f := NewFeed(fetcherFunc(func(ctx context.Context, _ string) ([]domain.ListingViewModel, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), nil)
	defer f.Close()

	f.SetSearch(context.Background(), "q")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.Await(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFeed_ClosedIgnoresSearch(t *testing.T) {
	t.Parallel()

	called := false
	f := NewFeed(fetcherFunc(func(context.Context, string) ([]domain.ListingViewModel, error) {
		called = true
		return nil, nil
	}), nil)
	f.Close()
	f.Close()

	f.SetSearch(context.Background(), "q")
	assert.False(t, called)
	assert.False(t, f.Snapshot().Loading)

	ch, _ := f.Subscribe()
	_, open := <-ch
	assert.False(t, open)
}
