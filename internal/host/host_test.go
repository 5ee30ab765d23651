package host_test

import (
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/classmart/internal/host"
	domain "github.com/donaldgifford/classmart/pkg/types"
)

const testBotToken = "123456:test-bot-token"

func signedInitData(t *testing.T, u *domain.HostUser) string {
	t.Helper()
	values, err := host.EncodeUser(u, time.Unix(1700000000, 0))
	require.NoError(t, err)
	values.Set("query_id", "AAH-test")
	return host.SignInitData(values, testBotToken)
}

func TestWebApp_CurrentUserAndToken(t *testing.T) {
	t.Parallel()

	raw := signedInitData(t, &domain.HostUser{ID: 42, FirstName: "Aigerim", Username: "aigerim"})
	w := host.NewWebApp(raw)

	u := w.CurrentUser()
	require.NotNil(t, u)
	assert.Equal(t, int64(42), u.ID)
	assert.Equal(t, "Aigerim", u.FirstName)
	assert.Equal(t, "aigerim", u.Username)
	assert.Equal(t, raw, w.AuthToken())

	// The returned user is a copy.
	u.FirstName = "changed"
	assert.Equal(t, "Aigerim", w.CurrentUser().FirstName)
}

func TestWebApp_MalformedInitData(t *testing.T) {
	t.Parallel()

	w := host.NewWebApp("user=%7Bnot-json&hash=x")
	assert.Nil(t, w.CurrentUser())
	assert.Equal(t, "user=%7Bnot-json&hash=x", w.AuthToken())
}

func TestWebApp_InitializeIsIdempotent(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		events []string
	)
	w := host.NewWebApp("", host.WithEventPoster(host.EventPosterFunc(func(name string) error {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, name)
		return nil
	})))

	assert.False(t, w.Initialized())

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Initialize()
		}()
	}
	wg.Wait()

	assert.True(t, w.Initialized())
	assert.Equal(t, []string{host.EventReady, host.EventExpand}, events)
}

func TestWebApp_InitializeToleratesPosterErrors(t *testing.T) {
	t.Parallel()

	calls := 0
	w := host.NewWebApp("", host.WithEventPoster(host.EventPosterFunc(func(string) error {
		calls++
		return errors.New("host gone")
	})))

	w.Initialize()
	assert.Equal(t, 2, calls)
	assert.True(t, w.Initialized())
}

func TestNew_DetachedWithoutInitData(t *testing.T) {
	t.Parallel()

	b := host.New("")
	_, ok := b.(host.Detached)
	require.True(t, ok)

	b.Initialize()
	assert.Nil(t, b.CurrentUser())
	assert.Empty(t, b.AuthToken())

	_, ok = host.New("query_id=1").(*host.WebApp)
	assert.True(t, ok)
}

func TestVerifyInitData(t *testing.T) {
	t.Parallel()

	raw := signedInitData(t, &domain.HostUser{ID: 7, FirstName: "Dias"})

	tests := []struct {
		name    string
		raw     string
		token   string
		wantErr error
	}{
		{name: "valid", raw: raw, token: testBotToken},
		{name: "wrong bot token", raw: raw, token: "other", wantErr: host.ErrHashMismatch},
		{name: "missing hash", raw: "user=%7B%22id%22%3A1%7D", token: testBotToken, wantErr: host.ErrMissingHash},
		{
			name:    "no user",
			raw:     host.SignInitData(url.Values{"query_id": {"q"}}, testBotToken),
			token:   testBotToken,
			wantErr: host.ErrMissingUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d, err := host.VerifyInitData(tt.raw, tt.token)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(7), d.User.ID)
			assert.Equal(t, "AAH-test", d.QueryID)
			assert.Equal(t, time.Unix(1700000000, 0).UTC(), d.AuthDate)
		})
	}
}

func TestVerifyInitData_TamperedValue(t *testing.T) {
	t.Parallel()

	raw := signedInitData(t, &domain.HostUser{ID: 7, FirstName: "Dias"})
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	values.Set("query_id", "forged")

	_, err = host.VerifyInitData(values.Encode(), testBotToken)
	require.ErrorIs(t, err, host.ErrHashMismatch)
}

func TestDataCheckString(t *testing.T) {
	t.Parallel()

	got := host.DataCheckString(url.Values{
		"user":      {"u"},
		"auth_date": {"1"},
		"hash":      {"ignored"},
		"query_id":  {"q"},
	})
	assert.Equal(t, "auth_date=1\nquery_id=q\nuser=u", got)
}
