// Package identity tracks who the current user is. It starts from the
// profile the host hands over synchronously and upgrades it to the profile
// the backend validated once the init-token handshake completes.
package identity

import (
	"context"
	"log/slog"
	"sync"

	"github.com/donaldgifford/classmart/internal/host"
	"github.com/donaldgifford/classmart/internal/metrics"
	"github.com/donaldgifford/classmart/pkg/logger"
	domain "github.com/donaldgifford/classmart/pkg/types"
)

// Status is the lifecycle phase of the identity context.
type Status int

const (
	// Loading means the handshake has not finished.
	Loading Status = iota
	// Ready means the profile will not change any more.
	Ready
)

func (s Status) String() string {
	if s == Ready {
		return "ready"
	}
	return "loading"
}

// MarshalText renders the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// State is a snapshot of the identity context.
type State struct {
	Status Status `json:"status"`
	// User is the validated profile when the handshake succeeded, otherwise
	// the host profile, otherwise nil.
	User          *domain.HostUser `json:"user"`
	Authenticated bool             `json:"authenticated"`
	// Err is set only when a handshake was attempted and failed.
	Err string `json:"error,omitempty"`
}

// Authenticator performs the init-token handshake. *client.Client
// implements it.
type Authenticator interface {
	AuthenticateTelegram(ctx context.Context, initData string) (*domain.ValidatedUser, error)
}

// Service owns the identity state. Create one per process and pass it to
// whatever needs the current user.
type Service struct {
	bridge host.Bridge
	auth   Authenticator
	log    *slog.Logger

	startOnce sync.Once
	ready     chan struct{}

	mu       sync.Mutex
	state    State
	hostUser *domain.HostUser
	cancel   context.CancelFunc
	closed   bool
}

// New creates a service in the Loading state. Nothing happens until Start.
func New(bridge host.Bridge, auth Authenticator, log *slog.Logger) *Service {
	if bridge == nil {
		bridge = host.Detached{}
	}
	return &Service{
		bridge: bridge,
		auth:   auth,
		log:    logger.OrDiscard(log),
		ready:  make(chan struct{}),
	}
}

// Start initializes the host and, when the host supplied both a user and an
// init token, begins the handshake in the background. Without either it
// becomes Ready and unauthenticated immediately. Only the first call has
// any effect.
func (s *Service) Start(ctx context.Context) {
	s.startOnce.Do(func() { s.start(ctx) })
}

func (s *Service) start(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	s.bridge.Initialize()
	user := s.bridge.CurrentUser()
	token := s.bridge.AuthToken()
	s.hostUser = user
	s.state.User = user

	if user == nil || token == "" || s.auth == nil {
		metrics.HandshakesTotal.WithLabelValues("skipped").Inc()
		s.log.Debug("identity ready without handshake",
			"host_user", user != nil,
			"init_data", token != "",
		)
		s.finishLocked(State{Status: Ready, User: user})
		s.mu.Unlock()
		return
	}

	hctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	go s.handshake(hctx, cancel, token)
}

func (s *Service) handshake(ctx context.Context, cancel context.CancelFunc, token string) {
	defer cancel()

	validated, err := s.auth.AuthenticateTelegram(ctx, token)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		// Close already settled the state.
		return
	}

	if err != nil {
		metrics.HandshakesTotal.WithLabelValues("failure").Inc()
		s.log.Warn("telegram auth failed", "user_id", s.hostUser.ID, "error", err)
		s.finishLocked(State{Status: Ready, User: s.hostUser, Err: err.Error()})
		return
	}

	metrics.HandshakesTotal.WithLabelValues("success").Inc()
	s.log.Info("telegram auth succeeded", "user_id", validated.ID)
	s.finishLocked(State{Status: Ready, User: validated.Profile(), Authenticated: true})
}

// finishLocked moves to Ready. The transition happens once.
func (s *Service) finishLocked(st State) {
	if s.state.Status == Ready {
		return
	}
	s.state = st
	close(s.ready)
}

// State returns the current snapshot.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// User returns the best known profile: validated, then host, then nil.
func (s *Service) User() *domain.HostUser {
	return s.State().User
}

// Ready is closed once the service reaches the Ready state.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// Wait blocks until the service is Ready and returns its state.
func (s *Service) Wait(ctx context.Context) (State, error) {
	select {
	case <-s.ready:
		return s.State(), nil
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

// Close abandons a pending handshake. The service then becomes Ready with
// the host profile and no error. Calling Close more than once is safe.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.cancel != nil && s.state.Status != Ready {
		s.cancel()
		metrics.HandshakesTotal.WithLabelValues("canceled").Inc()
		s.log.Debug("telegram auth abandoned")
	}
	s.finishLocked(State{Status: Ready, User: s.hostUser})
}
