package handlers

import (
	"errors"
	"strings"

	"github.com/donaldgifford/classmart/internal/host"
	domain "github.com/donaldgifford/classmart/pkg/types"
)

const authScheme = "tma"

// demoSeller acts for requests without init data, so the mock backend is
// usable from a plain terminal.
var demoSeller = domain.Seller{
	ID:        10,
	Username:  "john_doe",
	FirstName: "John",
	LastName:  "Doe",
}

// invalidAuthDetail is the 401 detail for init data that fails to verify.
const invalidAuthDetail = "Invalid Telegram auth data"

var errInvalidAuth = errors.New("invalid telegram auth data")

// Auth resolves init data to a user. With a bot token the init data must
// carry a valid signature; without one its user is trusted as-is.
type Auth struct {
	BotToken string
}

// User parses raw init data.
func (a Auth) User(raw string) (*domain.HostUser, error) {
	var (
		data *host.InitData
		err  error
	)
	if a.BotToken != "" {
		data, err = host.VerifyInitData(raw, a.BotToken)
	} else {
		data, err = host.ParseInitData(raw)
	}
	if err != nil || data.User == nil {
		return nil, errInvalidAuth
	}
	return data.User, nil
}

// Caller resolves an Authorization header to the seller acting in the
// request. A missing header means the demo seller.
func (a Auth) Caller(header string) (*domain.Seller, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		seller := demoSeller
		return &seller, nil
	}

	scheme, raw, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, authScheme) {
		return nil, errInvalidAuth
	}

	u, err := a.User(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	return &domain.Seller{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}, nil
}
