package client

import (
	"context"
	"errors"

	domain "github.com/donaldgifford/classmart/pkg/types"
)

// ErrNoUser is returned when a successful handshake response carries no user.
var ErrNoUser = errors.New("telegram auth response has no user")

// AuthenticateTelegram exchanges the host's init data for the profile the
// backend validated.
func (c *Client) AuthenticateTelegram(
	ctx context.Context,
	initData string,
) (*domain.ValidatedUser, error) {
	var resp telegramAuthResponse
	if err := c.post(
		ctx,
		"/telegram/auth",
		"/telegram/auth",
		telegramAuthRequest{InitData: initData},
		&resp,
	); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, ErrNoUser
	}
	return resp.User, nil
}
