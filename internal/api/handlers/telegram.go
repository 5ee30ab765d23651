package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/classmart/pkg/logger"
	domain "github.com/donaldgifford/classmart/pkg/types"
)

// TelegramHandler verifies Mini App init data.
type TelegramHandler struct {
	auth Auth
	log  *slog.Logger
}

// NewTelegramHandler creates a new TelegramHandler.
func NewTelegramHandler(auth Auth, log *slog.Logger) *TelegramHandler {
	return &TelegramHandler{auth: auth, log: logger.OrDiscard(log)}
}

// TelegramAuthInput is the input for the init data handshake.
type TelegramAuthInput struct {
	Body struct {
		InitData string `json:"init_data" minLength:"1" doc:"Raw init data string from the host"`
	}
}

// TelegramAuthOutput is the response for the init data handshake.
type TelegramAuthOutput struct {
	Body struct {
		OK   bool             `json:"ok"`
		User *domain.HostUser `json:"user"`
	}
}

// Authenticate returns the user carried by valid init data.
func (h *TelegramHandler) Authenticate(
	_ context.Context,
	input *TelegramAuthInput,
) (*TelegramAuthOutput, error) {
	u, err := h.auth.User(input.Body.InitData)
	if err != nil {
		h.log.Warn("rejected telegram init data", "error", err)
		return nil, huma.Error401Unauthorized(invalidAuthDetail)
	}

	resp := &TelegramAuthOutput{}
	resp.Body.OK = true
	resp.Body.User = u
	return resp, nil
}

// RegisterTelegramRoutes registers the telegram endpoints under basePath.
func RegisterTelegramRoutes(api huma.API, basePath string, h *TelegramHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "telegram-auth",
		Method:      http.MethodPost,
		Path:        basePath + "/telegram/auth",
		Summary:     "Verify Telegram Mini App init data",
		Tags:        []string{"telegram"},
		Errors:      []int{http.StatusUnauthorized},
	}, h.Authenticate)
}
