package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/classmart/pkg/logger"
)

// ListingsHandler serves listing queries and creation.
type ListingsHandler struct {
	store *MemoryStore
	auth  Auth
	log   *slog.Logger
}

// NewListingsHandler creates a new ListingsHandler.
func NewListingsHandler(s *MemoryStore, auth Auth, log *slog.Logger) *ListingsHandler {
	return &ListingsHandler{store: s, auth: auth, log: logger.OrDiscard(log)}
}

// --- Input/Output types ---

// ListListingsInput is the input for listing listings.
type ListListingsInput struct {
	Authorization string `header:"Authorization" doc:"tma <init data>"`
	Search        string `query:"search"        doc:"Case-insensitive substring of title or description"`
}

// ListListingsOutput is the response for listing listings.
type ListListingsOutput struct {
	Body []ListingBody
}

// CreateListingBody is the request body of POST /listings.
type CreateListingBody struct {
	Title           string  `json:"title"                 minLength:"1" maxLength:"120"`
	Description     string  `json:"description"           minLength:"1" maxLength:"2048"`
	PriceMinorUnits int64   `json:"price_minor_units"     minimum:"1"`
	Currency        string  `json:"currency"              minLength:"3" maxLength:"3"`
	Category        *string `json:"category,omitempty"    nullable:"true" maxLength:"64"`
	Condition       *string `json:"condition,omitempty"   nullable:"true" maxLength:"64"`
}

// CreateListingInput is the input for creating a listing.
type CreateListingInput struct {
	Authorization string `header:"Authorization" doc:"tma <init data>"`
	Body          CreateListingBody
}

// CreateListingOutput is the response for creating a listing.
type CreateListingOutput struct {
	Body ListingBody
}

// --- Handlers ---

// ListListings returns listings newest first, filtered by search.
func (h *ListingsHandler) ListListings(
	_ context.Context,
	input *ListListingsInput,
) (*ListListingsOutput, error) {
	if _, err := h.auth.Caller(input.Authorization); err != nil {
		return nil, huma.Error401Unauthorized(invalidAuthDetail)
	}

	return &ListListingsOutput{Body: h.store.List(input.Search)}, nil
}

// CreateListing stores a listing for the caller. It starts without photos.
func (h *ListingsHandler) CreateListing(
	_ context.Context,
	input *CreateListingInput,
) (*CreateListingOutput, error) {
	seller, err := h.auth.Caller(input.Authorization)
	if err != nil {
		return nil, huma.Error401Unauthorized(invalidAuthDetail)
	}

	b := &input.Body
	if strings.TrimSpace(b.Title) == "" {
		return nil, huma.Error422UnprocessableEntity("Title must not be blank")
	}

	l := h.store.Create(seller, &NewListing{
		Title:           strings.TrimSpace(b.Title),
		Description:     strings.TrimSpace(b.Description),
		PriceMinorUnits: b.PriceMinorUnits,
		Currency:        strings.ToUpper(b.Currency),
		Category:        b.Category,
		Condition:       b.Condition,
	})
	h.log.Info("listing created", "listing_id", l.ID, "seller_id", seller.ID)

	return &CreateListingOutput{Body: l}, nil
}

// RegisterListingRoutes registers listing endpoints under basePath.
func RegisterListingRoutes(api huma.API, basePath string, h *ListingsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-listings",
		Method:      http.MethodGet,
		Path:        basePath + "/listings",
		Summary:     "List listings",
		Description: "Returns listings newest first, optionally filtered by a search term.",
		Tags:        []string{"listings"},
		Errors:      []int{http.StatusUnauthorized},
	}, h.ListListings)

	huma.Register(api, huma.Operation{
		OperationID:   "create-listing",
		Method:        http.MethodPost,
		Path:          basePath + "/listings",
		Summary:       "Create a listing",
		Description:   "Creates a listing owned by the caller. Photos are uploaded separately.",
		Tags:          []string{"listings"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusUnauthorized, http.StatusUnprocessableEntity},
	}, h.CreateListing)
}
