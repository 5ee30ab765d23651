package listings

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/donaldgifford/classmart/internal/api/client"
	domain "github.com/donaldgifford/classmart/pkg/types"
)

// Field limits enforced by the backend.
const (
	MaxTitleLength       = 120
	MaxDescriptionLength = 2048
)

// ErrValidation marks input rejected before any request was made.
var ErrValidation = errors.New("invalid listing")

// ValidationError names the offending form field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// BuildCreateRequest validates the submission form and converts it to the
// request body. Text fields are trimmed, the price is converted with
// ParsePrice, and the currency defaults to domain.DefaultCurrency.
func BuildCreateRequest(in *domain.CreateListingInput) (*client.CreateListingRequest, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Reason: "is required"}
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, &ValidationError{
			Field:  "title",
			Reason: fmt.Sprintf("must be at most %d characters", MaxTitleLength),
		}
	}

	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, &ValidationError{Field: "description", Reason: "is required"}
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return nil, &ValidationError{
			Field:  "description",
			Reason: fmt.Sprintf("must be at most %d characters", MaxDescriptionLength),
		}
	}

	minor, err := ParsePrice(in.Price)
	if err != nil {
		return nil, &ValidationError{Field: "price", Reason: err.Error()}
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	if !isCurrencyCode(currency) {
		return nil, &ValidationError{Field: "currency", Reason: "must be a 3-letter code"}
	}

	return &client.CreateListingRequest{
		Title:           title,
		Description:     description,
		PriceMinorUnits: minor,
		Currency:        currency,
		Category:        trimOptional(in.Category),
		Condition:       trimOptional(in.Condition),
	}, nil
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if !unicode.IsUpper(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
