package listings

import (
	"sort"
	"strings"

	"github.com/donaldgifford/classmart/internal/api/client"
	domain "github.com/donaldgifford/classmart/pkg/types"
)

// thumbnailPrefix makes inline base64 thumbnails usable as image URLs.
const thumbnailPrefix = "data:image/jpeg;base64,"

// FormatPrice renders minor units as "{amount with two decimals} {currency}",
// for example 4999 KZT as "49.99 KZT". It assumes hundredths.
func FormatPrice(minorUnits int64, currency string) string {
	return domain.FormatMinorUnits(minorUnits) + " " + currency
}

// ToListing converts a wire record to the display shape. Photos are ordered
// by display order.
func ToListing(rec *client.ListingRecord) domain.Listing {
	l := domain.Listing{
		ID:              rec.ID,
		Title:           rec.Title,
		Description:     rec.Description,
		PriceMinorUnits: rec.PriceMinorUnits,
		Currency:        rec.Currency,
		SellerID:        rec.SellerID,
		Category:        rec.Category,
		Condition:       rec.Condition,
		Seller:          rec.Seller,
		CreatedAt:       rec.CreatedAt.Time,
		UpdatedAt:       rec.UpdatedAt.Time,
		Photos:          make([]domain.Photo, 0, len(rec.Photos)),
	}
	if rec.PhotoURL != nil {
		l.PhotoURL = *rec.PhotoURL //nolint:staticcheck // legacy field is still read
	}

	for i := range rec.Photos {
		p := &rec.Photos[i]
		l.Photos = append(l.Photos, domain.Photo{
			ID:               p.ID,
			PhotoURL:         p.PhotoURL,
			DisplayOrder:     p.DisplayOrder,
			ThumbnailData:    p.ThumbnailData,
			FileSizeBytes:    p.FileSizeBytes,
			OriginalFilename: p.OriginalFilename,
			CreatedAt:        p.CreatedAt.Time,
		})
	}
	sort.SliceStable(l.Photos, func(i, j int) bool {
		return l.Photos[i].DisplayOrder < l.Photos[j].DisplayOrder
	})

	return l
}

// Transform converts a wire record to its view-model.
func Transform(rec *client.ListingRecord) domain.ListingViewModel {
	return NewViewModel(ToListing(rec))
}

// NewViewModel derives the display fields of a listing.
func NewViewModel(l domain.Listing) domain.ListingViewModel {
	return domain.ListingViewModel{
		Listing:    l,
		PriceLabel: FormatPrice(l.PriceMinorUnits, l.Currency),
		ImageURL:   ResolveImage(&l),
	}
}

// ResolveImage picks the representative image of a listing: the primary
// photo's inline thumbnail, then the primary photo's URL, then the legacy
// top-level photo URL. It returns "" when there is none.
func ResolveImage(l *domain.Listing) string {
	if p := l.PrimaryPhoto(); p != nil {
		if p.ThumbnailData != nil && *p.ThumbnailData != "" {
			return thumbnailURI(*p.ThumbnailData)
		}
		if p.PhotoURL != "" {
			return p.PhotoURL
		}
	}
	return l.PhotoURL //nolint:staticcheck // legacy fallback
}

func thumbnailURI(data string) string {
	if strings.HasPrefix(data, "data:") {
		return data
	}
	return thumbnailPrefix + data
}
