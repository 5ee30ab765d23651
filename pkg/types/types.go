// Package domain defines the core types shared by the classmart client:
// listings as the UI consumes them, photos, and the two shapes of user identity.
package domain

import (
	"fmt"
	"strconv"
	"time"
)

// DefaultCurrency is used when a submitted listing names no currency.
const DefaultCurrency = "KZT"

// MaxPhotos is the number of photos the backend accepts per listing.
const MaxPhotos = 5

// Listing is a marketplace listing in display shape. It is server-owned;
// the client creates listings but never mutates or deletes them.
type Listing struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	PriceMinorUnits int64   `json:"priceMinorUnits"`
	Currency        string  `json:"currency"`
	SellerID        int64   `json:"sellerId"`
	Category        *string `json:"category,omitempty"`
	Condition       *string `json:"condition,omitempty"`
	Photos          []Photo `json:"photos"`
	Seller          *Seller `json:"seller,omitempty"`

	// PhotoURL is the pre-photos single image field some backends still send.
	//
	// Deprecated: read Photos; PhotoURL is only consulted when Photos is empty.
	PhotoURL string `json:"photoUrl,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SellerContactLink returns a chat link for the seller. The embedded seller
// summary is used when present; otherwise the link is built from SellerID.
func (l *Listing) SellerContactLink() string {
	if l.Seller != nil {
		return l.Seller.ContactLink()
	}
	return contactLink(l.SellerID, "")
}

// PrimaryPhoto returns the first photo of the listing, or nil when it has none.
func (l *Listing) PrimaryPhoto() *Photo {
	if len(l.Photos) == 0 {
		return nil
	}
	return &l.Photos[0]
}

// ListingViewModel is a read-only projection of a Listing with derived
// display fields. It is never sent back to the server.
type ListingViewModel struct {
	Listing

	// PriceLabel is "{minor/100 with two decimals} {currency}".
	PriceLabel string `json:"priceLabel"`
	// ImageURL is the representative image: an inline thumbnail data URI,
	// the primary photo URL, or the legacy photo URL.
	ImageURL string `json:"imageUrl,omitempty"`
}

// Photo is one image attached to a listing.
type Photo struct {
	ID               int64     `json:"id"`
	PhotoURL         string    `json:"photoUrl"`
	DisplayOrder     int       `json:"displayOrder"`
	ThumbnailData    *string   `json:"thumbnailData,omitempty"`
	FileSizeBytes    *int64    `json:"fileSizeBytes,omitempty"`
	OriginalFilename *string   `json:"originalFilename,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// PhotoUploadResponse describes one stored photo after an upload.
type PhotoUploadResponse struct {
	URL       string  `json:"url"`
	Thumbnail *string `json:"thumbnail,omitempty"`
}

// Seller is the seller summary the backend may embed in a listing.
type Seller struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
}

// ContactLink returns a chat link for the seller.
func (s *Seller) ContactLink() string {
	return contactLink(s.ID, s.Username)
}

// HostUser is the partial profile the embedding host provides synchronously,
// without any network call. Field names follow the host's JSON.
type HostUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	IsPremium    bool   `json:"is_premium,omitempty"`
	PhotoURL     string `json:"photo_url,omitempty"`
}

// DisplayName joins first and last name.
func (u *HostUser) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// ContactLink returns a chat link for the user: the public username link
// when one exists, otherwise the id deep link.
func (u *HostUser) ContactLink() string {
	return contactLink(u.ID, u.Username)
}

func contactLink(id int64, username string) string {
	if username != "" {
		return "https://t.me/" + username
	}
	return "tg://user?id=" + strconv.FormatInt(id, 10)
}

// ValidatedUser is the profile returned by the backend once it has verified
// the host's init token. It has the same fields as HostUser.
type ValidatedUser HostUser

// Profile returns the validated user as a HostUser value.
func (u *ValidatedUser) Profile() *HostUser {
	p := HostUser(*u)
	return &p
}

// CreateListingInput is the submission form as entered by the user.
// Price is a decimal string in major units ("49.99").
type CreateListingInput struct {
	Title       string
	Description string
	Price       string
	Currency    string
	Category    *string
	Condition   *string
}

// FormatMinorUnits renders minor units as a two-decimal amount.
// Currencies whose minor unit is not a hundredth are not handled.
func FormatMinorUnits(minor int64) string {
	sign := ""
	abs := uint64(minor)
	if minor < 0 {
		sign = "-"
		abs = -abs // two's complement; exact for math.MinInt64 too
	}
	return fmt.Sprintf("%s%d.%02d", sign, abs/100, abs%100)
}
