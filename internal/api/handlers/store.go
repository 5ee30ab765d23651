package handlers

import (
	"cmp"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	domain "github.com/donaldgifford/classmart/pkg/types"
)

// thumbnailSourceBytes is how much of an upload goes into its stand-in
// thumbnail.
const thumbnailSourceBytes = 4 << 10

// Store errors.
var (
	ErrListingNotFound = errors.New("listing not found")
	ErrPhotoNotFound   = errors.New("photo not found")
	ErrNotOwner        = errors.New("not the listing owner")
)

// PhotoLimitError is returned when an upload would exceed domain.MaxPhotos.
type PhotoLimitError struct {
	Existing int
}

func (e *PhotoLimitError) Error() string {
	return fmt.Sprintf(
		"Maximum %d photos per listing. Currently %d photos exist.",
		domain.MaxPhotos,
		e.Existing,
	)
}

// ListingBody is a listing as the backend serves it.
type ListingBody struct {
	ID              int64          `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	PriceMinorUnits int64          `json:"price_minor_units"`
	Currency        string         `json:"currency"`
	SellerID        int64          `json:"seller_id"`
	Category        *string        `json:"category,omitempty"`
	Condition       *string        `json:"condition,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Photos          []PhotoBody    `json:"photos"`
	Seller          *domain.Seller `json:"seller,omitempty"`
}

// PhotoBody is a listing photo as the backend serves it.
type PhotoBody struct {
	ID               int64     `json:"id"`
	PhotoURL         string    `json:"photo_url"`
	DisplayOrder     int       `json:"display_order"`
	ThumbnailData    *string   `json:"thumbnail_data,omitempty"`
	FileSizeBytes    *int64    `json:"file_size_bytes,omitempty"`
	OriginalFilename *string   `json:"original_filename,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewListing is the data needed to store a listing.
type NewListing struct {
	Title           string
	Description     string
	PriceMinorUnits int64
	Currency        string
	Category        *string
	Condition       *string
}

// NewPhoto is one uploaded file.
type NewPhoto struct {
	Filename    string
	ContentType string
	Data        []byte
}

// StoredPhoto is a photo's bytes, served by the media route.
type StoredPhoto struct {
	ContentType string
	Data        []byte
}

type listingRecord struct {
	body   ListingBody
	photos map[int64]StoredPhoto
}

// MemoryStore keeps listings and photo bytes in memory. It is safe for
// concurrent use.
type MemoryStore struct {
	nowFunc func() time.Time

	mu        sync.RWMutex
	listings  map[int64]*listingRecord
	nextID    int64
	nextPhoto int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nowFunc:  func() time.Time { return time.Now().UTC() },
		listings: make(map[int64]*listingRecord),
	}
}

// List returns listings newest first. A non-blank search keeps listings
// whose title or description contains it, ignoring case.
func (s *MemoryStore) List(search string) []ListingBody {
	needle := strings.ToLower(strings.TrimSpace(search))

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ListingBody, 0, len(s.listings))
	for _, rec := range s.listings {
		if needle != "" &&
			!strings.Contains(strings.ToLower(rec.body.Title), needle) &&
			!strings.Contains(strings.ToLower(rec.body.Description), needle) {
			continue
		}
		out = append(out, cloneListing(&rec.body))
	}

	slices.SortFunc(out, func(a, b ListingBody) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out
}

// Get returns one listing.
func (s *MemoryStore) Get(id int64) (ListingBody, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.listings[id]
	if !ok {
		return ListingBody{}, ErrListingNotFound
	}
	return cloneListing(&rec.body), nil
}

// Create stores a listing for seller and returns it with its id and
// timestamps assigned.
func (s *MemoryStore) Create(seller *domain.Seller, in *NewListing) ListingBody {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := s.nowFunc()
	sellerCopy := *seller

	rec := &listingRecord{
		body: ListingBody{
			ID:              s.nextID,
			Title:           in.Title,
			Description:     in.Description,
			PriceMinorUnits: in.PriceMinorUnits,
			Currency:        in.Currency,
			SellerID:        seller.ID,
			Category:        in.Category,
			Condition:       in.Condition,
			CreatedAt:       now,
			UpdatedAt:       now,
			Photos:          []PhotoBody{},
			Seller:          &sellerCopy,
		},
		photos: make(map[int64]StoredPhoto),
	}
	s.listings[rec.body.ID] = rec
	return cloneListing(&rec.body)
}

// AddPhotos appends photos to a listing owned by sellerID. urlFor builds the
// public URL of a photo from its id. Either all photos are stored or none.
func (s *MemoryStore) AddPhotos(
	listingID int64,
	sellerID int64,
	photos []NewPhoto,
	urlFor func(photoID int64) string,
) ([]PhotoBody, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.listings[listingID]
	if !ok {
		return nil, ErrListingNotFound
	}
	if rec.body.SellerID != sellerID {
		return nil, ErrNotOwner
	}
	existing := len(rec.body.Photos)
	if existing+len(photos) > domain.MaxPhotos {
		return nil, &PhotoLimitError{Existing: existing}
	}

	now := s.nowFunc()
	added := make([]PhotoBody, 0, len(photos))
	for i := range photos {
		p := &photos[i]
		s.nextPhoto++

		size := int64(len(p.Data))
		thumb := stubThumbnail(p.Data)
		body := PhotoBody{
			ID:            s.nextPhoto,
			PhotoURL:      urlFor(s.nextPhoto),
			DisplayOrder:  existing + i,
			ThumbnailData: &thumb,
			FileSizeBytes: &size,
			CreatedAt:     now,
		}
		if p.Filename != "" {
			name := p.Filename
			body.OriginalFilename = &name
		}

		rec.body.Photos = append(rec.body.Photos, body)
		rec.photos[body.ID] = StoredPhoto{ContentType: p.ContentType, Data: p.Data}
		added = append(added, body)
	}
	rec.body.UpdatedAt = now

	return added, nil
}

// Photo returns the bytes of a stored photo.
func (s *MemoryStore) Photo(photoID int64) (StoredPhoto, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.listings {
		if p, ok := rec.photos[photoID]; ok {
			return p, nil
		}
	}
	return StoredPhoto{}, ErrPhotoNotFound
}

// Len returns the number of listings.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listings)
}

// stubThumbnail stands in for real image resizing: the base64 of the first
// few KiB of the upload.
func stubThumbnail(data []byte) string {
	if len(data) > thumbnailSourceBytes {
		data = data[:thumbnailSourceBytes]
	}
	return base64.StdEncoding.EncodeToString(data)
}

func cloneListing(l *ListingBody) ListingBody {
	out := *l
	out.Photos = slices.Clone(l.Photos)
	if out.Photos == nil {
		out.Photos = []PhotoBody{}
	}
	if l.Seller != nil {
		seller := *l.Seller
		out.Seller = &seller
	}
	return out
}
