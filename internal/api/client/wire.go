package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	domain "github.com/donaldgifford/classmart/pkg/types"
)

// ListingRecord is a listing as the backend sends it.
type ListingRecord struct {
	ID              int64          `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	PriceMinorUnits int64          `json:"price_minor_units"`
	Currency        string         `json:"currency"`
	SellerID        int64          `json:"seller_id"`
	Category        *string        `json:"category,omitempty"`
	Condition       *string        `json:"condition,omitempty"`
	CreatedAt       Timestamp      `json:"created_at"`
	UpdatedAt       Timestamp      `json:"updated_at"`
	Photos          PhotoRecords   `json:"photos,omitempty"`
	Seller          *domain.Seller `json:"seller,omitempty"`

	// PhotoURL is the single-image field of older backends.
	//
	// Deprecated: superseded by Photos.
	PhotoURL *string `json:"photo_url,omitempty"`
}

// PhotoRecord is a listing photo as the backend sends it.
type PhotoRecord struct {
	ID               int64     `json:"id"`
	PhotoURL         string    `json:"photo_url"`
	DisplayOrder     int       `json:"display_order"`
	ThumbnailData    *string   `json:"thumbnail_data,omitempty"`
	FileSizeBytes    *int64    `json:"file_size_bytes,omitempty"`
	OriginalFilename *string   `json:"original_filename,omitempty"`
	CreatedAt        Timestamp `json:"created_at"`
}

// PhotoRecords decodes a listing's photos. Besides photo objects it accepts
// the older shape where photos is a list of bare URLs; those become records
// with only PhotoURL and DisplayOrder set.
type PhotoRecords []PhotoRecord

// UnmarshalJSON implements json.Unmarshaler.
func (p *PhotoRecords) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = nil
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding photos: %w", err)
	}

	out := make(PhotoRecords, 0, len(raw))
	for i, item := range raw {
		var url string
		if err := json.Unmarshal(item, &url); err == nil {
			out = append(out, PhotoRecord{PhotoURL: url, DisplayOrder: i})
			continue
		}

		var rec PhotoRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			return fmt.Errorf("decoding photo %d: %w", i, err)
		}
		out = append(out, rec)
	}
	*p = out
	return nil
}

// timestampLayouts are tried in order. The backend may omit the zone, in
// which case the time is taken as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// Timestamp is a server timestamp that tolerates zone-less ISO 8601 values
// and null.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("decoding timestamp: unrecognized format %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// CreateListingRequest is the body of POST /listings.
type CreateListingRequest struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	PriceMinorUnits int64   `json:"price_minor_units"`
	Currency        string  `json:"currency"`
	Category        *string `json:"category"`
	Condition       *string `json:"condition"`
}

// uploadRecord decodes one element of the photo upload response. Older
// backends answer with bare URLs.
type uploadRecord domain.PhotoUploadResponse

// UnmarshalJSON implements json.Unmarshaler.
func (u *uploadRecord) UnmarshalJSON(data []byte) error {
	var url string
	if err := json.Unmarshal(data, &url); err == nil {
		*u = uploadRecord{URL: url}
		return nil
	}

	var resp domain.PhotoUploadResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("decoding upload response: %w", err)
	}
	*u = uploadRecord(resp)
	return nil
}

type telegramAuthRequest struct {
	InitData string `json:"init_data"`
}

type telegramAuthResponse struct {
	OK   bool                  `json:"ok"`
	User *domain.ValidatedUser `json:"user"`
}
