package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	domain "github.com/donaldgifford/classmart/pkg/types"
)

// PhotoFile is one image to upload.
type PhotoFile struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

// ListListings returns the listing collection, filtered by search when it is
// not empty. Matching is done by the server.
func (c *Client) ListListings(ctx context.Context, search string) ([]ListingRecord, error) {
	path := "/listings"
	if search != "" {
		path += "?" + url.Values{"search": {search}}.Encode()
	}

	var records []ListingRecord
	if err := c.get(ctx, "/listings", path, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []ListingRecord{}
	}
	return records, nil
}

// CreateListing submits a new listing and returns the stored record.
func (c *Client) CreateListing(
	ctx context.Context,
	req *CreateListingRequest,
) (*ListingRecord, error) {
	var rec ListingRecord
	if err := c.post(ctx, "/listings", "/listings", req, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// UploadPhotos attaches photos to a listing in one multipart request, one
// "photos" part per file. The backend accepts at most domain.MaxPhotos per
// listing; this method does not check.
func (c *Client) UploadPhotos(
	ctx context.Context,
	listingID int64,
	photos []PhotoFile,
) ([]domain.PhotoUploadResponse, error) {
	body, contentType, err := encodePhotos(photos)
	if err != nil {
		return nil, err
	}

	path := "/listings/" + strconv.FormatInt(listingID, 10) + "/photos"

	var records []uploadRecord
	if err := c.do(
		ctx,
		http.MethodPost,
		"/listings/{id}/photos",
		path,
		body,
		contentType,
		&records,
	); err != nil {
		return nil, err
	}

	out := make([]domain.PhotoUploadResponse, 0, len(records))
	for i := range records {
		out = append(out, domain.PhotoUploadResponse(records[i]))
	}
	return out, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodePhotos(photos []PhotoFile) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	for i, p := range photos {
		filename := p.Filename
		if filename == "" {
			filename = fmt.Sprintf("photo-%d", i+1)
		}
		contentType := p.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(
			`form-data; name="photos"; filename="%s"`,
			quoteEscaper.Replace(filename),
		))
		h.Set("Content-Type", contentType)

		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("creating photo part: %w", err)
		}
		if p.Data != nil {
			if _, err := io.Copy(part, p.Data); err != nil {
				return nil, "", fmt.Errorf("reading photo %q: %w", filename, err)
			}
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return buf, mw.FormDataContentType(), nil
}
