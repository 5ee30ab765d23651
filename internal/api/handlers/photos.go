package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/classmart/pkg/logger"
	domain "github.com/donaldgifford/classmart/pkg/types"
)

// MaxPhotoBytes caps a single uploaded photo.
const MaxPhotoBytes = 10 << 20

// PhotosHandler serves photo uploads and photo bytes. Uploads are multipart,
// which is why these are echo routes rather than huma operations.
type PhotosHandler struct {
	store    *MemoryStore
	auth     Auth
	basePath string
	log      *slog.Logger
}

// NewPhotosHandler creates a new PhotosHandler. basePath must match the one
// the routes are registered under; photo URLs are built from it.
func NewPhotosHandler(s *MemoryStore, auth Auth, basePath string, log *slog.Logger) *PhotosHandler {
	return &PhotosHandler{store: s, auth: auth, basePath: basePath, log: logger.OrDiscard(log)}
}

// Upload attaches the multipart "photos" parts to a listing owned by the
// caller and answers with the URL and thumbnail of each stored photo.
func (h *PhotosHandler) Upload(c echo.Context) error {
	listingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return detail(c, http.StatusUnprocessableEntity, "Listing id must be an integer")
	}

	seller, err := h.auth.Caller(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return detail(c, http.StatusUnauthorized, invalidAuthDetail)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return detail(c, http.StatusBadRequest, "Expected a multipart form with photos")
	}
	files := form.File["photos"]
	if len(files) == 0 {
		return detail(c, http.StatusUnprocessableEntity, "At least one photo is required")
	}

	photos := make([]NewPhoto, 0, len(files))
	for _, fh := range files {
		p, err := readPhoto(fh)
		if err != nil {
			return detail(c, http.StatusBadRequest, err.Error())
		}
		photos = append(photos, p)
	}

	base := c.Scheme() + "://" + c.Request().Host + h.basePath
	stored, err := h.store.AddPhotos(listingID, seller.ID, photos, func(id int64) string {
		return base + "/media/photos/" + strconv.FormatInt(id, 10)
	})

	var limitErr *PhotoLimitError
	switch {
	case errors.Is(err, ErrListingNotFound):
		return detail(c, http.StatusNotFound, "Listing not found")
	case errors.Is(err, ErrNotOwner):
		return detail(c, http.StatusForbidden, "You can only upload photos to your own listings")
	case errors.As(err, &limitErr):
		return detail(c, http.StatusBadRequest, limitErr.Error())
	case err != nil:
		h.log.Error("storing photos", "listing_id", listingID, "error", err)
		return detail(c, http.StatusInternalServerError, "Failed to upload photos")
	}

	h.log.Info("photos uploaded", "listing_id", listingID, "count", len(stored))

	out := make([]domain.PhotoUploadResponse, 0, len(stored))
	for i := range stored {
		out = append(out, domain.PhotoUploadResponse{
			URL:       stored[i].PhotoURL,
			Thumbnail: stored[i].ThumbnailData,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// Media serves the bytes of a stored photo.
func (h *PhotosHandler) Media(c echo.Context) error {
	photoID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return detail(c, http.StatusNotFound, "Photo not found")
	}

	p, err := h.store.Photo(photoID)
	if err != nil {
		return detail(c, http.StatusNotFound, "Photo not found")
	}

	contentType := p.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return c.Blob(http.StatusOK, contentType, p.Data)
}

// RegisterPhotoRoutes registers the photo routes under the handler's base path.
func RegisterPhotoRoutes(e *echo.Echo, h *PhotosHandler) {
	e.POST(h.basePath+"/listings/:id/photos", h.Upload)
	e.GET(h.basePath+"/media/photos/:id", h.Media)
}

func readPhoto(fh *multipart.FileHeader) (NewPhoto, error) {
	if fh.Size > MaxPhotoBytes {
		return NewPhoto{}, fmt.Errorf("Photo %q exceeds %d bytes", fh.Filename, MaxPhotoBytes) //nolint:staticcheck // client-facing detail
	}

	src, err := fh.Open()
	if err != nil {
		return NewPhoto{}, fmt.Errorf("Could not read photo %q", fh.Filename) //nolint:staticcheck // client-facing detail
	}
	defer src.Close() //nolint:errcheck // read-only multipart file

	data, err := io.ReadAll(io.LimitReader(src, MaxPhotoBytes))
	if err != nil {
		return NewPhoto{}, fmt.Errorf("Could not read photo %q", fh.Filename) //nolint:staticcheck // client-facing detail
	}

	return NewPhoto{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Data:        data,
	}, nil
}

func detail(c echo.Context, status int, msg string) error {
	return c.JSON(status, ErrorResponse{Detail: msg})
}
