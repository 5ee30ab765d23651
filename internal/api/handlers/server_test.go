package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/classmart/internal/api/handlers"
	"github.com/donaldgifford/classmart/pkg/logger"
	domain "github.com/donaldgifford/classmart/pkg/types"
)

func newTestServer(t *testing.T, botToken string) (*httptest.Server, *handlers.MemoryStore) {
	t.Helper()
	store := handlers.NewMemoryStore()
	e := handlers.NewServer(handlers.ServerConfig{
		BasePath: "api/v1/",
		BotToken: botToken,
		Store:    store,
		Logger:   logger.Discard(),
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv, store
}

func multipartPhotos(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for name, content := range files {
		part, err := mw.CreateFormFile("photos", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func postPhotos(
	t *testing.T,
	srv *httptest.Server,
	listingID int64,
	auth string,
	files map[string]string,
) *http.Response {
	t.Helper()
	body, contentType := multipartPhotos(t, files)
	req, err := http.NewRequestWithContext(
		t.Context(),
		http.MethodPost,
		fmt.Sprintf("%s/api/v1/listings/%d/photos", srv.URL, listingID),
		body,
	)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeDetail(t *testing.T, resp *http.Response) string {
	t.Helper()
	var e handlers.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e.Detail
}

func TestServer_Healthz(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, "")

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestServer_Metrics(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, "")

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_UploadPhotos(t *testing.T) {
	t.Parallel()

	srv, store := newTestServer(t, "")
	l := store.Create(&domain.Seller{ID: 10}, &handlers.NewListing{Title: "Bike", PriceMinorUnits: 100, Currency: "KZT"})

	resp := postPhotos(t, srv, l.ID, "", map[string]string{"a.jpg": "jpeg-bytes"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var uploaded []domain.PhotoUploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&uploaded))
	require.Len(t, uploaded, 1)
	assert.True(t, strings.HasPrefix(uploaded[0].URL, srv.URL+"/api/v1/media/photos/"), uploaded[0].URL)
	require.NotNil(t, uploaded[0].Thumbnail)

	media, err := srv.Client().Get(uploaded[0].URL)
	require.NoError(t, err)
	defer media.Body.Close()
	assert.Equal(t, http.StatusOK, media.StatusCode)

	got, err := store.Get(l.ID)
	require.NoError(t, err)
	require.Len(t, got.Photos, 1)
	assert.Equal(t, "a.jpg", *got.Photos[0].OriginalFilename)
}

func TestServer_UploadPhotosErrors(t *testing.T) {
	t.Parallel()

	srv, store := newTestServer(t, testBotToken)
	l := store.Create(&domain.Seller{ID: 10}, &handlers.NewListing{Title: "Bike", PriceMinorUnits: 100, Currency: "KZT"})
	other := &domain.HostUser{ID: 99, FirstName: "Other"}

	six := map[string]string{}
	for i := range domain.MaxPhotos + 1 {
		six[fmt.Sprintf("%d.jpg", i)] = "x"
	}

	tests := []struct {
		name       string
		listingID  int64
		auth       string
		files      map[string]string
		wantStatus int
		wantDetail string
	}{
		{
			name:       "unknown listing",
			listingID:  404,
			files:      map[string]string{"a.jpg": "x"},
			wantStatus: http.StatusNotFound,
			wantDetail: "Listing not found",
		},
		{
			name:       "not the owner",
			listingID:  l.ID,
			auth:       "tma " + signedInitData(t, other, testBotToken),
			files:      map[string]string{"a.jpg": "x"},
			wantStatus: http.StatusForbidden,
			wantDetail: "You can only upload photos to your own listings",
		},
		{
			name:       "bad signature",
			listingID:  l.ID,
			auth:       "tma " + signedInitData(t, other, "wrong"),
			files:      map[string]string{"a.jpg": "x"},
			wantStatus: http.StatusUnauthorized,
			wantDetail: "Invalid Telegram auth data",
		},
		{
			name:       "too many photos",
			listingID:  l.ID,
			files:      six,
			wantStatus: http.StatusBadRequest,
			wantDetail: "Maximum 5 photos per listing. Currently 0 photos exist.",
		},
		{
			name:       "no photos",
			listingID:  l.ID,
			files:      map[string]string{},
			wantStatus: http.StatusUnprocessableEntity,
			wantDetail: "At least one photo is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postPhotos(t, srv, tt.listingID, tt.auth, tt.files)
			require.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantDetail, decodeDetail(t, resp))
		})
	}
}

func TestServer_MediaNotFound(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, "")

	resp, err := srv.Client().Get(srv.URL + "/api/v1/media/photos/12")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Photo not found", decodeDetail(t, resp))
}

func TestServer_Recovery(t *testing.T) {
	t.Parallel()

	e := handlers.NewServer(handlers.ServerConfig{Logger: logger.Discard()})
	e.GET("/boom", func(_ echo.Context) error { panic("boom") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"Internal server error"}`, rec.Body.String())
}
