package handlers

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/classmart/pkg/types"
)

func testURL(id int64) string { return "http://test/media/photos/" + strconv.FormatInt(id, 10) }

func newTestStore() *MemoryStore {
	s := NewMemoryStore()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	var tick int
	s.nowFunc = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return s
}

func TestMemoryStore_ListNewestFirstAndSearch(t *testing.T) {
	t.Parallel()

	s := newTestStore()
	s.Create(&demoSeller, &NewListing{Title: "Desk lamp", Description: "Warm light", PriceMinorUnits: 1500, Currency: "KZT"})
	s.Create(&demoSeller, &NewListing{Title: "Calculus textbook", Description: "Has a LAMP sticker", PriceMinorUnits: 4999, Currency: "KZT"})
	s.Create(&janeSeller, &NewListing{Title: "Bike", Description: "Blue", PriceMinorUnits: 100, Currency: "KZT"})

	all := s.List("")
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Bike", "Calculus textbook", "Desk lamp"},
		[]string{all[0].Title, all[1].Title, all[2].Title})

	lamp := s.List("  Lamp ")
	require.Len(t, lamp, 2)
	assert.Equal(t, "Calculus textbook", lamp[0].Title)
	assert.Equal(t, "Desk lamp", lamp[1].Title)

	none := s.List("piano")
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMemoryStore_Create(t *testing.T) {
	t.Parallel()

	s := newTestStore()
	l := s.Create(&janeSeller, &NewListing{Title: "Jacket", PriceMinorUnits: 2500000, Currency: "KZT"})

	assert.Equal(t, int64(1), l.ID)
	assert.Equal(t, janeSeller.ID, l.SellerID)
	require.NotNil(t, l.Seller)
	assert.Equal(t, "jane_smith", l.Seller.Username)
	assert.NotNil(t, l.Photos)
	assert.Empty(t, l.Photos)
	assert.False(t, l.CreatedAt.IsZero())
	assert.Equal(t, 1, s.Len())

	got, err := s.Get(l.ID)
	require.NoError(t, err)
	assert.Equal(t, l, got)

	_, err = s.Get(99)
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestMemoryStore_AddPhotos(t *testing.T) {
	t.Parallel()

	s := newTestStore()
	l := s.Create(&demoSeller, &NewListing{Title: "Bike", PriceMinorUnits: 100, Currency: "KZT"})

	added, err := s.AddPhotos(l.ID, demoSeller.ID, []NewPhoto{
		{Filename: "a.jpg", ContentType: "image/jpeg", Data: []byte("abc")},
		{Filename: "b.jpg", ContentType: "image/jpeg", Data: []byte("defg")},
	}, testURL)
	require.NoError(t, err)
	require.Len(t, added, 2)

	assert.Equal(t, "http://test/media/photos/1", added[0].PhotoURL)
	assert.Equal(t, 0, added[0].DisplayOrder)
	assert.Equal(t, 1, added[1].DisplayOrder)
	require.NotNil(t, added[0].ThumbnailData)
	assert.Equal(t, "YWJj", *added[0].ThumbnailData)
	assert.Equal(t, int64(4), *added[1].FileSizeBytes)
	assert.Equal(t, "b.jpg", *added[1].OriginalFilename)

	got, err := s.Get(l.ID)
	require.NoError(t, err)
	assert.Len(t, got.Photos, 2)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	p, err := s.Photo(added[1].ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("defg"), p.Data)
	assert.Equal(t, "image/jpeg", p.ContentType)

	_, err = s.Photo(42)
	assert.ErrorIs(t, err, ErrPhotoNotFound)
}

func TestMemoryStore_AddPhotosErrors(t *testing.T) {
	t.Parallel()

	s := newTestStore()
	l := s.Create(&demoSeller, &NewListing{Title: "Bike", PriceMinorUnits: 100, Currency: "KZT"})

	photos := func(n int) []NewPhoto {
		out := make([]NewPhoto, n)
		for i := range out {
			out[i] = NewPhoto{Data: []byte{byte(i)}}
		}
		return out
	}

	_, err := s.AddPhotos(99, demoSeller.ID, photos(1), testURL)
	assert.ErrorIs(t, err, ErrListingNotFound)

	_, err = s.AddPhotos(l.ID, janeSeller.ID, photos(1), testURL)
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = s.AddPhotos(l.ID, demoSeller.ID, photos(3), testURL)
	require.NoError(t, err)

	_, err = s.AddPhotos(l.ID, demoSeller.ID, photos(3), testURL)
	var limitErr *PhotoLimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 3, limitErr.Existing)
	assert.Equal(t, "Maximum 5 photos per listing. Currently 3 photos exist.", err.Error())

	// A rejected batch stores nothing.
	got, err := s.Get(l.ID)
	require.NoError(t, err)
	assert.Len(t, got.Photos, 3)

	_, err = s.AddPhotos(l.ID, demoSeller.ID, photos(domain.MaxPhotos-3), testURL)
	require.NoError(t, err)
}

func TestStubThumbnail_Truncates(t *testing.T) {
	t.Parallel()

	big := make([]byte, thumbnailSourceBytes*2)
	small := stubThumbnail(big)
	assert.Len(t, small, (thumbnailSourceBytes+2)/3*4)
}

func TestMemoryStore_ListReturnsCopies(t *testing.T) {
	t.Parallel()

	s := newTestStore()
	s.Create(&demoSeller, &NewListing{Title: "Bike", PriceMinorUnits: 100, Currency: "KZT"})

	list := s.List("")
	list[0].Title = "changed"
	list[0].Seller.Username = "changed"

	again := s.List("")
	assert.Equal(t, "Bike", again[0].Title)
	assert.Equal(t, "john_doe", again[0].Seller.Username)
}

func TestSeed(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	n := Seed(s)
	assert.Equal(t, n, s.Len())
	assert.Len(t, s.List("textbook"), 1)
}
