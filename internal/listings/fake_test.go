package listings

import (
	"context"
	"sync"

	"github.com/donaldgifford/classmart/internal/api/client"
	domain "github.com/donaldgifford/classmart/pkg/types"
)

type fakeAPI struct {
	mu       sync.Mutex
	records  []client.ListingRecord
	searches []string
	created  []*client.CreateListingRequest
	uploads  map[int64]int

	listFn    func(ctx context.Context, search string) ([]client.ListingRecord, error)
	createErr error
	uploadErr error
	nextID    int64
}

func newFakeAPI(records ...client.ListingRecord) *fakeAPI {
	return &fakeAPI{records: records, uploads: make(map[int64]int), nextID: 100}
}

func (f *fakeAPI) ListListings(ctx context.Context, search string) ([]client.ListingRecord, error) {
	f.mu.Lock()
	f.searches = append(f.searches, search)
	fn := f.listFn
	out := append([]client.ListingRecord{}, f.records...)
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, search)
	}
	return out, nil
}

func (f *fakeAPI) CreateListing(
	_ context.Context,
	req *client.CreateListingRequest,
) (*client.ListingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	f.nextID++
	rec := client.ListingRecord{
		ID:              f.nextID,
		Title:           req.Title,
		Description:     req.Description,
		PriceMinorUnits: req.PriceMinorUnits,
		Currency:        req.Currency,
		SellerID:        7,
		Category:        req.Category,
		Condition:       req.Condition,
	}
	f.records = append([]client.ListingRecord{rec}, f.records...)
	return &rec, nil
}

func (f *fakeAPI) UploadPhotos(
	_ context.Context,
	listingID int64,
	photos []client.PhotoFile,
) ([]domain.PhotoUploadResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploads[listingID] += len(photos)
	out := make([]domain.PhotoUploadResponse, len(photos))
	for i := range photos {
		out[i] = domain.PhotoUploadResponse{URL: "https://cdn.example.com/" + photos[i].Filename}
	}
	return out, nil
}

func (f *fakeAPI) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches)
}

func (f *fakeAPI) searchLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.searches...)
}

func ptr[T any](v T) *T { return &v }
