// Package listings is the client's listing repository: it reads the listing
// collection through a query cache, turns wire records into view-models, and
// submits new listings and their photos. Every mutation invalidates all
// cached collections, whatever their search term.
package listings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/donaldgifford/classmart/internal/api/client"
	"github.com/donaldgifford/classmart/internal/cache"
	"github.com/donaldgifford/classmart/pkg/logger"
	domain "github.com/donaldgifford/classmart/pkg/types"
)

// CollectionKey is the cache prefix shared by every listing collection.
var CollectionKey = cache.Key{"listings"}

// API is the part of the backend client the repository uses.
type API interface {
	ListListings(ctx context.Context, search string) ([]client.ListingRecord, error)
	CreateListing(ctx context.Context, req *client.CreateListingRequest) (*client.ListingRecord, error)
	UploadPhotos(
		ctx context.Context,
		listingID int64,
		photos []client.PhotoFile,
	) ([]domain.PhotoUploadResponse, error)
}

// Repository reads and writes listings.
type Repository struct {
	api   API
	cache *cache.Cache[[]domain.ListingViewModel]
	log   *slog.Logger
}

// New creates a repository. A nil cache gets a cache that always refetches.
func New(
	api API,
	c *cache.Cache[[]domain.ListingViewModel],
	log *slog.Logger,
) *Repository {
	if c == nil {
		c = cache.New[[]domain.ListingViewModel]()
	}
	return &Repository{
		api:   api,
		cache: c,
		log:   logger.OrDiscard(log),
	}
}

// SearchKey returns the cache key of the collection filtered by search.
func SearchKey(search string) cache.Key {
	return cache.Key{CollectionKey[0], strings.TrimSpace(search)}
}

// FetchListings returns the listing collection, filtered by search when it
// is not blank. Matching is server-defined. A search that matches nothing
// returns an empty, non-nil slice. The returned slice is the caller's own.
func (r *Repository) FetchListings(
	ctx context.Context,
	search string,
) ([]domain.ListingViewModel, error) {
	key := SearchKey(search)
	term := key[1]

	vms, err := r.cache.Get(ctx, key, func(ctx context.Context) ([]domain.ListingViewModel, error) {
		records, err := r.api.ListListings(ctx, term)
		if err != nil {
			return nil, err
		}

		out := make([]domain.ListingViewModel, 0, len(records))
		for i := range records {
			out = append(out, Transform(&records[i]))
		}
		r.log.Debug("fetched listings", "search", term, "count", len(out))
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	return cloneViewModels(vms), nil
}

// CreateListing validates the form, submits it, and invalidates every
// cached collection. The created listing has no photos yet. Server errors
// are returned as-is so their message can be shown verbatim; nothing is
// retried.
func (r *Repository) CreateListing(
	ctx context.Context,
	in *domain.CreateListingInput,
) (*domain.Listing, error) {
	req, err := BuildCreateRequest(in)
	if err != nil {
		return nil, err
	}

	rec, err := r.api.CreateListing(ctx, req)
	if err != nil {
		return nil, err
	}

	r.invalidate("create")
	l := ToListing(rec)
	return &l, nil
}

// UploadPhotos attaches photos to a listing and invalidates every cached
// collection. The backend accepts at most domain.MaxPhotos per listing;
// enforcing that is the caller's job.
func (r *Repository) UploadPhotos(
	ctx context.Context,
	listingID int64,
	photos []client.PhotoFile,
) ([]domain.PhotoUploadResponse, error) {
	resp, err := r.api.UploadPhotos(ctx, listingID, photos)
	if err != nil {
		return nil, err
	}

	r.invalidate("upload_photos")
	return resp, nil
}

// ErrPhotoUpload wraps an upload failure that happened after the listing
// itself was created.
var ErrPhotoUpload = errors.New("listing created but photo upload failed")

// Submit creates a listing and then uploads its photos. The two steps are
// not atomic: when the upload fails, the created listing is returned
// together with an error wrapping ErrPhotoUpload, and the listing stays
// without photos.
func (r *Repository) Submit(
	ctx context.Context,
	in *domain.CreateListingInput,
	photos []client.PhotoFile,
) (*domain.Listing, []domain.PhotoUploadResponse, error) {
	l, err := r.CreateListing(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	if len(photos) == 0 {
		return l, nil, nil
	}

	uploaded, err := r.UploadPhotos(ctx, l.ID, photos)
	if err != nil {
		r.log.Warn("photo upload failed after listing creation",
			"listing_id", l.ID,
			"photos", len(photos),
			"error", err,
		)
		return l, nil, fmt.Errorf("%w: %w", ErrPhotoUpload, err)
	}
	return l, uploaded, nil
}

// Invalidate drops every cached collection.
func (r *Repository) Invalidate() {
	r.invalidate("manual")
}

func (r *Repository) invalidate(reason string) {
	n := r.cache.Invalidate(CollectionKey)
	r.log.Debug("listing cache invalidated", "reason", reason, "entries", n)
}

func cloneViewModels(in []domain.ListingViewModel) []domain.ListingViewModel {
	out := slices.Clone(in)
	if out == nil {
		out = []domain.ListingViewModel{}
	}
	for i := range out {
		out[i].Photos = slices.Clone(out[i].Photos)
	}
	return out
}
