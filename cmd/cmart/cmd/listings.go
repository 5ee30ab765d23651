package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/classmart/internal/api/client"
	"github.com/donaldgifford/classmart/internal/listings"
	"github.com/donaldgifford/classmart/internal/refresh"
	domain "github.com/donaldgifford/classmart/pkg/types"
)

func listingsCmd() *cobra.Command {
	listingsRoot := &cobra.Command{
		Use:   "listings",
		Short: "Browse and post listings",
		Long: "Browse, search, and watch marketplace listings, and post new\n" +
			"listings with photos.",
	}

	listingsRoot.AddCommand(
		listingsListCmd(),
		listingsShowCmd(),
		listingsWatchCmd(),
		listingsCreateCmd(),
	)

	return listingsRoot
}

func listingsListCmd() *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List listings, newest first",
		Example: `  # List all listings
  cmart listings list

  # Search titles and descriptions
  cmart listings list --search bike`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			vms, err := a.repo.FetchListings(cmd.Context(), search)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput() {
				return outputJSON(out, vms)
			}
			if len(vms) == 0 {
				_, err := fmt.Fprintln(out, "No listings found.")
				return err
			}
			return printListingsTable(out, vms)
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "search term")
	return cmd
}

func listingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one listing with its photos and seller contact",
		Example: `  cmart listings show 3
  cmart listings show 3 --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid listing id %q", args[0])
			}

			a, err := newApp()
			if err != nil {
				return err
			}

			vm, err := findListing(cmd.Context(), a.repo, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput() {
				return outputJSON(out, vm)
			}
			return printListingDetail(out, vm)
		},
	}
}

// findListing picks one listing out of the unfiltered collection. The
// backend has no single-listing read.
func findListing(ctx context.Context, repo *listings.Repository, id int64) (*domain.ListingViewModel, error) {
	vms, err := repo.FetchListings(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range vms {
		if vms[i].ID == id {
			return &vms[i], nil
		}
	}
	return nil, fmt.Errorf("listing %d not found", id)
}

// invalidatingRefresher drops cached collections before refreshing the feed
// so a scheduled refresh always reaches the backend.
type invalidatingRefresher struct {
	repo *listings.Repository
	feed *listings.Feed
}

func (r invalidatingRefresher) Refresh(ctx context.Context) {
	r.repo.Invalidate()
	r.feed.Refresh(ctx)
}

func listingsWatchCmd() *cobra.Command {
	var (
		search      string
		every       time.Duration
		updates     int
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the listing feed each time it refreshes",
		Example: `  # Refresh every 30s until interrupted
  cmart listings watch

  # Watch a search, refreshing every minute, and stop after 3 updates
  cmart listings watch --search lamp --every 1m --updates 3

  # Expose client metrics for scraping
  cmart listings watch --metrics-addr :9100`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if every == 0 {
				every = a.cfg.Feed.RefreshInterval
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			if metricsAddr != "" {
				if _, err := startMetricsServer(ctx, metricsAddr, a.log); err != nil {
					return fmt.Errorf("starting metrics server: %w", err)
				}
			}
			return runWatch(ctx, cmd.OutOrStdout(), a, search, every, updates)
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "search term")
	cmd.Flags().DurationVar(&every, "every", 0, "refresh interval (default from config, 30s)")
	cmd.Flags().IntVar(&updates, "updates", 0, "stop after this many updates (0 runs until interrupted)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9100")
	return cmd
}

func runWatch(
	ctx context.Context,
	out io.Writer,
	a *app,
	search string,
	every time.Duration,
	updates int,
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	feed := listings.NewFeed(a.repo, a.log)
	defer feed.Close()

	sched, err := refresh.NewScheduler(ctx, invalidatingRefresher{repo: a.repo, feed: feed}, every, a.log)
	if err != nil {
		return err
	}

	feed.SetSearch(ctx, search)
	states, unsubscribe := feed.Subscribe()
	defer unsubscribe()

	sched.Start()
	defer sched.Stop()

	printed := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case st, ok := <-states:
			if !ok {
				return nil
			}
			if st.Loading {
				continue
			}
			if err := printFeedState(out, &st); err != nil {
				return err
			}
			printed++
			if updates > 0 && printed >= updates {
				return nil
			}
		}
	}
}

func printFeedState(out io.Writer, st *listings.FeedState) error {
	if jsonOutput() {
		return outputJSON(out, st.Listings)
	}

	header := fmt.Sprintf("[%s] %d listings", st.UpdatedAt.Format(time.TimeOnly), len(st.Listings))
	if st.Search != "" {
		header += fmt.Sprintf(" matching %q", st.Search)
	}
	if st.Err != nil {
		header += fmt.Sprintf(" (refresh failed: %v)", st.Err)
	}
	if _, err := fmt.Fprintln(out, header); err != nil {
		return err
	}
	if len(st.Listings) == 0 {
		return nil
	}
	return printListingsTable(out, st.Listings)
}

func listingsCreateCmd() *cobra.Command {
	var (
		in        domain.CreateListingInput
		category  string
		condition string
		photos    []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Post a new listing",
		Long: "Post a new listing and attach up to 5 photos. The listing is\n" +
			"created first; if the photo upload then fails, the listing stays\n" +
			"posted without photos.",
		Example: `  # Post a listing with two photos
  cmart listings create --title "Desk lamp" --description "Barely used" \
    --price 4500 --category home --photo lamp1.jpg --photo lamp2.jpg`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(photos) > domain.MaxPhotos {
				return fmt.Errorf("at most %d photos per listing (got %d)", domain.MaxPhotos, len(photos))
			}

			if cmd.Flags().Changed("category") {
				in.Category = &category
			}
			if cmd.Flags().Changed("condition") {
				in.Condition = &condition
			}

			files, closeFiles, err := openPhotos(photos)
			if err != nil {
				return err
			}
			defer closeFiles()

			a, err := newApp()
			if err != nil {
				return err
			}

			l, uploads, err := a.repo.Submit(cmd.Context(), &in, files)
			if l == nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput() {
				if jerr := outputJSON(out, struct {
					Listing *domain.Listing              `json:"listing"`
					Photos  []domain.PhotoUploadResponse `json:"photos"`
				}{l, uploads}); jerr != nil {
					return jerr
				}
				return err
			}

			if _, perr := fmt.Fprintf(out, "Created listing %d\n\n", l.ID); perr != nil {
				return perr
			}
			vm := listings.NewViewModel(*l)
			if perr := printListingDetail(out, &vm); perr != nil {
				return perr
			}
			if len(uploads) > 0 {
				if perr := printUploads(out, uploads); perr != nil {
					return perr
				}
			}
			if errors.Is(err, listings.ErrPhotoUpload) {
				return fmt.Errorf("listing %d has no photos: %w", l.ID, err)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "listing title (required)")
	cmd.Flags().StringVar(&in.Description, "description", "", "listing description")
	cmd.Flags().StringVar(&in.Price, "price", "", "price in major units, e.g. 49.99 (required)")
	cmd.Flags().StringVar(&in.Currency, "currency", "", "ISO currency code (default KZT)")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().StringVar(&condition, "condition", "", "condition, e.g. new or used")
	cmd.Flags().StringArrayVar(&photos, "photo", nil, "photo file to attach (repeatable, up to 5)")
	cobra.CheckErr(cmd.MarkFlagRequired("title"))
	cobra.CheckErr(cmd.MarkFlagRequired("price"))
	return cmd
}

// openPhotos opens every path up front so a missing file fails before the
// listing is created.
func openPhotos(paths []string) ([]client.PhotoFile, func(), error) {
	var (
		files   []client.PhotoFile
		closers []io.Closer
	)
	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	for _, p := range paths {
		f, err := os.Open(p) //nolint:gosec // path from CLI flag
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("opening photo: %w", err)
		}
		closers = append(closers, f)

		ct := mime.TypeByExtension(filepath.Ext(p))
		if ct == "" {
			ct = "application/octet-stream"
		}
		files = append(files, client.PhotoFile{
			Filename:    filepath.Base(p),
			ContentType: ct,
			Data:        f,
		})
	}

	return files, closeAll, nil
}
