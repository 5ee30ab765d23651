package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/donaldgifford/classmart/internal/identity"
	domain "github.com/donaldgifford/classmart/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printListingsTable(w io.Writer, vms []domain.ListingViewModel) error {
	tw := newTabWriter(w)
	tw.writef("ID\tTITLE\tPRICE\tCATEGORY\tCONDITION\tPHOTOS\tSELLER\n")
	for i := range vms {
		vm := &vms[i]
		tw.writef("%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
			vm.ID,
			truncate(vm.Title, 40),
			vm.PriceLabel,
			orDash(vm.Category),
			orDash(vm.Condition),
			len(vm.Photos),
			sellerName(&vm.Listing),
		)
	}
	return tw.finish()
}

func printListingDetail(w io.Writer, vm *domain.ListingViewModel) error {
	tw := newTabWriter(w)
	tw.writef("ID:\t%d\n", vm.ID)
	tw.writef("Title:\t%s\n", vm.Title)
	tw.writef("Description:\t%s\n", vm.Description)
	tw.writef("Price:\t%s\n", vm.PriceLabel)
	tw.writef("Category:\t%s\n", orDash(vm.Category))
	tw.writef("Condition:\t%s\n", orDash(vm.Condition))
	tw.writef("Seller:\t%s\n", sellerName(&vm.Listing))
	tw.writef("Contact:\t%s\n", vm.SellerContactLink())
	if img := vm.ImageURL; img != "" {
		if strings.HasPrefix(img, "data:") {
			img = truncate(img, 60)
		}
		tw.writef("Image:\t%s\n", img)
	}
	for i := range vm.Photos {
		p := &vm.Photos[i]
		tw.writef("Photo %d:\t%s\n", i+1, p.PhotoURL)
	}
	if !vm.CreatedAt.IsZero() {
		tw.writef("Created:\t%s\n", vm.CreatedAt.Format(time.DateTime))
	}
	return tw.finish()
}

func printUploads(w io.Writer, uploads []domain.PhotoUploadResponse) error {
	tw := newTabWriter(w)
	for i := range uploads {
		tw.writef("Photo %d:\t%s\n", i+1, uploads[i].URL)
	}
	return tw.finish()
}

func printIdentity(w io.Writer, st *identity.State) error {
	tw := newTabWriter(w)
	tw.writef("Status:\t%s\n", st.Status)
	tw.writef("Authenticated:\t%v\n", st.Authenticated)
	if u := st.User; u != nil {
		tw.writef("ID:\t%d\n", u.ID)
		tw.writef("Name:\t%s\n", u.DisplayName())
		if u.Username != "" {
			tw.writef("Username:\t@%s\n", u.Username)
		}
		tw.writef("Contact:\t%s\n", u.ContactLink())
	} else {
		tw.writef("User:\t-\n")
	}
	if st.Err != "" {
		tw.writef("Error:\t%s\n", st.Err)
	}
	return tw.finish()
}

func sellerName(l *domain.Listing) string {
	if l.Seller == nil {
		return fmt.Sprintf("#%d", l.SellerID)
	}
	if l.Seller.Username != "" {
		return "@" + l.Seller.Username
	}
	return strings.TrimSpace(l.Seller.FirstName + " " + l.Seller.LastName)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
