package handlers

import domain "github.com/donaldgifford/classmart/pkg/types"

var janeSeller = domain.Seller{
	ID:        11,
	Username:  "jane_smith",
	FirstName: "Jane",
	LastName:  "Smith",
}

// Seed fills the store with a few sample listings and returns how many it
// added.
func Seed(s *MemoryStore) int {
	samples := []struct {
		seller domain.Seller
		in     NewListing
	}{
		{demoSeller, NewListing{
			Title:           "MacBook Pro 16-inch (2023)",
			Description:     "Excellent condition, barely used. Includes original charger and box.",
			PriceMinorUnits: 180000000,
			Currency:        "KZT",
			Category:        strPtr("electronics"),
			Condition:       strPtr("like_new"),
		}},
		{janeSeller, NewListing{
			Title:           "Calculus Textbook - 9th Edition",
			Description:     "Some highlighting but all pages intact. Great for math students.",
			PriceMinorUnits: 500000,
			Currency:        "KZT",
			Category:        strPtr("textbooks"),
			Condition:       strPtr("good"),
		}},
		{demoSeller, NewListing{
			Title:           "Mountain Bike - Trek Marlin 7",
			Description:     "Serviced last month, new brake pads.",
			PriceMinorUnits: 15000000,
			Currency:        "KZT",
			Category:        strPtr("sports"),
			Condition:       strPtr("good"),
		}},
		{janeSeller, NewListing{
			Title:           "Winter Jacket - North Face",
			Description:     "Size M, worn one season.",
			PriceMinorUnits: 2500000,
			Currency:        "KZT",
			Category:        strPtr("clothing"),
			Condition:       strPtr("like_new"),
		}},
		{demoSeller, NewListing{
			Title:           "Study Desk with Chair",
			Description:     "Pick up from dorm 3.",
			PriceMinorUnits: 1500000,
			Currency:        "KZT",
			Category:        strPtr("furniture"),
		}},
	}

	for i := range samples {
		s.Create(&samples[i].seller, &samples[i].in)
	}
	return len(samples)
}

func strPtr(s string) *string { return &s }
