package normalize

import "github.com/agentstation/storefront/internal/utils/ptr"

// ReviewRecord is the stable client-facing shape of a review.
type ReviewRecord struct {
	ID           string   `json:"id"`
	CustomerName string   `json:"customerName"`
	Rating       *int     `json:"rating"`
	Text         string   `json:"text"`
	Images       []string `json:"images"`
	Image        *string  `json:"image"`
	Date         string   `json:"date"`
	StoreRef     string   `json:"storeRef"`
	StoreID      string   `json:"storeId"`

	// StoreFirstName is the store's first_name as referenced by the
	// review, which is what the report criteria filter on.
	StoreFirstName string `json:"-"`
}

// Review normalizes one raw review row. It never fails; fields that cannot
// be resolved are left at their empty value.
func Review(raw Record) ReviewRecord {
	r := ReviewRecord{
		ID:           reviewID.ResolveOr(raw, ""),
		CustomerName: reviewCustomer.ResolveOr(raw, ""),
		Text:         reviewText.ResolveOr(raw, ""),
		Images:       reviewImages.ResolveOr(raw, []string{}),
		Date:         reviewDate.ResolveOr(raw, ""),
		StoreRef:     reviewStoreRef.ResolveOr(raw, ""),
		StoreID:      reviewStoreID.ResolveOr(raw, ""),

		StoreFirstName: reviewStoreFirstName.ResolveOr(raw, ""),
	}
	if rating, ok := reviewRating.Resolve(raw); ok {
		r.Rating = ptr.To(rating)
	}
	if len(r.Images) > 0 {
		r.Image = ptr.To(r.Images[0])
	}
	return r
}

// Reviews normalizes every row. The result is never nil.
func Reviews(raws []Record) []ReviewRecord {
	out := make([]ReviewRecord, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Review(raw))
	}
	return out
}
