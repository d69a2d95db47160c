package normalize

// MatchReviews returns the reviews whose store reference or store first
// name equals storeName. Comparison is exact and case-sensitive. The result
// is never nil.
func MatchReviews(storeName string, reviews []ReviewRecord) []ReviewRecord {
	out := make([]ReviewRecord, 0)
	if storeName == "" {
		return out
	}
	for _, r := range reviews {
		if r.Names(storeName) {
			out = append(out, r)
		}
	}
	return out
}

// Names reports whether the review references the store called storeName,
// by display name or first name.
func (r ReviewRecord) Names(storeName string) bool {
	return storeName != "" && (r.StoreRef == storeName || r.StoreFirstName == storeName)
}

// StoreWithReviews is a store joined with the reviews that name it.
// Rating and Review come from the first matching review in report order
// and are nil when nothing matches.
type StoreWithReviews struct {
	StoreRecord
	Rating        *int     `json:"rating"`
	Review        *string  `json:"review"`
	ReviewCount   int      `json:"reviewCount"`
	AverageRating *float64 `json:"averageRating"`
}

// Attach joins every store with its reviews using the same rule as
// MatchReviews.
func Attach(stores []StoreRecord, reviews []ReviewRecord) []StoreWithReviews {
	byStore := make(map[string][]ReviewRecord)
	for _, r := range reviews {
		if r.StoreRef != "" {
			byStore[r.StoreRef] = append(byStore[r.StoreRef], r)
		}
		if r.StoreFirstName != "" && r.StoreFirstName != r.StoreRef {
			byStore[r.StoreFirstName] = append(byStore[r.StoreFirstName], r)
		}
	}

	out := make([]StoreWithReviews, 0, len(stores))
	for _, s := range stores {
		joined := StoreWithReviews{StoreRecord: s}
		matched := byStore[s.Name]
		joined.ReviewCount = len(matched)
		if len(matched) > 0 {
			first := matched[0]
			joined.Rating = first.Rating
			text := first.Text
			joined.Review = &text
			joined.AverageRating = average(matched)
		}
		out = append(out, joined)
	}
	return out
}

func average(reviews []ReviewRecord) *float64 {
	var sum, n int
	for _, r := range reviews {
		if r.Rating != nil {
			sum += *r.Rating
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := float64(sum) / float64(n)
	return &avg
}
