package output

import (
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/storefront/internal/auth"
	"github.com/agentstation/storefront/internal/normalize"
)

// StoresTable lays stores out as rows. Wide adds the address parts and
// coordinates.
func StoresTable(stores []normalize.StoreRecord, wide bool) Data {
	keys := []string{"id", "name", "address", "contact", "email"}
	if wide {
		keys = append(keys, "city", "state", "postal_code", "country", "lat", "lng", "website")
	}

	data := Data{Headers: headers(keys)}
	for _, s := range stores {
		row := []string{s.ID, s.Name, s.Address, s.Contact, s.Email}
		if wide {
			c := s.AddressComponents
			row = append(row, c.City, c.State, c.PostalCode, c.Country,
				coord(s.Coordinates.Lat), coord(s.Coordinates.Lng), s.Website)
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}

// ReviewsTable lays reviews out as rows. Wide adds the store reference and
// image links.
func ReviewsTable(reviews []normalize.ReviewRecord, wide bool) Data {
	keys := []string{"id", "customer", "rating", "date", "review"}
	align := []Align{AlignLeft, AlignLeft, AlignRight, AlignLeft, AlignLeft}
	if wide {
		keys = append(keys, "store", "store_id", "images")
		align = append(align, AlignLeft, AlignLeft, AlignLeft)
	}

	data := Data{Headers: headers(keys), ColumnAlignment: align}
	for _, r := range reviews {
		rating := "-"
		if r.Rating != nil {
			rating = strconv.Itoa(*r.Rating)
		}
		row := []string{r.ID, r.CustomerName, rating, r.Date, r.Text}
		if wide {
			row = append(row, r.StoreRef, r.StoreID, strings.Join(r.Images, " "))
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}

// TokenStatusTable describes a token source without revealing the token.
func TokenStatusTable(st auth.Status, now time.Time) Data {
	data := Data{Headers: []string{"Property", "Value"}}
	data.Rows = append(data.Rows, []string{"State", st.State.String()})
	if !st.ExpiresAt.IsZero() {
		data.Rows = append(data.Rows,
			[]string{"Expires At", st.ExpiresAt.UTC().Format(time.RFC3339)},
			[]string{"Expires In", st.ExpiresAt.Sub(now).Round(time.Second).String()},
		)
	}
	data.Rows = append(data.Rows, []string{"Refreshes", strconv.FormatInt(st.Refreshes, 10)})
	return data
}

func headers(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = Title(k)
	}
	return out
}

func coord(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
