package normalize

import (
	"strings"

	"github.com/agentstation/storefront/internal/utils/ptr"
)

// AddressComponents are the individual parts of a store address.
type AddressComponents struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Coordinates hold a parsed position. Either side is nil when the upstream
// value is absent or not a finite number.
type Coordinates struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// StoreRecord is the stable client-facing shape of a store.
type StoreRecord struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	FirstName         string            `json:"firstName"`
	Address           string            `json:"address"`
	AddressComponents AddressComponents `json:"addressComponents"`
	Coordinates       Coordinates       `json:"coordinates"`
	Contact           string            `json:"contact"`
	Email             string            `json:"email"`
	Website           string            `json:"website"`
}

// Store normalizes one raw store row. It never fails; fields that cannot
// be resolved are left at their empty value.
func Store(raw Record) StoreRecord {
	name := storeName.ResolveOr(raw, "")
	return StoreRecord{
		ID:                storeID.ResolveOr(raw, ""),
		Name:              name,
		FirstName:         storeFirstName.ResolveOr(raw, name),
		Address:           Address(raw),
		AddressComponents: components(raw),
		Coordinates:       coordinates(raw),
		Contact:           storeContact.ResolveOr(raw, ""),
		Email:             storeEmail.ResolveOr(raw, ""),
		Website:           storeWebsite.ResolveOr(raw, ""),
	}
}

// Stores normalizes every row. The result is never nil.
func Stores(raws []Record) []StoreRecord {
	out := make([]StoreRecord, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Store(raw))
	}
	return out
}

// Address resolves the single-line address: a precomposed display string
// first, then the structured parts joined with ", ", then the legacy flat
// fields. It is empty only when none of them are present.
func Address(raw Record) string {
	if s, ok := addressDisplay.Resolve(raw); ok {
		return s
	}
	if s := join(raw, addressStructured); s != "" {
		return s
	}
	return join(raw, addressLegacy)
}

func join(raw Record, parts []Table[string]) string {
	var out []string
	for _, part := range parts {
		if s, ok := part.Resolve(raw); ok {
			out = append(out, s)
		}
	}
	return strings.Join(out, ", ")
}

// components prefers the structured address and fills gaps from the
// legacy flat fields.
func components(raw Record) AddressComponents {
	get := func(i int) string {
		if s, ok := addressStructured[i].Resolve(raw); ok {
			return s
		}
		return addressLegacy[i].ResolveOr(raw, "")
	}
	return AddressComponents{
		Line1:      get(0),
		Line2:      get(1),
		City:       get(2),
		State:      get(3),
		PostalCode: get(4),
		Country:    get(5),
	}
}

func coordinates(raw Record) Coordinates {
	var c Coordinates
	if lat, ok := latitude.Resolve(raw); ok {
		c.Lat = ptr.Finite(lat)
	}
	if lng, ok := longitude.Resolve(raw); ok {
		c.Lng = ptr.Finite(lng)
	}
	return c
}
