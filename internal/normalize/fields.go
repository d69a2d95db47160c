package normalize

// Precedence tables for every output field. Earlier entries win; a value
// that is absent, blank or of the wrong shape falls through to the next.
var (
	storeID = Strings("ID", "id")

	storeName = Table[string]{
		{Paths: Paths("Name", "Name.zc_display_value", "Name.display_value", "Store_Name"), Coerce: AsString},
		{Paths: Paths("Name"), Coerce: AsPersonName},
	}

	storeFirstName = Strings("Name.first_name", "First_Name")

	storeContact = Strings("Contact", "Phone", "Phone_Number", "Contact_Number")
	storeEmail   = Strings("Email", "Email_Address")
	storeWebsite = Strings("Website", "Website.url", "Website.value", "URL")

	// A precomposed rendering of the whole address.
	addressDisplay = Strings(
		"Address.display_value",
		"Address.zc_display_value",
		"Address",
		"Full_Address",
	)

	// Structured address fields, in the order they are joined.
	addressStructured = []Table[string]{
		Strings("Address.address_line_1"),
		Strings("Address.address_line_2"),
		Strings("Address.district_city", "Address.city"),
		Strings("Address.state_province", "Address.state"),
		Strings("Address.postal_code", "Address.zip_code", "Address.zip"),
		Strings("Address.country"),
	}

	// Legacy flat fields from before the address became a composite.
	addressLegacy = []Table[string]{
		Strings("Address_Line_1", "Street", "Address1"),
		Strings("Address_Line_2", "Address2"),
		Strings("City"),
		Strings("State", "Province"),
		Strings("Zip", "Zip_Code", "Postal_Code"),
		Strings("Country"),
	}

	latitude = Table[float64]{
		{Paths: Paths("Address.latitude", "Latitude", "lat", "Lat", "Location.latitude"), Coerce: AsFloat},
	}
	longitude = Table[float64]{
		{Paths: Paths("Address.longitude", "Longitude", "lng", "Lng", "Location.longitude"), Coerce: AsFloat},
	}
)

var (
	reviewID = Strings("ID", "id")

	reviewCustomer = Table[string]{
		{Paths: Paths("Customer", "Customer.zc_display_value", "Customer.display_value"), Coerce: AsString},
		{Paths: Paths("Customer"), Coerce: AsPersonName},
		{Paths: Paths("Customer_Name", "Customer_name"), Coerce: AsString},
	}

	reviewRating = Table[int]{{Paths: Paths("Rating", "Stars"), Coerce: AsInt}}
	reviewText   = Strings("Review", "Review_Text", "Comment")
	reviewDate   = Strings("Rating_Date", "Review_Date", "Date", "Added_Time")
	reviewImages = Table[[]string]{{Paths: Paths("Image", "Images", "Photo"), Coerce: AsURLs}}

	reviewStoreRef = Strings(
		"Store.zc_display_value",
		"Store.display_value",
		"Store",
		"Store.first_name",
		"Store_Name",
	)
	reviewStoreID        = Strings("Store.ID", "Store.id", "Store_ID")
	reviewStoreFirstName = Strings("Store.first_name")
)
