package domain

// Commerce platform projections - read-only views fetched on demand,
// never cached beyond a single handler invocation

// Product represents a catalog product as the dialogue needs it:
// denormalized price, stock level and a reference to the primary image
type Product struct {
	ID             string
	Name           string
	Description    string
	Price          int    // minor currency units
	PriceFormatted string // display price as the platform formats it
	Availability   int    // stock level
	ImageID        string
}

// CartItem represents one line in a cart. Prices come pre-formatted
// from the platform.
type CartItem struct {
	ID          string
	ProductID   string
	Name        string
	Description string
	Quantity    int
	UnitPrice   string
	TotalPrice  string
}

// Cart represents the full cart for one session key with the
// platform-formatted grand total
type Cart struct {
	Items      []CartItem
	TotalPrice string
}

// Customer represents a commerce platform customer
type Customer struct {
	ID    string
	Name  string
	Email string
}
