package output

import (
	"context"

	"fishshop/internal/domain"
)

// CommerceClient interface - Output port
// Defines what the dialogue needs from the commerce platform. All
// operations are authenticated HTTP calls; the implementation owns the
// bearer credential and renews it transparently before expiry.
type CommerceClient interface {
	// GetProducts returns the full catalog page. A single page is
	// assumed; no pagination handling.
	GetProducts(ctx context.Context) ([]domain.Product, error)

	// GetProduct returns a denormalized product view (price, formatted
	// price, stock level, primary image reference).
	// Returns domain.ErrNotFound if no product matches the id.
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)

	// GetImageURL resolves an image reference to a fetchable URL.
	// Returns domain.ErrNotFound if the reference is invalid.
	GetImageURL(ctx context.Context, imageID string) (string, error)

	// AddCartItem adds the given quantity of a product to the session
	// key's cart. Repeated calls accumulate quantity, not replace it.
	AddCartItem(ctx context.Context, sessionKey, productID string, quantity int) error

	// RemoveCartItem removes one cart line by its item id. Removing an
	// id not in the cart is an upstream rejection, not a crash.
	RemoveCartItem(ctx context.Context, sessionKey, cartItemID string) error

	// GetCart returns the ordered line items and the platform-formatted
	// grand total for the session key's cart.
	GetCart(ctx context.Context, sessionKey string) (*domain.Cart, error)

	// DeleteCart empties the session key's cart.
	DeleteCart(ctx context.Context, sessionKey string) error

	// GetCustomer looks a customer up by id or email. When both are
	// empty it returns ("", nil): nothing to look up is not an error.
	GetCustomer(ctx context.Context, customerID, email string) (string, error)

	// GetOrCreateCustomer creates a customer and returns its id. A
	// duplicate-email rejection falls back to a lookup by that email
	// and returns the existing customer's id. Any other upstream error
	// propagates.
	GetOrCreateCustomer(ctx context.Context, name, email string) (string, error)
}
