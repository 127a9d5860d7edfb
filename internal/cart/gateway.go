// internal/cart/gateway.go
package cart

import (
	"context"

	"github.com/javajoker/storefront/internal/models"
)

// Gateway is the remote, backend-authoritative cart.
type Gateway interface {
	FetchCart(ctx context.Context, ownerID, locale string) ([]models.CartLine, error)
	// UpsertCartLine writes one line; Quantity 0 removes it remotely.
	UpsertCartLine(ctx context.Context, line models.LineUpsert, locale string) error
	ClearCart(ctx context.Context, ownerID, locale, authToken string) error
}
