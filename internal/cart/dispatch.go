// internal/cart/dispatch.go
package cart

import (
	"context"
	"fmt"

	"github.com/javajoker/storefront/internal/models"
)

// Action is an intent sent to the store through Dispatch.
type Action interface {
	isAction()
}

type AddLine struct {
	Product models.ProductSnapshot
	OwnerID string
	Locale  string
}

type RemoveLine struct {
	ProductID string
	OwnerID   string
	Locale    string
}

type SetQuantity struct {
	ProductID string
	Quantity  int
	OwnerID   string
	Locale    string
}

type Clear struct {
	OwnerID string
	Locale  string
}

type Reconcile struct {
	OwnerID string
	Locale  string
}

type Logout struct{}

func (AddLine) isAction()     {}
func (RemoveLine) isAction()  {}
func (SetQuantity) isAction() {}
func (Clear) isAction()       {}
func (Reconcile) isAction()   {}
func (Logout) isAction()      {}

// Dispatch routes an action to its operation. Remote failures land on the state;
// the returned error is only for actions the store does not know.
func (s *Store) Dispatch(ctx context.Context, action Action) error {
	switch a := action.(type) {
	case AddLine:
		s.AddLine(ctx, a.Product, a.OwnerID, a.Locale)
	case RemoveLine:
		s.RemoveLine(ctx, a.ProductID, a.OwnerID, a.Locale)
	case SetQuantity:
		s.SetQuantity(ctx, a.ProductID, a.Quantity, a.OwnerID, a.Locale)
	case Clear:
		s.Clear(ctx, a.OwnerID, a.Locale)
	case Reconcile:
		s.Reconcile(ctx, a.OwnerID, a.Locale)
	case Logout:
		s.Logout()
	default:
		return fmt.Errorf("%w: %T", ErrUnknownAction, action)
	}
	return nil
}
