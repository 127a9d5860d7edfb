// internal/cart/mutations.go
package cart

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/storage"
)

// snapshot captures what an optimistic write replaced, for compensation.
type snapshot struct {
	lines     []models.CartLine
	version   uint64
	productID string
	prev      *models.CartLine
	prevIndex int
}

// AddLine adds one unit of product. An existing line keeps its id and gains a unit.
func (s *Store) AddLine(ctx context.Context, product models.ProductSnapshot, ownerID, locale string) {
	if product.ID == "" {
		s.logger.Warn("Ignoring add of product without id")
		return
	}

	s.begin()
	defer s.end()

	release, err := s.lockProduct(ctx, product.ID)
	if err != nil {
		s.recordError(err, locale)
		return
	}
	defer release()

	var target models.CartLine
	snap := s.apply(ctx, product.ID, func(lines []models.CartLine, idx int) []models.CartLine {
		if idx >= 0 {
			target = lines[idx]
			target.Quantity++
			lines[idx] = target
			return lines
		}

		owner := ownerID
		if owner == "" {
			owner = models.OwnerGuest
		}
		target = models.CartLine{
			ID:          s.newID(),
			ProductID:   product.ID,
			OwnerID:     owner,
			Name:        product.Name,
			Description: product.Description,
			UnitPrice:   product.Price,
			Image:       product.FirstImage(),
			Quantity:    1,
		}
		return append(lines, target)
	})

	if ownerID == "" {
		return
	}

	s.forward(ctx, snap, ownerID, locale, func(ctx context.Context) error {
		return s.gateway.UpsertCartLine(ctx, models.LineUpsert{
			OwnerID:   ownerID,
			ProductID: product.ID,
			Quantity:  target.Quantity,
		}, locale)
	})
}

// RemoveLine drops the line for productID. Absent products are a no-op.
func (s *Store) RemoveLine(ctx context.Context, productID, ownerID, locale string) {
	s.SetQuantity(ctx, productID, 0, ownerID, locale)
}

// SetQuantity replaces a line's quantity; quantity <= 0 removes the line.
// Absent products are a no-op.
func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int, ownerID, locale string) {
	if !s.has(productID) {
		return
	}

	s.begin()
	defer s.end()

	release, err := s.lockProduct(ctx, productID)
	if err != nil {
		s.recordError(err, locale)
		return
	}
	defer release()

	if !s.has(productID) {
		return
	}

	if quantity < 0 {
		quantity = 0
	}

	snap := s.apply(ctx, productID, func(lines []models.CartLine, idx int) []models.CartLine {
		if quantity == 0 {
			return append(lines[:idx], lines[idx+1:]...)
		}
		line := lines[idx]
		line.Quantity = quantity
		lines[idx] = line
		return lines
	})

	if ownerID == "" {
		return
	}

	s.forward(ctx, snap, ownerID, locale, func(ctx context.Context) error {
		return s.gateway.UpsertCartLine(ctx, models.LineUpsert{
			OwnerID:   ownerID,
			ProductID: productID,
			Quantity:  quantity,
		}, locale)
	})
}

// Clear empties the cart, remotely too when an owner is present.
func (s *Store) Clear(ctx context.Context, ownerID, locale string) {
	s.begin()
	defer s.end()

	s.clearMu.Lock()
	defer s.clearMu.Unlock()

	snap := &snapshot{}
	s.transition(ctx, func() {
		snap.lines = models.CloneLines(s.lines)
		s.lines = []models.CartLine{}
		snap.version = s.version + 1
	})

	if ownerID == "" {
		return
	}

	s.forward(ctx, snap, ownerID, locale, func(ctx context.Context) error {
		token, err := storage.GetString(ctx, s.storage, storage.KeyToken)
		if err != nil {
			return fmt.Errorf("failed to read auth token: %w", err)
		}
		return s.gateway.ClearCart(ctx, ownerID, locale, token)
	})
}

// forward runs the remote write, then reconciles. A failed write is compensated;
// a failed reconcile only records the error.
func (s *Store) forward(ctx context.Context, snap *snapshot, ownerID, locale string, remote func(context.Context) error) {
	if err := remote(ctx); err != nil {
		s.rollback(ctx, snap)
		s.recordError(err, locale)
		s.logger.WithError(err).WithFields(logrus.Fields{
			"owner_id":   ownerID,
			"product_id": snap.productID,
		}).Warn("Remote cart write failed, rolled back")
		return
	}

	if err := s.reconcile(ctx, ownerID, locale, snap.productID); err != nil {
		s.recordError(err, locale)
		s.logger.WithError(err).WithField("owner_id", ownerID).Warn("Cart reconciliation failed")
	}
}

// apply runs an optimistic line mutation for productID and returns what it replaced.
func (s *Store) apply(ctx context.Context, productID string, fn func(lines []models.CartLine, idx int) []models.CartLine) *snapshot {
	snap := &snapshot{productID: productID, prevIndex: -1}

	s.transition(ctx, func() {
		snap.lines = models.CloneLines(s.lines)
		idx := indexOf(s.lines, productID)
		if idx >= 0 {
			prev := s.lines[idx]
			snap.prev = &prev
			snap.prevIndex = idx
		}
		s.lines = fn(models.CloneLines(s.lines), idx)
		snap.version = s.version + 1
	})

	return snap
}

// rollback restores the snapshot exactly when nothing else has changed the cart since;
// otherwise it only undoes this mutation's own product.
func (s *Store) rollback(ctx context.Context, snap *snapshot) {
	s.transition(ctx, func() {
		if s.version == snap.version {
			s.lines = snap.lines
			return
		}

		if snap.productID == "" {
			s.lines = restoreMissing(snap.lines, s.lines)
			return
		}

		lines := models.CloneLines(s.lines)
		if idx := indexOf(lines, snap.productID); idx >= 0 {
			lines = append(lines[:idx], lines[idx+1:]...)
		}
		if snap.prev != nil {
			at := snap.prevIndex
			if at > len(lines) {
				at = len(lines)
			}
			lines = append(lines[:at], append([]models.CartLine{*snap.prev}, lines[at:]...)...)
		}
		s.lines = lines
	})
}

// restoreMissing puts back snapshot lines the current state lost, keeping newer lines.
func restoreMissing(snapshotLines, current []models.CartLine) []models.CartLine {
	out := models.CloneLines(snapshotLines)
	for _, line := range current {
		if indexOf(out, line.ProductID) < 0 {
			out = append(out, line)
		}
	}
	return out
}

func (s *Store) has(productID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexOf(s.lines, productID) >= 0
}

// lockProduct serializes mutations of one product and excludes concurrent Clear.
func (s *Store) lockProduct(ctx context.Context, productID string) (func(), error) {
	s.clearMu.RLock()
	release, err := s.locks.acquire(ctx, productID)
	if err != nil {
		s.clearMu.RUnlock()
		return nil, err
	}
	return func() {
		release()
		s.clearMu.RUnlock()
	}, nil
}
