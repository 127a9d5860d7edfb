// internal/cart/reconcile.go
package cart

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/storage"
)

// Reconcile merges the guest cart into the owner's remote cart. It is a no-op without
// an owner or a stored auth token.
func (s *Store) Reconcile(ctx context.Context, ownerID, locale string) {
	if ownerID == "" || ownerID == models.OwnerGuest {
		return
	}

	s.begin()
	defer s.end()

	if err := s.reconcile(ctx, ownerID, locale, ""); err != nil {
		s.recordError(err, locale)
		s.logger.WithError(err).WithField("owner_id", ownerID).Warn("Cart reconciliation failed")
	}
}

// reconcile merges and pushes back. held names the product whose lock the caller
// already owns, if any.
func (s *Store) reconcile(ctx context.Context, ownerID, locale, held string) error {
	token, err := storage.GetString(ctx, s.storage, storage.KeyToken)
	if err != nil {
		return fmt.Errorf("failed to read auth token: %w", err)
	}
	if token == "" {
		return nil
	}

	remote, err := s.gateway.FetchCart(ctx, ownerID, locale)
	if err != nil {
		return fmt.Errorf("failed to fetch remote cart: %w", err)
	}

	var merged, carried []models.CartLine
	s.transition(ctx, func() {
		merged, carried = s.mergeLines(remote, s.lines, ownerID)
		s.lines = merged
	})

	s.logger.WithFields(logrus.Fields{
		"owner_id": ownerID,
		"remote":   len(merged) - len(carried),
		"carried":  len(carried),
	}).Debug("Cart reconciled")

	push := carried
	if s.repushRemote {
		push = merged
	}
	if err := s.pushBack(ctx, push, ownerID, locale, held); err != nil {
		return fmt.Errorf("failed to push merged cart: %w", err)
	}
	return nil
}

// mergeLines keeps remote lines as authoritative and appends local guest or owner
// lines whose product is not remote, re-owned to ownerID. It returns the merged list
// and the carried local lines.
func (s *Store) mergeLines(remote, local []models.CartLine, ownerID string) ([]models.CartLine, []models.CartLine) {
	merged := make([]models.CartLine, 0, len(remote)+len(local))
	for _, line := range remote {
		if line.ProductID == "" || line.Quantity <= 0 || indexOf(merged, line.ProductID) >= 0 {
			continue
		}
		if line.ID == "" {
			line.ID = s.newID()
		}
		if line.OwnerID == "" {
			line.OwnerID = ownerID
		}
		merged = append(merged, line)
	}

	var carried []models.CartLine
	for _, line := range local {
		if !line.IsGuest() && line.OwnerID != ownerID {
			continue
		}
		if indexOf(merged, line.ProductID) >= 0 {
			continue
		}
		line.OwnerID = ownerID
		merged = append(merged, line)
		carried = append(carried, line)
	}

	return merged, carried
}

// pushBack upserts lines to the remote, sequentially unless push concurrency allows more.
// Each line is pushed under its product lock with the quantity current at push time.
// A product locked by another mutation is skipped: that mutation writes it remotely
// and reconciles again, or rolls it back.
func (s *Store) pushBack(ctx context.Context, lines []models.CartLine, ownerID, locale, held string) error {
	upsert := func(ctx context.Context, line models.CartLine) error {
		if line.ProductID != held {
			release, ok := s.locks.tryAcquire(line.ProductID)
			if !ok {
				s.logger.WithField("product_id", line.ProductID).Debug("Product busy, skipping push")
				return nil
			}
			defer release()
		}

		quantity, ok := s.quantityOf(line.ProductID)
		if !ok {
			return nil
		}
		return s.gateway.UpsertCartLine(ctx, models.LineUpsert{
			OwnerID:   ownerID,
			ProductID: line.ProductID,
			Quantity:  quantity,
		}, locale)
	}

	if s.pushConcurrency <= 1 {
		for _, line := range lines {
			if err := upsert(ctx, line); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.pushConcurrency)
	for _, line := range lines {
		line := line
		g.Go(func() error {
			return upsert(gctx, line)
		})
	}
	return g.Wait()
}

func (s *Store) quantityOf(productID string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := indexOf(s.lines, productID); idx >= 0 {
		return s.lines[idx].Quantity, true
	}
	return 0, false
}
