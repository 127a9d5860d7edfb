// internal/checkout/flow.go
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront/internal/cart"
	"github.com/javajoker/storefront/internal/i18n"
	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/money"
	"github.com/javajoker/storefront/internal/storage"
)

var (
	ErrNoOrder        = errors.New("checkout: no completed order")
	ErrCartNotCleared = errors.New("checkout: cart was not cleared")
	ErrNoArchive      = errors.New("checkout: orders are not archived")
)

type CouponGateway interface {
	ApplyCoupon(ctx context.Context, code, countryID string) (models.CouponResult, error)
	FetchCoupons(ctx context.Context) ([]models.Coupon, error)
}

type AddressGateway interface {
	SetDefaultAddress(ctx context.Context, addressID string) error
}

// OrderArchive keeps completed orders beyond the one-shot confirmation snapshot.
type OrderArchive interface {
	Archive(ctx context.Context, order models.OrderSnapshot) error
	ForOwner(ctx context.Context, ownerID string, limit int) ([]models.OrderRecord, error)
}

// appliedCoupon is the persisted form of an accepted coupon.
type appliedCoupon struct {
	Code   string          `json:"code"`
	Amount float64         `json:"amount"`
	Raw    json.RawMessage `json:"raw,omitempty"`
}

// Flow is one session's checkout: coupon state, totals and order completion over
// the session's cart store.
type Flow struct {
	cart           *cart.Store
	coupons        CouponGateway
	addresses      AddressGateway
	storage        storage.Store
	fees           money.Fees
	defaultCountry string
	logger         *logrus.Entry
	now            func() time.Time
	archive        OrderArchive

	mu     sync.RWMutex
	coupon models.CouponState
}

type Option func(*Flow)

func WithFees(fees money.Fees) Option {
	return func(f *Flow) {
		f.fees = fees
	}
}

func WithDefaultCountry(country string) Option {
	return func(f *Flow) {
		f.defaultCountry = country
	}
}

func WithLogger(logger *logrus.Entry) Option {
	return func(f *Flow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(f *Flow) {
		if now != nil {
			f.now = now
		}
	}
}

func WithArchive(archive OrderArchive) Option {
	return func(f *Flow) {
		f.archive = archive
	}
}

func NewFlow(store *cart.Store, coupons CouponGateway, addresses AddressGateway, st storage.Store, opts ...Option) *Flow {
	f := &Flow{
		cart:      store,
		coupons:   coupons,
		addresses: addresses,
		storage:   st,
		fees:      money.DefaultFees(),
		logger:    logrus.NewEntry(logrus.StandardLogger()),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ApplyCoupon validates code remotely. Success stores the discount as a fraction of the
// returned percentage; failure clears any applied discount and its persisted payload.
func (f *Flow) ApplyCoupon(ctx context.Context, code, countryID, locale string) models.CouponState {
	code = strings.TrimSpace(code)
	if code == "" {
		return f.rejectCoupon(ctx, code, i18n.T(locale, i18n.KeyCouponRequired))
	}
	if countryID == "" {
		countryID = f.defaultCountry
	}

	result, err := f.coupons.ApplyCoupon(ctx, code, countryID)
	if err != nil {
		f.logger.WithError(err).WithField("code", code).Info("Coupon rejected")
		return f.rejectCoupon(ctx, code, couponMessage(err, locale))
	}

	state := models.CouponState{
		Code:             code,
		Applied:          true,
		DiscountFraction: result.Amount / 100,
	}

	payload := appliedCoupon{Code: code, Amount: result.Amount, Raw: result.Raw}
	if err := storage.SetJSON(ctx, f.storage, storage.KeyAppliedCoupon, payload); err != nil {
		f.logger.WithError(err).Warn("Failed to persist applied coupon")
	}

	f.mu.Lock()
	f.coupon = state
	f.mu.Unlock()
	return state
}

func (f *Flow) rejectCoupon(ctx context.Context, code, message string) models.CouponState {
	state := models.CouponState{Code: code, Error: message}

	if err := f.storage.Delete(ctx, storage.KeyAppliedCoupon); err != nil {
		f.logger.WithError(err).Warn("Failed to remove persisted coupon")
	}

	f.mu.Lock()
	f.coupon = state
	f.mu.Unlock()
	return state
}

// couponMessage prefers the backend's own message over the generic fallback.
func couponMessage(err error, locale string) string {
	var rm interface{ RemoteMessage() string }
	if errors.As(err, &rm) {
		if msg := strings.TrimSpace(rm.RemoteMessage()); msg != "" {
			return msg
		}
	}
	return i18n.T(locale, i18n.KeyCouponApplyFailed)
}

func (f *Flow) Coupons(ctx context.Context) ([]models.Coupon, error) {
	coupons, err := f.coupons.FetchCoupons(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch coupons: %w", err)
	}
	return coupons, nil
}

func (f *Flow) Coupon() models.CouponState {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.coupon
}

// Totals computes the breakdown over the cart's current lines.
func (f *Flow) Totals() models.Totals {
	return f.TotalsFor(f.cart.Lines())
}

// TotalsFor computes the breakdown over lines taken from an earlier cart snapshot.
func (f *Flow) TotalsFor(lines []models.CartLine) models.Totals {
	return money.ComputeTotals(lines, f.Coupon(), f.fees)
}

func (f *Flow) SetDefaultAddress(ctx context.Context, addressID string) error {
	if err := f.addresses.SetDefaultAddress(ctx, addressID); err != nil {
		return fmt.Errorf("failed to set default address: %w", err)
	}
	return nil
}

// Restore rebuilds the coupon state from its persisted payload after a reload.
func (f *Flow) Restore(ctx context.Context) models.CouponState {
	var saved appliedCoupon
	found, err := storage.GetJSON(ctx, f.storage, storage.KeyAppliedCoupon, &saved)
	if err != nil {
		f.logger.WithError(err).Warn("Failed to restore coupon")
	}
	if err != nil || !found || saved.Code == "" {
		return f.Coupon()
	}

	state := models.CouponState{
		Code:             saved.Code,
		Applied:          true,
		DiscountFraction: saved.Amount / 100,
	}
	f.mu.Lock()
	f.coupon = state
	f.mu.Unlock()
	return state
}

// Leave resets the coupon when the shopper navigates away from checkout.
func (f *Flow) Leave(ctx context.Context) {
	f.mu.Lock()
	f.coupon = models.CouponState{}
	f.mu.Unlock()

	if err := f.storage.Delete(ctx, storage.KeyAppliedCoupon); err != nil {
		f.logger.WithError(err).Warn("Failed to remove persisted coupon")
	}
}

// Complete records the order snapshot for the confirmation view, drops the coupon and
// clears the cart. Payment has already been taken by the caller. When the cart cannot
// be cleared the saved order is returned with an error wrapping ErrCartNotCleared.
func (f *Flow) Complete(ctx context.Context, confirmation models.OrderConfirmation, ownerID, locale string) (models.OrderSnapshot, error) {
	coupon := f.Coupon()
	lines := f.cart.Lines()

	order := models.OrderSnapshot{
		OrderID:       confirmation.OrderID,
		OwnerID:       ownerID,
		Lines:         lines,
		Totals:        money.ComputeTotals(lines, coupon, f.fees),
		PaymentMethod: confirmation.PaymentMethod,
		AddressID:     confirmation.AddressID,
		Locale:        i18n.Normalize(locale),
		CompletedAt:   f.now().UTC(),
	}
	if order.OrderID == "" {
		order.OrderID = uuid.NewString()
	}
	if coupon.Applied {
		order.CouponCode = coupon.Code
	}

	if err := storage.SetJSON(ctx, f.storage, storage.KeyLastOrder, order); err != nil {
		return models.OrderSnapshot{}, fmt.Errorf("failed to save order snapshot: %w", err)
	}

	if f.archive != nil {
		if err := f.archive.Archive(ctx, order); err != nil {
			f.logger.WithError(err).WithField("order_id", order.OrderID).Warn("Failed to archive order")
		}
	}

	f.Leave(ctx)
	f.cart.Clear(ctx, ownerID, locale)

	// The order stands once saved; a cart left behind is reported alongside it.
	if state := f.cart.State(); len(state.Lines) > 0 {
		reason := "cart still has lines"
		if state.Error != nil {
			reason = state.Error.Message
		}
		f.logger.WithFields(logrus.Fields{
			"order_id": order.OrderID,
			"owner_id": ownerID,
		}).Warn("Checkout completed but the cart was not cleared")
		return order, fmt.Errorf("%w: %s", ErrCartNotCleared, reason)
	}

	f.logger.WithFields(logrus.Fields{
		"order_id": order.OrderID,
		"owner_id": ownerID,
		"lines":    len(lines),
		"total":    order.Totals.DiscountedTotal.StringFixed(2),
	}).Info("Checkout completed")

	return order, nil
}

// ConsumeLastOrder returns the last completed order once, then forgets it.
func (f *Flow) ConsumeLastOrder(ctx context.Context) (models.OrderSnapshot, error) {
	var order models.OrderSnapshot
	found, err := storage.GetJSON(ctx, f.storage, storage.KeyLastOrder, &order)
	if err != nil {
		return models.OrderSnapshot{}, fmt.Errorf("failed to read order snapshot: %w", err)
	}
	if !found {
		return models.OrderSnapshot{}, ErrNoOrder
	}

	if err := f.storage.Delete(ctx, storage.KeyLastOrder); err != nil {
		return models.OrderSnapshot{}, fmt.Errorf("failed to remove order snapshot: %w", err)
	}
	return order, nil
}

// History lists the owner's archived orders, newest first.
func (f *Flow) History(ctx context.Context, ownerID string, limit int) ([]models.OrderRecord, error) {
	if f.archive == nil {
		return nil, ErrNoArchive
	}
	return f.archive.ForOwner(ctx, ownerID, limit)
}
