// internal/services/session_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront/internal/cart"
	"github.com/javajoker/storefront/internal/checkout"
	"github.com/javajoker/storefront/internal/config"
	"github.com/javajoker/storefront/internal/i18n"
	"github.com/javajoker/storefront/internal/money"
	"github.com/javajoker/storefront/internal/storage"
	"github.com/javajoker/storefront/internal/utils"
)

var (
	ErrInvalidToken  = errors.New("session: invalid auth token")
	ErrOwnerMismatch = errors.New("session: token does not belong to user")
)

// Gateways is everything a session needs from the storefront backend.
type Gateways interface {
	cart.Gateway
	checkout.CouponGateway
	checkout.AddressGateway
}

// GatewayFactory binds the backend to one session's storage.
type GatewayFactory func(store storage.Store) Gateways

// Session is one shopper's cart store and checkout flow over its own storage namespace.
type Session struct {
	ID       string
	Storage  storage.Store
	Cart     *cart.Store
	Checkout *checkout.Flow

	lastSeen time.Time
	holds    int
}

type LoginRequest struct {
	UserID string `json:"user_id" validate:"omitempty,reference"`
	Token  string `json:"token" validate:"required"`
	Locale string `json:"locale" validate:"omitempty,max=35"`
}

type SessionService struct {
	cfg      *config.Config
	provider storage.Provider
	gateways GatewayFactory
	logger   *logrus.Entry

	archive  checkout.OrderArchive

	mu       sync.Mutex
	sessions map[string]*Session
}

type SessionOption func(*SessionService)

// WithOrderArchive archives every session's completed orders.
func WithOrderArchive(archive checkout.OrderArchive) SessionOption {
	return func(s *SessionService) {
		s.archive = archive
	}
}

func NewSessionService(cfg *config.Config, provider storage.Provider, gateways GatewayFactory, logger *logrus.Entry, opts ...SessionOption) *SessionService {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &SessionService{
		cfg:      cfg,
		provider: provider,
		gateways: gateways,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the live session for id, rehydrating it from storage on first use.
func (s *SessionService) Get(ctx context.Context, id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(ctx, id)
}

// Hold returns the live session for id and keeps it loaded until release is called.
// Long-lived consumers such as cart streams hold their session so Sweep cannot replace
// the store they are subscribed to.
func (s *SessionService) Hold(ctx context.Context, id string) (*Session, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.get(ctx, id)
	sess.holds++

	var once sync.Once
	return sess, func() {
		once.Do(func() {
			s.mu.Lock()
			sess.holds--
			sess.lastSeen = time.Now()
			s.mu.Unlock()
		})
	}
}

func (s *SessionService) get(ctx context.Context, id string) *Session {
	if sess, ok := s.sessions[id]; ok {
		sess.lastSeen = time.Now()
		return sess
	}

	sess := s.open(ctx, id)
	s.sessions[id] = sess
	return sess
}

func (s *SessionService) open(ctx context.Context, id string) *Session {
	st := s.provider.Open(id)
	gw := s.gateways(st)
	logger := s.logger.WithField("session_id", id)

	store := cart.NewStore(ctx, gw, st,
		cart.WithLogger(logger),
		cart.WithPushConcurrency(s.cfg.Sync.PushConcurrency),
		cart.WithRepushRemote(s.cfg.Sync.RepushRemote),
	)
	flowOpts := []checkout.Option{
		checkout.WithLogger(logger),
		checkout.WithFees(money.NewFees(s.cfg.Checkout.ShippingFee, s.cfg.Checkout.Tax)),
		checkout.WithDefaultCountry(s.cfg.Checkout.DefaultCountry),
	}
	if s.archive != nil {
		flowOpts = append(flowOpts, checkout.WithArchive(s.archive))
	}
	flow := checkout.NewFlow(store, gw, gw, st, flowOpts...)
	flow.Restore(ctx)

	return &Session{
		ID:       id,
		Storage:  st,
		Cart:     store,
		Checkout: flow,
		lastSeen: time.Now(),
	}
}

// Owner is the user bound to the session, or "" for a guest.
func (s *SessionService) Owner(ctx context.Context, sess *Session) string {
	owner, err := storage.GetString(ctx, sess.Storage, storage.KeyUserID)
	if err != nil {
		s.logger.WithError(err).WithField("session_id", sess.ID).Warn("Failed to read session owner")
		return ""
	}
	return owner
}

// Locale is the session's stored locale, or fallback when none was chosen.
func (s *SessionService) Locale(ctx context.Context, sess *Session, fallback string) string {
	locale, err := storage.GetString(ctx, sess.Storage, storage.KeyLocale)
	if err != nil || locale == "" {
		return i18n.Normalize(fallback)
	}
	return locale
}

// Login binds the session to the token's user and merges the guest cart into theirs.
func (s *SessionService) Login(ctx context.Context, sess *Session, req LoginRequest, fallbackLocale string) (string, error) {
	claims, err := utils.ValidateJWT(req.Token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if req.UserID != "" && req.UserID != claims.UserID {
		return "", ErrOwnerMismatch
	}

	locale := fallbackLocale
	if req.Locale != "" {
		locale = req.Locale
	}
	locale = i18n.Normalize(locale)

	values := map[string]string{
		storage.KeyToken:  req.Token,
		storage.KeyUserID: claims.UserID,
		storage.KeyLocale: locale,
	}
	for key, value := range values {
		if err := storage.SetString(ctx, sess.Storage, key, value); err != nil {
			return "", fmt.Errorf("failed to store session %s: %w", key, err)
		}
	}

	sess.Cart.Reconcile(ctx, claims.UserID, locale)

	s.logger.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"user_id":    claims.UserID,
		"lines":      len(sess.Cart.Lines()),
	}).Info("Session logged in")
	return claims.UserID, nil
}

// Logout forgets the auth data and resets the cart locally. The remote cart is untouched.
func (s *SessionService) Logout(ctx context.Context, sess *Session) error {
	for _, key := range []string{storage.KeyToken, storage.KeyUserID} {
		if err := sess.Storage.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to clear session %s: %w", key, err)
		}
	}

	sess.Cart.Logout()
	sess.Checkout.Leave(ctx)

	s.logger.WithField("session_id", sess.ID).Info("Session logged out")
	return nil
}

// SetLocale stores the shopper's locale choice.
func (s *SessionService) SetLocale(ctx context.Context, sess *Session, locale string) (string, error) {
	locale = i18n.Normalize(locale)
	if err := storage.SetString(ctx, sess.Storage, storage.KeyLocale, locale); err != nil {
		return "", fmt.Errorf("failed to store locale: %w", err)
	}
	return locale, nil
}

// Sweep unloads sessions idle for longer than maxIdle. Held sessions and sessions with
// a cart call in flight stay loaded. Storage is kept; the next request rehydrates them.
func (s *SessionService) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		if sess.holds > 0 || sess.Cart.State().IsLoading {
			continue
		}
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.WithField("evicted", evicted).Debug("Idle sessions unloaded")
	}
	return evicted
}

// Count is the number of sessions currently held in memory.
func (s *SessionService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
