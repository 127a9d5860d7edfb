// internal/cart/store.go
package cart

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/money"
	"github.com/javajoker/storefront/internal/storage"
)

// persistedCart is the durable form of the store: lines only, never loading or error.
type persistedCart struct {
	Lines []models.CartLine `json:"lines"`
}

// Store owns a session's cart state. It is the single writer of CartState; readers
// use State or subscriptions and issue intents through the mutation methods or Dispatch.
type Store struct {
	gateway Gateway
	storage storage.Store
	logger  *logrus.Entry
	newID   func() string

	pushConcurrency int
	repushRemote    bool

	mu       sync.RWMutex
	lines    []models.CartLine
	inflight int
	err      *models.CartError
	version  uint64

	// Line mutations share clearMu; Clear holds it exclusively.
	clearMu sync.RWMutex
	locks   *keyLocks

	persistMu        sync.Mutex
	persistedVersion uint64

	notifyMu sync.Mutex
	subMu    sync.Mutex
	subs     []*subscription
	nextSub  int
}

type Option func(*Store)

func WithLogger(logger *logrus.Entry) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPushConcurrency bounds parallel upserts during reconcile push-back. 1 keeps it sequential.
func WithPushConcurrency(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pushConcurrency = n
		}
	}
}

// WithRepushRemote controls whether reconcile re-pushes lines that came from the remote fetch.
func WithRepushRemote(repush bool) Option {
	return func(s *Store) {
		s.repushRemote = repush
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewStore builds a store and rehydrates its lines from durable storage.
func NewStore(ctx context.Context, gateway Gateway, store storage.Store, opts ...Option) *Store {
	s := &Store{
		gateway:         gateway,
		storage:         store,
		logger:          logrus.NewEntry(logrus.StandardLogger()),
		newID:           uuid.NewString,
		pushConcurrency: 1,
		repushRemote:    true,
		lines:           []models.CartLine{},
		locks:           newKeyLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.rehydrate(ctx)
	return s
}

func (s *Store) rehydrate(ctx context.Context) {
	var saved persistedCart
	found, err := storage.GetJSON(ctx, s.storage, storage.KeyCart, &saved)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to rehydrate cart, starting empty")
		return
	}
	if !found {
		return
	}

	seen := make(map[string]bool, len(saved.Lines))
	lines := make([]models.CartLine, 0, len(saved.Lines))
	for _, line := range saved.Lines {
		if line.ProductID == "" || line.Quantity <= 0 || seen[line.ProductID] {
			continue
		}
		seen[line.ProductID] = true
		if line.ID == "" {
			line.ID = s.newID()
		}
		lines = append(lines, line)
	}

	s.mu.Lock()
	s.lines = lines
	s.mu.Unlock()
}

// State returns a copy of the current cart state.
func (s *Store) State() models.CartState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *Store) stateLocked() models.CartState {
	state := models.CartState{
		Lines:     models.CloneLines(s.lines),
		IsLoading: s.inflight > 0,
	}
	if s.err != nil {
		e := *s.err
		state.Error = &e
	}
	return state
}

// Lines returns a copy of the current line list.
func (s *Store) Lines() []models.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneLines(s.lines)
}

// Total is the sum of unit price times quantity; unparsable prices count as zero.
func (s *Store) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return money.Subtotal(s.lines)
}

// LineCount is the number of items in the cart, summing quantities.
func (s *Store) LineCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, line := range s.lines {
		count += line.Quantity
	}
	return count
}

// Logout is a purely local reset; the remote cart is left alone.
func (s *Store) Logout() {
	s.transition(context.Background(), func() {
		s.lines = []models.CartLine{}
		s.err = nil
	})
}

// transition applies fn under the state lock, persists the lines if they may have
// changed and notifies subscribers. It returns the version written by fn.
func (s *Store) transition(ctx context.Context, fn func()) uint64 {
	s.mu.Lock()
	fn()
	s.version++
	version := s.version
	lines := models.CloneLines(s.lines)
	s.mu.Unlock()

	s.persist(ctx, lines, version)
	s.publish()
	return version
}

// setFlags changes loading or error without touching lines, so nothing is persisted.
func (s *Store) setFlags(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
	s.publish()
}

func (s *Store) begin() {
	s.setFlags(func() {
		s.inflight++
		s.err = nil
	})
}

func (s *Store) end() {
	s.setFlags(func() {
		if s.inflight > 0 {
			s.inflight--
		}
	})
}

func (s *Store) recordError(err error, locale string) {
	described := Describe(err, locale)
	s.setFlags(func() {
		s.err = described
	})
}

func (s *Store) persist(ctx context.Context, lines []models.CartLine, version uint64) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if version <= s.persistedVersion {
		return
	}

	if err := storage.SetJSON(context.WithoutCancel(ctx), s.storage, storage.KeyCart, persistedCart{Lines: lines}); err != nil {
		s.logger.WithError(err).Warn("Failed to persist cart")
		return
	}
	s.persistedVersion = version
}

func indexOf(lines []models.CartLine, productID string) int {
	for i, line := range lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}
