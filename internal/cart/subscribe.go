// internal/cart/subscribe.go
package cart

import (
	"reflect"

	"github.com/javajoker/storefront/internal/models"
)

type subscription struct {
	id     int
	notify func(models.CartState)
}

// Subscribe registers listener for changes of selector's projection of the state.
// The listener only fires when the projection differs from the last one it saw.
func (s *Store) Subscribe(selector func(models.CartState) interface{}, listener func(interface{})) func() {
	return Select(s, selector, func(a, b interface{}) bool { return reflect.DeepEqual(a, b) }, listener)
}

// Select is the typed form of Subscribe.
func Select[T any](s *Store, selector func(models.CartState) T, equal func(a, b T) bool, listener func(T)) func() {
	current := selector(s.State())

	notify := func(state models.CartState) {
		next := selector(state)
		if equal(current, next) {
			return
		}
		current = next
		listener(next)
	}

	s.subMu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, &subscription{id: id, notify: notify})
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// publish delivers the latest state to every subscriber, outside the state lock.
func (s *Store) publish() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	state := s.State()

	s.subMu.Lock()
	subs := make([]*subscription, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.notify(state)
	}
}
