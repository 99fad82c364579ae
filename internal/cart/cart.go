package cart

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/skillfinite/skillfinite/internal/api"
	"github.com/skillfinite/skillfinite/internal/cache"
	"github.com/skillfinite/skillfinite/internal/notify"
)

// ErrAlreadyInCart is returned when a course is added twice.
var ErrAlreadyInCart = errors.New("course already in cart")

// discountMultiplier produces the struck-through "original" price shown next
// to the total. It is a display convention with no backing price data.
const discountMultiplier = 5

// Item is one course in the cart.
type Item struct {
	Course   api.CourseRef `json:"course"`
	Quantity int           `json:"quantity"`
	AddedAt  time.Time     `json:"addedAt"`
	Selected bool          `json:"selected"`
}

// Store holds the cart and mirrors every change to the cache.
type Store struct {
	storage  cache.Storage
	notifier notify.Notifier
	now      func() time.Time

	mu    sync.RWMutex
	items []Item
}

// Option customises a Store.
type Option func(*Store)

// WithClock replaces the time source used for AddedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New restores the cart from storage. A corrupt entry restores as empty,
// and only the first item per course id is kept.
func New(storage cache.Storage, notifier notify.Notifier, opts ...Option) *Store {
	if storage == nil {
		storage = cache.Nop{}
	}
	s := &Store{storage: storage, notifier: notifier, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	saved, _ := cache.GetJSON[[]Item](storage, cache.KeyCart)
	seen := make(map[string]struct{}, len(saved))
	for _, item := range saved {
		item.Course.ID = strings.TrimSpace(item.Course.ID)
		if item.Course.ID == "" {
			continue
		}
		if _, dup := seen[item.Course.ID]; dup {
			continue
		}
		seen[item.Course.ID] = struct{}{}
		item.Quantity = 1
		s.items = append(s.items, item)
	}
	return s
}

// AddToCart appends course. A course already in the cart is left alone, an
// info notice is raised and ErrAlreadyInCart returned.
func (s *Store) AddToCart(course api.CourseRef) error {
	course.ID = strings.TrimSpace(course.ID)
	if course.ID == "" {
		return fmt.Errorf("add to cart: course id required")
	}

	s.mu.Lock()
	if s.indexLocked(course.ID) >= 0 {
		s.mu.Unlock()
		s.notify(func(n notify.Notifier) {
			n.NotifyInfo("Already in cart", fmt.Sprintf("%s is already in your cart.", displayTitle(course)))
		})
		return ErrAlreadyInCart
	}
	s.items = append(s.items, Item{Course: course, Quantity: 1, AddedAt: s.now().UTC(), Selected: true})
	s.persistLocked()
	s.mu.Unlock()

	s.notify(func(n notify.Notifier) {
		n.NotifySuccess("Added to cart", fmt.Sprintf("%s has been added to your cart.", displayTitle(course)))
	})
	return nil
}

// RemoveFromCart drops the course with id. It reports whether anything changed.
func (s *Store) RemoveFromCart(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return false
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.persistLocked()
	return true
}

// ClearCart empties the cart, for example after a completed payment.
func (s *Store) ClearCart() {
	s.mu.Lock()
	s.items = nil
	s.persistLocked()
	s.mu.Unlock()
}

// ToggleSelected flips whether the course is included in SelectedTotal.
func (s *Store) ToggleSelected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return false
	}
	s.items[idx].Selected = !s.items[idx].Selected
	s.persistLocked()
	return true
}

// IsInCart reports whether the course with id is in the cart.
func (s *Store) IsInCart(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(id) >= 0
}

// Items returns a copy of the cart in insertion order.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.items) == 0 {
		return nil
	}
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// CartCount returns the number of items.
func (s *Store) CartCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// TotalPrice sums the parsed price of every item.
func (s *Store) TotalPrice() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, item := range s.items {
		total += ParsePrice(item.Course.Price)
	}
	return total
}

// DiscountedTotal is the "original" price displayed struck through beside
// TotalPrice: five times the total. It is cosmetic.
func (s *Store) DiscountedTotal() int {
	return s.TotalPrice() * discountMultiplier
}

// SelectedTotal sums the items marked for checkout.
func (s *Store) SelectedTotal() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, item := range s.items {
		if item.Selected {
			total += ParsePrice(item.Course.Price)
		}
	}
	return total
}

// ParsePrice converts a display price to whole units. "Free" is 0; anything
// else keeps only its digits, so "$1,299" is 1299. Unparseable input is 0.
func ParsePrice(price string) int {
	price = strings.TrimSpace(price)
	if strings.EqualFold(price, "free") {
		return 0
	}
	var digits strings.Builder
	for _, r := range price {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return n
}

func (s *Store) indexLocked(id string) int {
	for i, item := range s.items {
		if item.Course.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked() {
	if len(s.items) == 0 {
		cache.SetJSON(s.storage, cache.KeyCart, []Item{})
		return
	}
	cache.SetJSON(s.storage, cache.KeyCart, s.items)
}

func (s *Store) notify(fn func(notify.Notifier)) {
	if s.notifier != nil {
		fn(s.notifier)
	}
}

func displayTitle(course api.CourseRef) string {
	if t := strings.TrimSpace(course.Title); t != "" {
		return t
	}
	return "Course " + course.ID
}
