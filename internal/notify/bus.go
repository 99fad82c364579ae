package notify

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type classifies a notification.
type Type string

const (
	TypeSuccess     Type = "success"
	TypeError       Type = "error"
	TypeInfo        Type = "info"
	TypeWarning     Type = "warning"
	TypeCourse      Type = "course"
	TypePayment     Type = "payment"
	TypeAchievement Type = "achievement"
	TypeSystem      Type = "system"
)

// Priority orders notifications for display.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Event is what producers publish.
type Event struct {
	Type      Type
	Title     string
	Message   string
	Priority  Priority
	ActionURL string
}

// Record is a delivered event as kept in a user's notification list.
type Record struct {
	ID        string   `json:"id"`
	Type      Type     `json:"type"`
	Title     string   `json:"title"`
	Message   string   `json:"message"`
	Timestamp string   `json:"timestamp"`
	Read      bool     `json:"read"`
	Priority  Priority `json:"priority"`
	ActionURL string   `json:"actionUrl,omitempty"`
}

// ParsedTime returns the record timestamp, or the zero time when malformed.
func (r Record) ParsedTime() time.Time {
	t, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Listener receives delivered records synchronously on the publishing goroutine.
type Listener func(Record)

// Notifier is the subset of the bus the stores publish through.
type Notifier interface {
	NotifySuccess(title, message string)
	NotifyError(title, message string)
	NotifyInfo(title, message string)
	NotifyWarning(title, message string)
}

var _ Notifier = (*Bus)(nil)

// Bus fans events out to every current subscriber.
type Bus struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener

	now   func() time.Time
	newID func() string
}

// BusOption customises a Bus.
type BusOption func(*Bus)

// WithClock replaces the bus time source.
func WithClock(now func() time.Time) BusOption {
	return func(b *Bus) {
		if now != nil {
			b.now = now
		}
	}
}

// WithIDGenerator replaces the record id generator.
func WithIDGenerator(gen func() string) BusOption {
	return func(b *Bus) {
		if gen != nil {
			b.newID = gen
		}
	}
}

// NewBus returns a bus with no subscribers.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		listeners: make(map[int]Listener),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers l and returns a function removing it again. Calling
// the returned function more than once is harmless.
func (b *Bus) Subscribe(l Listener) func() {
	if b == nil || l == nil {
		return func() {}
	}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = l
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

// Subscribers returns the number of registered listeners.
func (b *Bus) Subscribers() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Notify delivers e to every subscriber registered at the time of the call.
// Each subscriber gets its own record with a fresh id; all copies share the
// emission timestamp.
func (b *Bus) Notify(e Event) {
	if b == nil {
		return
	}
	if e.Priority == "" {
		e.Priority = defaultPriority(e.Type)
	}

	b.mu.RLock()
	ids := make([]int, 0, len(b.listeners))
	for id := range b.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, b.listeners[id])
	}
	b.mu.RUnlock()

	stamp := b.now().UTC().Format(time.RFC3339Nano)
	for _, l := range listeners {
		l(Record{
			ID:        b.newID(),
			Type:      e.Type,
			Title:     e.Title,
			Message:   e.Message,
			Timestamp: stamp,
			Priority:  e.Priority,
			ActionURL: e.ActionURL,
		})
	}
}

func (b *Bus) NotifySuccess(title, message string) {
	b.Notify(Event{Type: TypeSuccess, Title: title, Message: message})
}

func (b *Bus) NotifyError(title, message string) {
	b.Notify(Event{Type: TypeError, Title: title, Message: message})
}

func (b *Bus) NotifyInfo(title, message string) {
	b.Notify(Event{Type: TypeInfo, Title: title, Message: message})
}

func (b *Bus) NotifyWarning(title, message string) {
	b.Notify(Event{Type: TypeWarning, Title: title, Message: message})
}

// NotifyCourse announces course activity such as a new lesson or enrollment.
func (b *Bus) NotifyCourse(title, message, actionURL string) {
	b.Notify(Event{Type: TypeCourse, Title: title, Message: message, ActionURL: actionURL})
}

// NotifyPayment announces a payment outcome.
func (b *Bus) NotifyPayment(title, message, actionURL string) {
	b.Notify(Event{Type: TypePayment, Title: title, Message: message, ActionURL: actionURL})
}

// NotifyAchievement announces a completed course or earned certificate.
func (b *Bus) NotifyAchievement(title, message, actionURL string) {
	b.Notify(Event{Type: TypeAchievement, Title: title, Message: message, ActionURL: actionURL})
}

// NotifySystem announces platform-level messages.
func (b *Bus) NotifySystem(title, message string) {
	b.Notify(Event{Type: TypeSystem, Title: title, Message: message})
}

func defaultPriority(t Type) Priority {
	switch t {
	case TypeError, TypePayment:
		return PriorityHigh
	case TypeWarning, TypeCourse, TypeAchievement, TypeSystem:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
