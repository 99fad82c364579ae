package notify

import (
	"log"
	"sync"

	"github.com/skillfinite/skillfinite/internal/cache"
)

const inboxLimit = 100

// Permission mirrors the platform notification permission states.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Native surfaces records through the operating system.
type Native interface {
	Permission() Permission
	RequestPermission() Permission
	Show(Record) error
}

// NopNative is a Native without OS support; permission is always denied.
type NopNative struct{}

func (NopNative) Permission() Permission        { return PermissionDenied }
func (NopNative) RequestPermission() Permission { return PermissionDenied }
func (NopNative) Show(Record) error             { return nil }

// Inbox is one subscriber's notification list for one user, newest first,
// persisted under notifications-<userID>.
type Inbox struct {
	store  cache.Storage
	native Native

	mu          sync.Mutex
	userID      string
	records     []Record
	unsubscribe func()
	onChange    func([]Record)
}

// NewInbox loads userID's stored notifications. A nil native disables OS notifications.
func NewInbox(store cache.Storage, userID string, native Native) *Inbox {
	if native == nil {
		native = NopNative{}
	}
	if store == nil {
		store = cache.Nop{}
	}
	i := &Inbox{store: store, native: native}
	i.load(userID)
	return i
}

// Attach subscribes the inbox to bus, asking for native permission when it has
// not been decided yet. Attaching again replaces the previous subscription.
func (i *Inbox) Attach(bus *Bus) {
	if i.native.Permission() == PermissionDefault {
		if p := i.native.RequestPermission(); p != PermissionGranted {
			log.Printf("[notify] native notifications unavailable: %s", p)
		}
	}
	unsubscribe := bus.Subscribe(i.Add)

	i.mu.Lock()
	prev := i.unsubscribe
	i.unsubscribe = unsubscribe
	i.mu.Unlock()
	if prev != nil {
		prev()
	}
}

// Detach stops receiving events.
func (i *Inbox) Detach() {
	i.mu.Lock()
	unsubscribe := i.unsubscribe
	i.unsubscribe = nil
	i.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// OnChange registers fn to receive a copy of the list after every change.
func (i *Inbox) OnChange(fn func([]Record)) {
	i.mu.Lock()
	i.onChange = fn
	i.mu.Unlock()
}

// SwitchUser replaces the list with the one stored for userID.
func (i *Inbox) SwitchUser(userID string) {
	i.load(userID)
	i.changed()
}

// UserID returns the user the inbox currently belongs to.
func (i *Inbox) UserID() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.userID
}

// Add prepends rec and persists the list. It is the inbox's bus listener.
func (i *Inbox) Add(rec Record) {
	i.mu.Lock()
	i.records = append([]Record{rec}, i.records...)
	if len(i.records) > inboxLimit {
		i.records = i.records[:inboxLimit]
	}
	i.persistLocked()
	i.mu.Unlock()

	if i.native.Permission() == PermissionGranted {
		if err := i.native.Show(rec); err != nil {
			log.Printf("[notify] native show %s: %v", rec.ID, err)
		}
	}
	i.changed()
}

// Records returns a copy of the list, newest first.
func (i *Inbox) Records() []Record {
	i.mu.Lock()
	defer i.mu.Unlock()
	return cloneRecords(i.records)
}

// Unread counts records not yet marked read.
func (i *Inbox) Unread() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	n := 0
	for _, r := range i.records {
		if !r.Read {
			n++
		}
	}
	return n
}

// MarkRead flags the record with id as read.
func (i *Inbox) MarkRead(id string) bool {
	return i.mutate(func(records []Record) ([]Record, bool) {
		for idx := range records {
			if records[idx].ID == id {
				records[idx].Read = true
				return records, true
			}
		}
		return records, false
	})
}

// MarkAllRead flags every record as read.
func (i *Inbox) MarkAllRead() {
	i.mutate(func(records []Record) ([]Record, bool) {
		for idx := range records {
			records[idx].Read = true
		}
		return records, len(records) > 0
	})
}

// Delete removes the record with id.
func (i *Inbox) Delete(id string) bool {
	return i.mutate(func(records []Record) ([]Record, bool) {
		for idx := range records {
			if records[idx].ID == id {
				return append(records[:idx], records[idx+1:]...), true
			}
		}
		return records, false
	})
}

// ClearAll empties the list.
func (i *Inbox) ClearAll() {
	i.mutate(func([]Record) ([]Record, bool) { return nil, true })
}

func (i *Inbox) mutate(fn func([]Record) ([]Record, bool)) bool {
	i.mu.Lock()
	next, changed := fn(i.records)
	if changed {
		i.records = next
		i.persistLocked()
	}
	i.mu.Unlock()
	if changed {
		i.changed()
	}
	return changed
}

func (i *Inbox) load(userID string) {
	records, _ := cache.GetJSON[[]Record](i.store, cache.NotificationsKey(userID))
	i.mu.Lock()
	i.userID = userID
	i.records = records
	i.mu.Unlock()
}

func (i *Inbox) persistLocked() {
	if i.userID == "" {
		return
	}
	if len(i.records) == 0 {
		i.store.Remove(cache.NotificationsKey(i.userID))
		return
	}
	cache.SetJSON(i.store, cache.NotificationsKey(i.userID), i.records)
}

func (i *Inbox) changed() {
	i.mu.Lock()
	fn := i.onChange
	records := cloneRecords(i.records)
	i.mu.Unlock()
	if fn != nil {
		fn(records)
	}
}

func cloneRecords(records []Record) []Record {
	if len(records) == 0 {
		return nil
	}
	dup := make([]Record, len(records))
	copy(dup, records)
	return dup
}
