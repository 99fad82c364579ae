package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/skillfinite/skillfinite/internal/api"
	"github.com/skillfinite/skillfinite/internal/cart"
	"github.com/skillfinite/skillfinite/internal/notify"
	"github.com/skillfinite/skillfinite/internal/session"
)

func sample() Snapshot {
	return Snapshot{
		Session:       session.Session{Token: "tok", User: &api.UserProfile{ID: "1", Name: "Amy"}},
		Wishlist:      []string{"k1", "k2"},
		Cart:          []cart.Item{{Course: api.CourseRef{ID: "k3", Price: "$20"}, Quantity: 1}},
		CartTotal:     20,
		CartOriginal:  100,
		Enrollments:   []api.CourseRef{{ID: "k4"}},
		Notifications: []notify.Record{{ID: "n1", Title: "hi"}},
		Unread:        1,
	}
}

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	var s Store

	before := time.Now()
	s.Update(sample(), nil)

	snap := s.Snapshot()
	if !snap.Session.IsAuthenticated() || snap.Session.User.Name != "Amy" {
		t.Fatalf("snapshot session = %#v, want Amy", snap.Session)
	}
	if len(snap.Wishlist) != 2 || snap.CartTotal != 20 || snap.Unread != 1 {
		t.Fatalf("snapshot = %#v, want sample data", snap)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Wishlist[0] = "changed"
	snap.Session.User.Name = "changed"
	snap.Cart[0].Quantity = 9
	snap2 := s.Snapshot()
	if snap2.Wishlist[0] != "k1" || snap2.Session.User.Name != "Amy" || snap2.Cart[0].Quantity != 1 {
		t.Fatalf("Snapshot should clone data; got %#v", snap2)
	}
}

func TestStore_UpdateErrorStillPublishesData(t *testing.T) {
	var s Store
	s.Update(sample(), nil)

	origErr := errors.New("boom")
	data := sample()
	data.Wishlist = []string{"k9"}
	s.Update(data, origErr)

	snap := s.Snapshot()
	if len(snap.Wishlist) != 1 || snap.Wishlist[0] != "k9" {
		t.Fatalf("Wishlist = %v, want [k9]", snap.Wishlist)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_ReplaceKeepsSyncBookkeeping(t *testing.T) {
	var s Store
	s.Update(sample(), errors.New("fail"))
	updated := s.Snapshot().LastUpdated

	data := sample()
	data.CartTotal = 55
	s.Replace(data)

	snap := s.Snapshot()
	if snap.CartTotal != 55 {
		t.Fatalf("CartTotal = %d, want 55", snap.CartTotal)
	}
	if snap.ConsecutiveFailures != 1 || snap.LastError == nil || !snap.LastUpdated.Equal(updated) {
		t.Fatalf("Replace touched sync bookkeeping: %#v", snap)
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 0 {
		t.Fatalf("ConsecutiveFailures = %d, want 0", snap.ConsecutiveFailures)
	}
	if snap.IsOffline() {
		t.Fatal("IsOffline() = true, want false with 0 failures")
	}

	s.Update(Snapshot{}, errors.New("fail 1"))
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 1 || snap.IsOffline() {
		t.Fatalf("after 1 failure: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	s.Update(Snapshot{}, errors.New("fail 2"))
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 2 || !snap.IsOffline() {
		t.Fatalf("after 2 failures: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	s.Update(Snapshot{}, errors.New("fail 3"))
	if snap = s.Snapshot(); !snap.IsOffline() {
		t.Fatal("IsOffline() = false, want true with 3 failures")
	}

	// Success resets counter
	s.Update(sample(), nil)
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("after success: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}
}
