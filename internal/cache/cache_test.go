package cache

import (
	"testing"
	"time"

	"github.com/spf13/afero"
)

func TestFile_MissingFileStartsEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	f := NewFile(fs, "/data/cache.toml")

	if _, ok := f.Get(KeyToken); ok {
		t.Fatalf("Get on empty cache returned a value")
	}
	if keys := f.Keys(); len(keys) != 0 {
		t.Fatalf("Keys = %v, want none", keys)
	}
}

func TestFile_SetPersistsAcrossInstances(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/data/sub/cache.toml"

	f := NewFile(fs, path)
	f.Set(KeyToken, "abc")
	f.Set(KeyUser, `{"id":"1","name":"Amy"}`)
	f.Set(AuthCookie, "needs:quoting")

	reopened := NewFile(fs, path)
	if got, ok := reopened.Get(KeyToken); !ok || got != "abc" {
		t.Fatalf("Get(token) = %q,%v want abc,true", got, ok)
	}
	if got, _ := reopened.Get(KeyUser); got != `{"id":"1","name":"Amy"}` {
		t.Fatalf("Get(user) = %q", got)
	}
	if got, _ := reopened.Get(AuthCookie); got != "needs:quoting" {
		t.Fatalf("Get(cookie) = %q", got)
	}
}

func TestFile_RemoveOnlyTouchesNamedKey(t *testing.T) {
	fs := afero.NewMemMapFs()
	f := NewFile(fs, "/cache.toml")
	f.Set("a", "1")
	f.Set("b", "2")

	f.Remove("a")
	f.Remove("missing")

	reopened := NewFile(fs, "/cache.toml")
	if _, ok := reopened.Get("a"); ok {
		t.Fatalf("removed key still present")
	}
	if got, ok := reopened.Get("b"); !ok || got != "2" {
		t.Fatalf("Get(b) = %q,%v want 2,true", got, ok)
	}
}

func TestFile_CorruptFileDegradesToEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/cache.toml", []byte("not valid toml {{{"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f := NewFile(fs, "/cache.toml")
	if _, ok := f.Get(KeyToken); ok {
		t.Fatalf("Get on corrupt cache returned a value")
	}
	f.Set(KeyToken, "fresh")
	if got, _ := NewFile(fs, "/cache.toml").Get(KeyToken); got != "fresh" {
		t.Fatalf("rewritten cache token = %q, want fresh", got)
	}
}

func TestFile_UnwritableStorageKeepsValueInMemory(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	f := NewFile(fs, "/cache.toml")

	f.Set(KeyToken, "abc")
	if got, ok := f.Get(KeyToken); !ok || got != "abc" {
		t.Fatalf("Get after failed write = %q,%v want abc,true", got, ok)
	}
	f.Remove(KeyToken)
	if _, ok := f.Get(KeyToken); ok {
		t.Fatalf("Get after remove returned a value")
	}
}

func TestFile_NilIsSafe(t *testing.T) {
	var f *File
	f.Set("a", "b")
	f.Remove("a")
	if _, ok := f.Get("a"); ok {
		t.Fatalf("nil File returned a value")
	}
}

func TestNop_DropsEverything(t *testing.T) {
	var s Storage = Nop{}
	s.Set("a", "b")
	if _, ok := s.Get("a"); ok {
		t.Fatalf("Nop returned a stored value")
	}
}

func TestJSONHelpers(t *testing.T) {
	s := NewMemory()
	type user struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	SetJSON(s, KeyUser, user{ID: "1", Name: "Amy"})
	got, ok := GetJSON[user](s, KeyUser)
	if !ok || got.ID != "1" || got.Name != "Amy" {
		t.Fatalf("GetJSON = %#v,%v want Amy", got, ok)
	}

	s.Set(KeyUser, "{not-json")
	if _, ok := GetJSON[user](s, KeyUser); ok {
		t.Fatalf("GetJSON on malformed value reported ok")
	}
	if _, ok := GetJSON[user](nil, KeyUser); ok {
		t.Fatalf("GetJSON on nil storage reported ok")
	}
}

func TestCookieJar_ExpiryAndDelete(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemory()
	jar := NewCookieJar(s).WithClock(func() time.Time { return now })

	jar.SetCookie(AuthCookie, "tok", 7*24*time.Hour)
	if got, ok := jar.Cookie(AuthCookie); !ok || got != "tok" {
		t.Fatalf("Cookie = %q,%v want tok,true", got, ok)
	}
	exp, ok := jar.Expires(AuthCookie)
	if !ok || !exp.Equal(now.Add(7*24*time.Hour)) {
		t.Fatalf("Expires = %v,%v want +7d", exp, ok)
	}

	now = now.Add(8 * 24 * time.Hour)
	if _, ok := jar.Cookie(AuthCookie); ok {
		t.Fatalf("expired cookie still returned")
	}
	if keys := s.Keys(); len(keys) != 0 {
		t.Fatalf("expired cookie not removed, keys = %v", keys)
	}

	jar.SetCookie(AuthCookie, "tok2", time.Hour)
	jar.DeleteCookie(AuthCookie)
	if _, ok := jar.Cookie(AuthCookie); ok {
		t.Fatalf("deleted cookie still returned")
	}
}
