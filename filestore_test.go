package vmap

import (
	"path/filepath"
	"testing"
)

func setupStore(t testing.TB) *FileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vmap.db")
	s := must(OpenFileStore(path, FileStoreOptions{
		IsTesting: true,
		Logf:      t.Logf,
	}))
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestFileStorePutGet(t *testing.T) {
	s := setupStore(t)

	c := NewContainer()
	c.SetSource("node-1", "")
	c.SetString("k", "v")
	c.SetInt64("n", 42)
	ensure(s.Put("snapshot", c))

	got := must(s.Get("snapshot"))
	if got == nil {
		t.Fatalf("Get = nil after Put")
	}
	deepEqual(t, got.SourceID(), "node-1")
	deepEqual(t, got.Keys(), []string{"k", "n"})
	deepEqual(t, hexstr(got.Serialize()), hexstr(c.Serialize()))
}

func TestFileStoreGetMissing(t *testing.T) {
	s := setupStore(t)
	got, err := s.Get("missing")
	ensure(err)
	if got != nil {
		t.Fatalf("Get(missing) = %v, wanted nil", got)
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	s := setupStore(t)
	c1 := NewContainer()
	c1.SetString("k", "v1")
	c2 := NewContainer()
	c2.SetString("k", "v2")
	ensure(s.Put("key", c1))
	ensure(s.Put("key", c2))

	got := must(s.Get("key"))
	sv, _ := mustGet(t, got, "k").AsString()
	deepEqual(t, sv, "v2")
}

func TestFileStoreDelete(t *testing.T) {
	s := setupStore(t)
	c := NewContainer()
	c.SetString("k", "v")
	ensure(s.Put("key", c))

	existed := must(s.Delete("key"))
	deepEqual(t, existed, true)
	existed = must(s.Delete("key"))
	deepEqual(t, existed, false)

	got, err := s.Get("key")
	ensure(err)
	if got != nil {
		t.Fatalf("Get after Delete = %v, wanted nil", got)
	}
}

func TestFileStoreKeys(t *testing.T) {
	s := setupStore(t)
	empty := NewContainer()
	ensure(s.Put("b", empty))
	ensure(s.Put("a", empty))
	keys := must(s.Keys())
	deepEqual(t, keys, []string{"a", "b"}) // Bolt orders keys bytewise
}
