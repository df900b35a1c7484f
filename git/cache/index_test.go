package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/jmgilman/gitcli/git"
)

func TestIndex_SaveAndLoad(t *testing.T) {
	fs := memfs.New()
	path := "/cache/index.json"

	idx, err := loadOrCreateIndex(fs, path)
	if err != nil {
		t.Fatalf("loadOrCreateIndex() error = %v", err)
	}
	if len(idx.Checkouts) != 0 {
		t.Fatalf("new index has %d checkouts", len(idx.Checkouts))
	}

	ttl := time.Hour
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	idx.set("github.com/my/repo/main/docs", &CheckoutMetadata{
		URL:        "https://github.com/my/repo",
		Ref:        "main",
		CacheKey:   "docs",
		Head:       "0123456789abcdef0123456789abcdef01234567",
		CreatedAt:  created,
		LastAccess: created,
		TTL:        &ttl,
	})
	if err := idx.save(fs, path); err != nil {
		t.Fatalf("save() error = %v", err)
	}
	if _, err := fs.Stat(path + ".tmp"); err == nil {
		t.Error("temporary index file was left behind")
	}

	loaded, err := loadOrCreateIndex(fs, path)
	if err != nil {
		t.Fatalf("loadOrCreateIndex() error = %v", err)
	}
	got := loaded.get("github.com/my/repo/main/docs")
	if got == nil {
		t.Fatal("checkout missing after reload")
	}
	if got.Head != "0123456789abcdef0123456789abcdef01234567" || got.TTL == nil || *got.TTL != ttl {
		t.Errorf("reloaded metadata = %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
}

func TestIndex_LoadErrors(t *testing.T) {
	t.Run("corrupt file", func(t *testing.T) {
		fs := memfs.New()
		if err := util.WriteFile(fs, "/index.json", []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := loadOrCreateIndex(fs, "/index.json"); err == nil {
			t.Error("expected an error for a corrupt index")
		}
	})

	t.Run("old version", func(t *testing.T) {
		fs := memfs.New()
		if err := util.WriteFile(fs, "/index.json", []byte(`{"version":"1","checkouts":{}}`), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := loadOrCreateIndex(fs, "/index.json")
		if !errors.Is(err, ErrIndexVersion) {
			t.Errorf("error = %v, want ErrIndexVersion", err)
		}
	})
}

func TestIndex_Touch(t *testing.T) {
	idx := newIndex()
	ttl := time.Minute
	past := time.Now().Add(-time.Hour)
	expired := past.Add(ttl)
	idx.set("k", &CheckoutMetadata{LastAccess: past, TTL: &ttl, ExpiresAt: &expired, Head: "old"})

	idx.touch("k", git.ZeroID)
	m := idx.get("k")
	if !m.LastAccess.After(past) {
		t.Error("LastAccess was not updated")
	}
	if !m.ExpiresAt.After(time.Now()) {
		t.Error("ExpiresAt did not restart from the access")
	}
	if m.Head != "old" {
		t.Errorf("Head = %q, a zero id must keep the recorded commit", m.Head)
	}

	id, err := git.ParseObjectID("89abcdef0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatal(err)
	}
	idx.touch("k", id)
	if m.Head != id.String() {
		t.Errorf("Head = %q, want %q", m.Head, id)
	}

	idx.touch("missing", id)
	if idx.get("missing") != nil {
		t.Error("touch must not create entries")
	}
}

func TestIndex_FilterByURL(t *testing.T) {
	idx := newIndex()
	idx.set("a", &CheckoutMetadata{URL: "https://github.com/my/repo.git"})
	idx.set("b", &CheckoutMetadata{URL: "git@github.com:my/repo"})
	idx.set("c", &CheckoutMetadata{URL: "https://github.com/other/repo"})

	got := idx.filterByURL("https://github.com/my/repo")
	if len(got) != 2 || got["a"] == nil || got["b"] == nil {
		t.Errorf("filterByURL() = %v, want entries a and b", got)
	}
}
