package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/sieve/internal/model"
)

func TestKeys_NormalizeInput(t *testing.T) {
	if EvidenceKey("Acme SA", "based in  France") != EvidenceKey("  acme sa ", "Based in France") {
		t.Error("expected evidence keys to ignore case and whitespace")
	}
	if EvidenceKey("Acme SA", "France") == EvidenceKey("Globex", "France") {
		t.Error("expected different candidates to produce different keys")
	}
	if !strings.HasPrefix(SearchKey("q", "seed"), keyPrefix+"search:") {
		t.Errorf("unexpected search key: %s", SearchKey("q", "seed"))
	}
	if SearchKey("q", "seed") == SearchKey("q", "filter") {
		t.Error("expected scope to change the key")
	}
}

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Fatalf("expected hit with v, got %q %v", got, ok)
	}

	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []byte("v"), 20*time.Millisecond)

	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expected entry to expire")
	}
}

func TestDiskCache_InMemory(t *testing.T) {
	c, err := NewDiskCache("", time.Minute)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	defer func() { _ = c.Close() }()

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Fatalf("expected hit, got %q %v", got, ok)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestLayeredCache_PromotesFromDisk(t *testing.T) {
	memory := NewMemoryCache(time.Minute, time.Minute)
	disk, err := NewDiskCache("", time.Minute)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	layered := NewLayeredCache(memory, disk)
	defer func() { _ = layered.Close() }()

	_ = disk.Set("k", []byte("v"), 0)
	if _, ok := memory.Get("k"); ok {
		t.Fatal("memory layer should start empty")
	}

	if got, ok := layered.Get("k"); !ok || string(got) != "v" {
		t.Fatalf("expected layered hit, got %q %v", got, ok)
	}
	if _, ok := memory.Get("k"); !ok {
		t.Error("expected value promoted to memory layer")
	}
}

func TestLayeredCache_NilDisk(t *testing.T) {
	layered := NewLayeredCache(NewMemoryCache(time.Minute, time.Minute), nil)

	if err := layered.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok := layered.Get("k"); !ok {
		t.Error("expected hit")
	}
	if err := layered.Close(); err != nil {
		t.Errorf("Close with nil disk should succeed: %v", err)
	}
}

func TestJSONHelpers(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	type payload struct {
		Names []string `json:"names"`
	}

	if err := SetJSON(c, "k", payload{Names: []string{"Acme SA"}}, 0); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}
	var out payload
	if !GetJSON(c, "k", &out) || len(out.Names) != 1 {
		t.Fatalf("expected decoded payload, got %+v", out)
	}

	_ = c.Set("bad", []byte("{not json"), 0)
	if GetJSON(c, "bad", &out) {
		t.Error("expected decode failure to be a miss")
	}

	if GetJSON(nil, "k", &out) {
		t.Error("nil cache should always miss")
	}
	if err := SetJSON(nil, "k", out, 0); err != nil {
		t.Errorf("SetJSON on nil cache should be a no-op: %v", err)
	}
}

func TestNew_Disabled(t *testing.T) {
	c, err := New(model.CacheConfig{Enabled: false})
	if err != nil || c != nil {
		t.Errorf("expected nil cache when disabled, got %v %v", c, err)
	}

	c, err = New(model.CacheConfig{Enabled: true, TTL: time.Minute, CleanupInterval: time.Minute})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := c.(*MemoryCache); !ok {
		t.Errorf("expected memory cache without dir, got %T", c)
	}
}
