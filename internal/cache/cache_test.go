package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Wireless Earbuds", want: "wireless earbuds"},
		{in: "  wireless   EARBUDS  ", want: "wireless earbuds"},
		{in: "dog\tbed", want: "dog bed"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKeywordCacheNormalizedHit(t *testing.T) {
	c := NewKeyword[int](8, time.Minute)
	c.Put("Wireless  Earbuds", 42)

	got, ok := c.Get("wireless earbuds")
	if !ok || got != 42 {
		t.Fatalf("Get = %d, %v; want 42, true", got, ok)
	}

	if _, ok := c.Get("dog bed"); ok {
		t.Fatalf("unexpected hit for an unseen keyword")
	}
}

func TestKeywordCacheExpiry(t *testing.T) {
	c := NewKeyword[string](8, 50*time.Millisecond)
	c.Put("earbuds", "cached")

	if _, ok := c.Get("earbuds"); !ok {
		t.Fatalf("entry missing before TTL")
	}

	time.Sleep(120 * time.Millisecond)

	if _, ok := c.Get("earbuds"); ok {
		t.Fatalf("entry survived past TTL")
	}
}

func TestKeywordCacheEviction(t *testing.T) {
	c := NewKeyword[int](2, time.Minute)
	for i := 0; i < 5; i++ {
		c.Put(fmt.Sprintf("keyword %d", i), i)
	}
	if c.Len() > 2 {
		t.Fatalf("len = %d, want at most 2", c.Len())
	}
	if got, ok := c.Get("keyword 4"); !ok || got != 4 {
		t.Fatalf("most recent entry evicted, got %d, %v", got, ok)
	}
}

func TestKeywordCacheInvalidate(t *testing.T) {
	c := NewKeyword[int](8, time.Minute)
	c.Put("earbuds", 1)
	c.Invalidate("EARBUDS")
	if _, ok := c.Get("earbuds"); ok {
		t.Fatalf("entry survived invalidation")
	}
}
