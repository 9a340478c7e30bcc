// Package cache provides the keyword-keyed verdict cache. Keys are
// normalized so "Wireless  Earbuds" and "wireless earbuds" share one entry,
// and entries expire on a TTL so a re-analysis within the window is served
// from memory instead of triggering a fresh scrape.
package cache

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type KeywordCache[V any] struct {
	lru *expirable.LRU[string, V]
}

func NewKeyword[V any](maxEntries int, ttl time.Duration) *KeywordCache[V] {
	if maxEntries <= 0 {
		maxEntries = 128
	}
	return &KeywordCache[V]{
		lru: expirable.NewLRU[string, V](maxEntries, nil, ttl),
	}
}

func (c *KeywordCache[V]) Get(keyword string) (V, bool) {
	return c.lru.Get(Normalize(keyword))
}

func (c *KeywordCache[V]) Put(keyword string, value V) {
	c.lru.Add(Normalize(keyword), value)
}

func (c *KeywordCache[V]) Invalidate(keyword string) {
	c.lru.Remove(Normalize(keyword))
}

func (c *KeywordCache[V]) Purge() {
	c.lru.Purge()
}

func (c *KeywordCache[V]) Len() int {
	return c.lru.Len()
}

// Normalize lowercases a keyword and collapses internal whitespace runs so
// cosmetic variants of a query map to the same cache entry.
func Normalize(keyword string) string {
	return strings.Join(strings.Fields(strings.ToLower(keyword)), " ")
}
