package similarity

import (
	gocache "github.com/patrickmn/go-cache"
)

// Scorer memoizes TokenSortRatio by value pair. Directory categories and
// addresses repeat across many linked rows, so a run scores each distinct
// pair once. A Scorer is safe for concurrent use.
type Scorer struct {
	store *gocache.Cache
}

// NewScorer creates an empty Scorer. Entries never expire.
func NewScorer() *Scorer {
	return &Scorer{store: gocache.New(gocache.NoExpiration, 0)}
}

// TokenSortRatio returns the memoized TokenSortRatio of a and b.
func (s *Scorer) TokenSortRatio(a, b string) int {
	if a > b {
		a, b = b, a
	}
	key := a + "\x00" + b
	if v, ok := s.store.Get(key); ok {
		return v.(int)
	}
	score := TokenSortRatio(a, b)
	s.store.SetDefault(key, score)
	return score
}

// Len returns the number of memoized pairs.
func (s *Scorer) Len() int {
	return s.store.ItemCount()
}
