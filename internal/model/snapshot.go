package model

import "time"

// Breakdowns are aggregate counts over a snapshot's listings.
type Breakdowns struct {
	BySupplier       map[string]int `json:"by_supplier"`
	ByRecommendation map[string]int `json:"by_recommendation"`
	ByTool           map[string]int `json:"by_tool"`
}

// CacheSnapshot is one fetched and scored listing set for a user.
type CacheSnapshot struct {
	Timestamp  time.Time  `json:"timestamp"`
	Breakdowns Breakdowns `json:"breakdowns"`
	Listings   []Listing  `json:"listings"`
	TotalCount int        `json:"total_count"`
}

// NewSnapshot builds a snapshot with breakdowns computed from listings.
// The timestamp is assigned by the cache store on Set.
func NewSnapshot(listings []Listing) *CacheSnapshot {
	b := Breakdowns{
		BySupplier:       make(map[string]int),
		ByRecommendation: make(map[string]int),
		ByTool:           make(map[string]int),
	}
	for _, l := range listings {
		b.BySupplier[l.SupplierName]++
		b.ByRecommendation[string(l.Recommendation)]++
		if tool := l.Tool(); tool != "" {
			b.ByTool[tool]++
		}
	}
	return &CacheSnapshot{
		Listings:   listings,
		TotalCount: len(listings),
		Breakdowns: b,
	}
}

// Age returns how old the snapshot is at the given instant.
func (s *CacheSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.Timestamp)
}

// Find returns the listing with the given id.
func (s *CacheSnapshot) Find(id string) (Listing, bool) {
	for _, l := range s.Listings {
		if l.ID == id {
			return l, true
		}
	}
	return Listing{}, false
}
