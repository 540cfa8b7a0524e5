package cache

import "time"

// CacheStats holds cache performance metrics
type CacheStats struct {
	// Current state
	ItemCount int64 // Number of cached utterances

	// Performance metrics
	Hits    int64   // Number of cache hits
	Misses  int64   // Number of cache misses
	Removed int64   // Number of entries removed explicitly
	HitRate float64 // Calculated hit rate (hits / (hits + misses))

	// Timing
	LastAccess time.Time // Last lookup time
}

// Entry describes one cached utterance.
type Entry struct {
	Text      string    // The utterance, also the cache key
	Artifact  string    // Path of the synthesized audio file
	Timestamp time.Time // When the artifact was cached
	Hits      int64     // Number of times the artifact was looked up
}
