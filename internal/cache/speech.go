package cache

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// SpeechCache maps utterance text to its synthesized artifact. There is at
// most one entry per distinct text and entries are never overwritten; an
// entry only goes away through Remove or RemoveAll, which also delete the
// artifact file.
type SpeechCache struct {
	fs     afero.Fs
	logger *log.Logger

	// Entries keyed by text, plus insertion order for Keys and RemoveAll
	items map[string]*Entry
	order []string

	// Synchronization
	mu sync.RWMutex

	// Metrics
	stats CacheStats
}

// NewSpeechCache creates an empty cache that deletes artifacts through fs.
func NewSpeechCache(fs afero.Fs, logger *log.Logger) *SpeechCache {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SpeechCache{
		fs:     fs,
		logger: logger.WithPrefix("cache"),
		items:  make(map[string]*Entry),
	}
}

// Has reports whether text has a cached artifact, without touching metrics.
func (c *SpeechCache) Has(text string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.items[text]
	return ok
}

// Get returns the artifact cached for text.
func (c *SpeechCache) Get(text string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.LastAccess = time.Now()
	entry, ok := c.items[text]
	if !ok {
		c.stats.Misses++
		return "", false
	}

	entry.Hits++
	c.stats.Hits++
	return entry.Artifact, true
}

// Put registers artifact under text. It returns false, leaving the existing
// entry untouched, if text is already cached.
func (c *SpeechCache) Put(text, artifact string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[text]; ok {
		return false
	}

	c.items[text] = &Entry{
		Text:      text,
		Artifact:  artifact,
		Timestamp: time.Now(),
	}
	c.order = append(c.order, text)
	c.logger.Debug("Cached artifact", "text", text, "artifact", artifact)
	return true
}

// Remove deletes the artifact for text and drops the entry. Removing text
// that is not cached is a no-op. The entry is dropped even when deleting the
// file fails.
func (c *SpeechCache) Remove(text string) error {
	c.mu.Lock()
	entry, ok := c.items[text]
	if ok {
		delete(c.items, text)
		c.order = removeKey(c.order, text)
		c.stats.Removed++
	}
	c.mu.Unlock()

	if !ok {
		return nil
	}
	return c.deleteArtifact(entry)
}

// RemoveAll removes every entry, returning the joined file deletion errors.
func (c *SpeechCache) RemoveAll() error {
	c.mu.Lock()
	entries := make([]*Entry, 0, len(c.order))
	for _, text := range c.order {
		entries = append(entries, c.items[text])
	}
	c.items = make(map[string]*Entry)
	c.order = nil
	c.stats.Removed += int64(len(entries))
	c.mu.Unlock()

	var errs []error
	for _, entry := range entries {
		if err := c.deleteArtifact(entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// deleteArtifact removes the file behind entry; a file that is already gone
// is not an error.
func (c *SpeechCache) deleteArtifact(entry *Entry) error {
	err := c.fs.Remove(entry.Artifact)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		c.logger.Warn("Failed to delete artifact", "artifact", entry.Artifact, "error", err)
		return fmt.Errorf("remove artifact for %q: %w", entry.Text, err)
	}
	c.logger.Debug("Removed artifact", "text", entry.Text, "artifact", entry.Artifact)
	return nil
}

// Len returns the number of cached utterances.
func (c *SpeechCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Keys returns the cached texts in insertion order.
func (c *SpeechCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]string(nil), c.order...)
}

// Stats returns cache statistics.
func (c *SpeechCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := c.stats
	stats.ItemCount = int64(len(c.items))
	if stats.Hits+stats.Misses > 0 {
		stats.HitRate = float64(stats.Hits) / float64(stats.Hits+stats.Misses)
	}
	return stats
}

func removeKey(keys []string, key string) []string {
	for i, k := range keys {
		if k == key {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}
