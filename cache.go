package galengine

import (
	"database/sql"
	"sync"
	"time"
)

// ErrNotFound is returned when a requested gallery does not exist.
var ErrNotFound = sql.ErrNoRows

// GalleryCache is an in-memory cache of gallery records with TTL. Image
// listings are never cached, the filesystem is their source of truth, but
// the records naming the photo folders are read on every image request and
// change only through the admin dashboard.
type GalleryCache struct {
	mu        sync.RWMutex
	galleries []Gallery
	fetched   time.Time
	ttl       time.Duration
	store     *Store
}

// NewGalleryCache creates a GalleryCache backed by the given Store.
func NewGalleryCache(s *Store, ttl time.Duration) *GalleryCache {
	return &GalleryCache{store: s, ttl: ttl}
}

func (c *GalleryCache) valid() bool {
	return c.galleries != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *GalleryCache) Invalidate() {
	c.mu.Lock()
	c.galleries = nil
	c.mu.Unlock()
}

// ensureLoaded returns cached galleries after ensuring the cache is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *GalleryCache) ensureLoaded() ([]Gallery, error) {
	c.mu.RLock()
	if c.valid() {
		galleries := c.galleries
		c.mu.RUnlock()
		return galleries, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.galleries, nil
	}
	galleries, err := c.store.ListGalleries()
	if err != nil {
		return nil, err
	}
	if galleries == nil {
		galleries = []Gallery{}
	}
	c.galleries = galleries
	c.fetched = time.Now()
	return c.galleries, nil
}

// ListGalleries returns all gallery records.
func (c *GalleryCache) ListGalleries() ([]Gallery, error) {
	return c.ensureLoaded()
}

// GetGallery returns a single gallery record by id from the cache.
func (c *GalleryCache) GetGallery(id int) (Gallery, error) {
	galleries, err := c.ensureLoaded()
	if err != nil {
		return Gallery{}, err
	}
	for _, g := range galleries {
		if g.ID == id {
			return g, nil
		}
	}
	return Gallery{}, ErrNotFound
}

// FindGalleryByTitle returns the first gallery with an exact title match.
func (c *GalleryCache) FindGalleryByTitle(title string) (Gallery, error) {
	galleries, err := c.ensureLoaded()
	if err != nil {
		return Gallery{}, err
	}
	for _, g := range galleries {
		if g.Title == title {
			return g, nil
		}
	}
	return Gallery{}, ErrNotFound
}
