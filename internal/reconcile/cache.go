package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fedor-resh/bite/internal/models"
)

// PlaceholderName is shown for an upload the server has not answered yet.
const PlaceholderName = "Photo uploaded, analyzing..."

// Fetcher loads the caller's entries for an inclusive date range.
type Fetcher interface {
	ListEntries(ctx context.Context, from, to string) ([]models.FoodEntry, error)
}

// Item is one row of a cached week. Placeholders have a negative Key and no
// server id yet.
type Item struct {
	Key         int64
	Placeholder bool
	Entry       models.FoodEntry
}

// Cache keeps entries grouped by the Monday of their week, the same way the
// weekly views query them.
type Cache struct {
	mu      sync.Mutex
	fetcher Fetcher
	pending *PendingSet
	weeks   map[string][]Item
	stale   map[string]bool
	now     func() time.Time
}

func NewCache(fetcher Fetcher, pending *PendingSet) *Cache {
	return &Cache{
		fetcher: fetcher,
		pending: pending,
		weeks:   make(map[string][]Item),
		stale:   make(map[string]bool),
		now:     time.Now,
	}
}

// AddPlaceholder puts an optimistic row at the top of the entry's week before
// the upload request is sent. It returns the placeholder key.
func (c *Cache) AddPlaceholder(date, previewURL string) (int64, error) {
	monday, err := models.MondayOf(date)
	if err != nil {
		return 0, fmt.Errorf("placeholder date: %w", err)
	}

	now := c.now()
	item := Item{
		Key:         -now.UnixNano(),
		Placeholder: true,
		Entry: models.FoodEntry{
			Date:      date,
			ImageURL:  previewURL,
			Status:    models.StatusPending,
			Name:      PlaceholderName,
			Unit:      models.DefaultUnit,
			CreatedAt: now,
		},
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.weeks[monday] = append([]Item{item}, c.weeks[monday]...)
	return item.Key, nil
}

// Confirm records a successful upload: the new id is tracked as pending and
// every cached week is marked for refetch.
func (c *Cache) Confirm(resp models.UploadResponse) {
	c.pending.Add(resp.ID)

	c.mu.Lock()
	defer c.mu.Unlock()
	for monday := range c.weeks {
		c.stale[monday] = true
	}
}

// Discard drops a placeholder whose upload failed.
func (c *Cache) Discard(key int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for monday, items := range c.weeks {
		for i, it := range items {
			if it.Key == key {
				c.weeks[monday] = append(items[:i:i], items[i+1:]...)
				return
			}
		}
	}
}

// Week returns a copy of the cached rows for the week starting at monday.
func (c *Cache) Week(monday string) []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Item(nil), c.weeks[monday]...)
}

func (c *Cache) Stale(monday string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale[monday]
}

// Refresh refetches one week. Fetched rows replace everything cached for it,
// placeholders included, and ids that are no longer pending leave the
// pending set.
func (c *Cache) Refresh(ctx context.Context, monday string) ([]Item, error) {
	start, err := time.Parse(models.DateLayout, monday)
	if err != nil {
		return nil, fmt.Errorf("refresh week: %w", err)
	}
	sunday := start.AddDate(0, 0, 6).Format(models.DateLayout)

	entries, err := c.fetcher.ListEntries(ctx, monday, sunday)
	if err != nil {
		return nil, fmt.Errorf("refresh week %s: %w", monday, err)
	}

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		if e.Status.IsTerminal() {
			c.pending.Remove(e.ID)
		}
		items = append(items, Item{Key: int64(e.ID), Entry: e})
	}

	c.mu.Lock()
	c.weeks[monday] = items
	delete(c.stale, monday)
	c.mu.Unlock()

	return append([]Item(nil), items...), nil
}

// RefreshStale refetches every week marked by Confirm.
func (c *Cache) RefreshStale(ctx context.Context) error {
	c.mu.Lock()
	weeks := make([]string, 0, len(c.stale))
	for monday := range c.stale {
		weeks = append(weeks, monday)
	}
	c.mu.Unlock()

	for _, monday := range weeks {
		if _, err := c.Refresh(ctx, monday); err != nil {
			return err
		}
	}
	return nil
}
