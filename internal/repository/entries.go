// internal/repository/entries.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fedor-resh/bite/internal/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("entry not found")
	ErrNotPending = errors.New("entry is no longer pending")
)

type EntryRepository struct {
	db *gorm.DB
}

func NewEntryRepository(db *gorm.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// Insert stores a new entry; the generated id is written back into e.
func (r *EntryRepository) Insert(ctx context.Context, e *models.FoodEntry) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

// Complete moves a pending entry to completed and writes the nutrition
// fields that are present. Absent fields are not touched.
func (r *EntryRepository) Complete(ctx context.Context, id uint, a models.Analysis) error {
	name := a.Name
	if name == "" {
		name = models.PlaceholderName
	}
	updates := map[string]any{"name": name}
	if a.KCalories != nil {
		updates["kcalories"] = *a.KCalories
	}
	if a.Protein != nil {
		updates["protein"] = *a.Protein
	}
	if a.Value != nil {
		updates["value"] = *a.Value
	}
	return r.transition(ctx, id, models.StatusCompleted, updates)
}

// MarkError moves a pending entry to error without writing nutrition.
func (r *EntryRepository) MarkError(ctx context.Context, id uint) error {
	return r.transition(ctx, id, models.StatusError, map[string]any{})
}

// transition writes the pending -> to move together with updates. The WHERE
// clause pins the source status, so a second terminal update affects no rows.
func (r *EntryRepository) transition(ctx context.Context, id uint, to models.Status, updates map[string]any) error {
	from := models.StatusPending
	if _, err := models.Transition(from, to); err != nil {
		return fmt.Errorf("entry %d: %w", id, err)
	}
	updates["status"] = to

	res := r.db.WithContext(ctx).
		Model(&models.FoodEntry{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update entry %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("entry %d: %w", id, ErrNotPending)
	}
	return nil
}

func (r *EntryRepository) Get(ctx context.Context, userID string, id uint) (*models.FoodEntry, error) {
	var e models.FoodEntry
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry %d: %w", id, err)
	}
	return &e, nil
}

// ListByRange returns the caller's entries with from <= date <= to, newest
// first.
func (r *EntryRepository) ListByRange(ctx context.Context, userID, from, to string) ([]models.FoodEntry, error) {
	var entries []models.FoodEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}
