// internal/models/models.go
package models

import (
	"time"
)

const (
	PlaceholderName = "Food"
	DefaultUnit     = "g"
	DateLayout      = "2006-01-02"
)

type FoodEntry struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    string    `gorm:"not null;index" json:"userId"`
	Date      string    `gorm:"type:varchar(10);not null;index" json:"date"`
	ImageURL  string    `gorm:"not null" json:"imageUrl"`
	Status    Status    `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	Name      string    `gorm:"not null" json:"name"`
	Unit      string    `gorm:"not null" json:"unit"`
	KCalories *int      `json:"kcalories,omitempty"` // per 100 g
	Protein   *int      `json:"protein,omitempty"`   // per 100 g
	Value     *int      `json:"value,omitempty"`     // weight, grams
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (FoodEntry) TableName() string {
	return "food_entries"
}

// NewPendingEntry builds the row inserted by the upload path, before any
// analysis has run.
func NewPendingEntry(userID, imageURL, date string) *FoodEntry {
	return &FoodEntry{
		UserID:   userID,
		Date:     date,
		ImageURL: imageURL,
		Status:   StatusPending,
		Name:     PlaceholderName,
		Unit:     DefaultUnit,
	}
}

// Analysis is the set of fields written together with the completed
// transition. Nil numeric fields are left unset in the store.
type Analysis struct {
	Name      string
	KCalories *int
	Protein   *int
	Value     *int
}

type UploadResponse struct {
	ID       uint   `json:"id"`
	Status   Status `json:"status"`
	ImageURL string `json:"imageUrl"`
}

type ErrorResponse struct {
	Error    string `json:"error"`
	Status   Status `json:"status"`
	ID       uint   `json:"id,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}
