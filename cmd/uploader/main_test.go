package main

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fedor-resh/bite/internal/models"
)

func TestParseArgs(t *testing.T) {
	t.Setenv("BITE_TOKEN", "")
	t.Setenv("JWT_SECRET", "")
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

	opts, err := parseArgs([]string{"-token", "tok", "lunch.jpg"}, now)
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if opts.Date != "2024-03-05" || opts.Photo != "lunch.jpg" || opts.MaxDim != 1280 {
		t.Errorf("opts = %+v", opts)
	}

	bad := [][]string{
		{"lunch.jpg"},
		{"-token", "tok"},
		{"-token", "tok", "-date", "05/03/2024", "lunch.jpg"},
		{"-jwt-secret", "s", "lunch.jpg"},
		{"-token", "tok", "-interval", "0s", "lunch.jpg"},
	}
	for _, args := range bad {
		if _, err := parseArgs(args, now); err == nil {
			t.Errorf("parseArgs(%v) succeeded, want error", args)
		}
	}
}

type fakeAPI struct {
	mu       sync.Mutex
	lists    int
	doneFrom int
	uploaded string
}

func (f *fakeAPI) Upload(_ context.Context, filename, contentType string, photo []byte, date string) (models.UploadResponse, error) {
	f.uploaded = filename
	return models.UploadResponse{ID: 11, Status: models.StatusPending, ImageURL: "https://cdn/x.jpg"}, nil
}

func (f *fakeAPI) ListEntries(_ context.Context, from, to string) ([]models.FoodEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	status := models.StatusPending
	if f.lists >= f.doneFrom {
		status = models.StatusCompleted
	}
	return []models.FoodEntry{{ID: 11, Date: "2024-03-05", Status: status}}, nil
}

func (f *fakeAPI) GetEntry(_ context.Context, id uint) (*models.FoodEntry, error) {
	return &models.FoodEntry{ID: id, Status: models.StatusCompleted, Name: "Apple"}, nil
}

func TestRun_PollsUntilAnalyzed(t *testing.T) {
	photo := filepath.Join(t.TempDir(), "lunch.jpg")
	if err := os.WriteFile(photo, []byte("not really a jpeg"), 0o600); err != nil {
		t.Fatal(err)
	}

	api := &fakeAPI{doneFrom: 3}
	opts := options{Date: "2024-03-05", Interval: time.Millisecond, Timeout: time.Second, Photo: photo}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entry, err := run(ctx, api, opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if entry.ID != 11 || entry.Name != "Apple" {
		t.Errorf("entry = %+v", entry)
	}
	if api.uploaded != "lunch.jpg" || api.lists < 3 {
		t.Errorf("uploaded %q, lists %d", api.uploaded, api.lists)
	}
}
