package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fedor-resh/bite/internal/models"
)

func TestPendingSet(t *testing.T) {
	s := NewPendingSet(2)
	s.Add(1)
	s.Add(2)
	s.Add(2)
	if s.Len() != 2 || !s.Has(1) || !s.Has(2) {
		t.Fatalf("unexpected set state, len %d", s.Len())
	}

	s.Add(3)
	if s.Has(1) {
		t.Error("oldest id should be evicted")
	}
	if !s.Has(3) || s.Len() != 2 {
		t.Errorf("len = %d, has(3) = %v", s.Len(), s.Has(3))
	}

	s.Remove(2)
	s.Remove(42)
	if s.Has(2) || s.Len() != 1 {
		t.Errorf("len = %d after remove", s.Len())
	}
}

type fakeFetcher struct {
	entries  []models.FoodEntry
	err      error
	from, to string
}

func (f *fakeFetcher) ListEntries(_ context.Context, from, to string) ([]models.FoodEntry, error) {
	f.from, f.to = from, to
	return f.entries, f.err
}

func TestCache_PlaceholderConfirmRefresh(t *testing.T) {
	fetcher := &fakeFetcher{}
	pending := NewPendingSet(10)
	cache := NewCache(fetcher, pending)
	cache.now = func() time.Time { return time.Unix(1709600000, 0) }

	key, err := cache.AddPlaceholder("2024-03-06", "file:///tmp/lunch.jpg")
	if err != nil {
		t.Fatalf("AddPlaceholder: %v", err)
	}
	if key >= 0 {
		t.Errorf("placeholder key = %d, want negative", key)
	}

	week := cache.Week("2024-03-04")
	if len(week) != 1 || !week[0].Placeholder || week[0].Entry.Status != models.StatusPending {
		t.Fatalf("week = %+v", week)
	}

	cache.Confirm(models.UploadResponse{ID: 9, Status: models.StatusPending})
	if !pending.Has(9) || !cache.Stale("2024-03-04") {
		t.Fatal("confirm should track id and invalidate the week")
	}

	// Still pending on the server: stays tracked, placeholder replaced.
	fetcher.entries = []models.FoodEntry{{ID: 9, Date: "2024-03-06", Status: models.StatusPending}}
	if err := cache.RefreshStale(context.Background()); err != nil {
		t.Fatalf("RefreshStale: %v", err)
	}
	if fetcher.from != "2024-03-04" || fetcher.to != "2024-03-10" {
		t.Errorf("fetched %s..%s", fetcher.from, fetcher.to)
	}
	week = cache.Week("2024-03-04")
	if len(week) != 1 || week[0].Placeholder || week[0].Key != 9 {
		t.Errorf("week after refresh = %+v", week)
	}
	if !pending.Has(9) || cache.Stale("2024-03-04") {
		t.Error("pending entry should stay tracked and week should be fresh")
	}

	fetcher.entries[0].Status = models.StatusCompleted
	if _, err := cache.Refresh(context.Background(), "2024-03-04"); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if pending.Has(9) {
		t.Error("completed id should leave the pending set")
	}
}

func TestCache_DiscardAndErrors(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("offline")}
	cache := NewCache(fetcher, NewPendingSet(0))

	key, err := cache.AddPlaceholder("2024-03-05", "")
	if err != nil {
		t.Fatal(err)
	}
	cache.Discard(key)
	if got := cache.Week("2024-03-04"); len(got) != 0 {
		t.Errorf("week = %+v, want empty", got)
	}

	if _, err := cache.AddPlaceholder("March 5", ""); err == nil {
		t.Error("expected date error")
	}
	if _, err := cache.Refresh(context.Background(), "2024-03-04"); err == nil {
		t.Error("expected fetch error")
	}
}

func TestClient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/entries/photo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Unauthorized", Status: models.StatusError})
			return
		}
		file, header, err := r.FormFile("photo")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		if string(data) != "jpeg-bytes" || header.Header.Get("Content-Type") != "image/jpeg" || r.FormValue("date") != "2024-03-05" {
			t.Errorf("unexpected upload: %q %q %q", data, header.Header.Get("Content-Type"), r.FormValue("date"))
		}
		json.NewEncoder(w).Encode(models.UploadResponse{ID: 4, Status: models.StatusPending, ImageURL: "https://cdn/x.jpg"})
	})
	mux.HandleFunc("/api/entries", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("from") != "2024-03-04" {
			t.Errorf("from = %q", r.URL.Query().Get("from"))
		}
		json.NewEncoder(w).Encode([]models.FoodEntry{{ID: 4, Status: models.StatusPending}})
	})
	mux.HandleFunc("/api/entries/4", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.FoodEntry{ID: 4, Status: models.StatusCompleted, Name: "Apple"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	c := NewClient(srv.URL+"/", "tok", srv.Client())

	resp, err := c.Upload(ctx, "lunch.jpg", "image/jpeg", []byte("jpeg-bytes"), "2024-03-05")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if resp.ID != 4 || resp.Status != models.StatusPending {
		t.Errorf("resp = %+v", resp)
	}

	entries, err := c.ListEntries(ctx, "2024-03-04", "2024-03-10")
	if err != nil || len(entries) != 1 {
		t.Fatalf("ListEntries = %v, %v", entries, err)
	}

	entry, err := c.GetEntry(ctx, 4)
	if err != nil || entry.Name != "Apple" {
		t.Fatalf("GetEntry = %+v, %v", entry, err)
	}

	bad := NewClient(srv.URL, "wrong", srv.Client())
	_, err = bad.Upload(ctx, "lunch.jpg", "image/jpeg", []byte("jpeg-bytes"), "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized || apiErr.Body.Error != "Unauthorized" {
		t.Errorf("err = %v", err)
	}
}
