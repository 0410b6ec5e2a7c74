// cmd/uploader/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fedor-resh/bite/internal/auth"
	"github.com/fedor-resh/bite/internal/models"
	"github.com/fedor-resh/bite/internal/reconcile"
	"github.com/fedor-resh/bite/pkg/imaging"
	"github.com/joho/godotenv"
)

type options struct {
	Server   string
	Token    string
	Secret   string
	UserID   string
	Date     string
	MaxDim   int
	Timeout  time.Duration
	Interval time.Duration
	Photo    string
}

func parseArgs(args []string, now time.Time) (options, error) {
	fs := flag.NewFlagSet("uploader", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	opts := options{}
	fs.StringVar(&opts.Server, "server", envOr("BITE_SERVER", "http://localhost:8080"), "API base URL")
	fs.StringVar(&opts.Token, "token", os.Getenv("BITE_TOKEN"), "bearer token")
	fs.StringVar(&opts.Secret, "jwt-secret", os.Getenv("JWT_SECRET"), "sign a local token with this secret when -token is empty")
	fs.StringVar(&opts.UserID, "user", "", "user id for a locally signed token")
	fs.StringVar(&opts.Date, "date", now.Format(models.DateLayout), "entry date, YYYY-MM-DD")
	fs.IntVar(&opts.MaxDim, "max-dim", 1280, "downscale the photo to fit this many pixels before upload, 0 to disable")
	fs.DurationVar(&opts.Timeout, "timeout", 2*time.Minute, "how long to wait for analysis")
	fs.DurationVar(&opts.Interval, "interval", 2*time.Second, "poll interval")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() != 1 {
		return options{}, errors.New("usage: uploader [flags] <photo>")
	}
	opts.Photo = fs.Arg(0)

	if opts.Token == "" && (opts.Secret == "" || opts.UserID == "") {
		return options{}, errors.New("either -token or both -jwt-secret and -user are required")
	}
	if _, err := time.Parse(models.DateLayout, opts.Date); err != nil {
		return options{}, fmt.Errorf("invalid -date %q", opts.Date)
	}
	if opts.Interval <= 0 {
		return options{}, errors.New("-interval must be positive")
	}
	return opts, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	opts, err := parseArgs(os.Args[1:], time.Now())
	if err != nil {
		log.Fatal(err)
	}

	token := opts.Token
	if token == "" {
		token, err = auth.GenerateToken([]byte(opts.Secret), opts.UserID, "", time.Hour)
		if err != nil {
			log.Fatal("Failed to sign token:", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	entry, err := run(ctx, reconcile.NewClient(opts.Server, token, nil), opts)
	if err != nil {
		log.Fatal(err)
	}

	out, _ := json.MarshalIndent(entry, "", "  ")
	fmt.Println(string(out))
}

type api interface {
	reconcile.Fetcher
	Upload(ctx context.Context, filename, contentType string, photo []byte, date string) (models.UploadResponse, error)
	GetEntry(ctx context.Context, id uint) (*models.FoodEntry, error)
}

// run uploads the photo with an optimistic placeholder and refreshes the
// entry's week until the new id leaves the pending set or ctx expires.
func run(ctx context.Context, client api, opts options) (*models.FoodEntry, error) {
	data, err := os.ReadFile(opts.Photo)
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	contentType := imaging.ContentType("", data)
	if resized, ok, err := imaging.Downscale(data, contentType, opts.MaxDim); err != nil {
		log.Printf("Uploading original, downscale failed: %v", err)
	} else if ok {
		data = resized
	}

	pending := reconcile.NewPendingSet(64)
	cache := reconcile.NewCache(client, pending)

	preview := "file://" + opts.Photo
	if abs, err := filepath.Abs(opts.Photo); err == nil {
		preview = "file://" + abs
	}
	key, err := cache.AddPlaceholder(opts.Date, preview)
	if err != nil {
		return nil, err
	}

	resp, err := client.Upload(ctx, filepath.Base(opts.Photo), contentType, data, opts.Date)
	if err != nil {
		cache.Discard(key)
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	cache.Confirm(resp)
	log.Printf("Uploaded entry %d, waiting for analysis", resp.ID)

	monday, err := models.MondayOf(opts.Date)
	if err != nil {
		return nil, err
	}
	if err := cache.RefreshStale(ctx); err != nil {
		log.Printf("Refresh failed: %v", err)
	}

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for pending.Has(resp.ID) {
		select {
		case <-ctx.Done():
			log.Printf("Entry %d still pending after %s", resp.ID, opts.Timeout)
			return client.GetEntry(context.WithoutCancel(ctx), resp.ID)
		case <-ticker.C:
		}
		if _, err := cache.Refresh(ctx, monday); err != nil && ctx.Err() == nil {
			log.Printf("Refresh failed: %v", err)
		}
	}

	return client.GetEntry(ctx, resp.ID)
}
