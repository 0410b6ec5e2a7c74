// internal/handlers/processing.go
package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/fedor-resh/bite/internal/apperr"
	"github.com/fedor-resh/bite/internal/middleware"
	"github.com/fedor-resh/bite/internal/models"
	"github.com/fedor-resh/bite/internal/storage"
	"github.com/fedor-resh/bite/internal/tasks"
	"github.com/fedor-resh/bite/pkg/imaging"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EntryStore is the part of the record store the HTTP layer needs.
type EntryStore interface {
	Insert(ctx context.Context, e *models.FoodEntry) error
	MarkError(ctx context.Context, id uint) error
	Get(ctx context.Context, userID string, id uint) (*models.FoodEntry, error)
	ListByRange(ctx context.Context, userID, from, to string) ([]models.FoodEntry, error)
}

type Deps struct {
	Images    storage.ImageStore
	Entries   EntryStore
	Scheduler tasks.Scheduler

	// Now and Location decide the default entry date.
	Now      func() time.Time
	Location *time.Location

	MaxImageDimension int
	// MaxPhotoBytes caps the photo part; 0 means DefaultMaxPhotoBytes.
	MaxPhotoBytes int64
}

const DefaultMaxPhotoBytes int64 = 10 << 20

// Room for the multipart envelope and the date field.
const multipartOverhead = 1 << 20

func (d Deps) maxPhotoBytes() int64 {
	if d.MaxPhotoBytes <= 0 {
		return DefaultMaxPhotoBytes
	}
	return d.MaxPhotoBytes
}

func (d Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

// UploadFoodPhoto stores the photo, inserts a pending entry and schedules
// analysis. The response never waits for the analysis.
func UploadFoodPhoto(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(middleware.UserIDKey)
		if userID == "" {
			respondError(c, apperr.Unauthorized(), 0, "")
			return
		}

		limit := d.maxPhotoBytes()
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

		file, err := c.FormFile("photo")
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, apperr.BadRequest("Photo exceeds %d bytes", limit), 0, "")
			return
		}
		if err != nil {
			respondError(c, apperr.BadRequest("No photo file provided"), 0, "")
			return
		}
		if file.Size > limit {
			respondError(c, apperr.BadRequest("Photo exceeds %d bytes", limit), 0, "")
			return
		}

		now := d.now()
		date, err := models.NormalizeDate(c.PostForm("date"), now, d.Location)
		if err != nil {
			respondError(c, apperr.BadRequest("%v", err), 0, "")
			return
		}

		data, err := readFile(file)
		if err != nil {
			respondError(c, apperr.Server("Failed to read photo", err), 0, "")
			return
		}

		contentType := imaging.ContentType(file.Header.Get("Content-Type"), data)
		if resized, ok, err := imaging.Downscale(data, contentType, d.MaxImageDimension); err != nil {
			log.Printf("downscale skipped for %s: %v", file.Filename, err)
		} else if ok {
			data = resized
		}

		ctx := c.Request.Context()
		objectName := storage.ObjectPath(userID, file.Filename, now)

		if err := d.Images.Put(ctx, objectName, data, contentType); err != nil {
			respondError(c, apperr.Server("Failed to upload photo", err), 0, "")
			return
		}

		imageURL, err := d.Images.PublicURL(ctx, objectName)
		if err != nil {
			respondError(c, apperr.Server("Failed to resolve photo URL", err), 0, "")
			return
		}

		entry := models.NewPendingEntry(userID, imageURL, date)
		if err := d.Entries.Insert(ctx, entry); err != nil {
			respondError(c, apperr.Server("Failed to create food entry", err), 0, imageURL)
			return
		}

		job := tasks.Job{EntryID: entry.ID, ImageURL: imageURL, TaskID: uuid.NewString()}
		if err := d.Scheduler.Schedule(ctx, job); err != nil {
			if markErr := d.Entries.MarkError(context.WithoutCancel(ctx), entry.ID); markErr != nil {
				log.Printf("failed to mark unscheduled entry %d as error: %v", entry.ID, markErr)
			}
			respondError(c, apperr.Server("Failed to schedule analysis", err), entry.ID, imageURL)
			return
		}

		c.JSON(http.StatusOK, models.UploadResponse{
			ID:       entry.ID,
			Status:   entry.Status,
			ImageURL: imageURL,
		})
	}
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func respondError(c *gin.Context, err error, id uint, imageURL string) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("request_id=%s: %v", c.GetString(middleware.RequestIDKey), err)
	}
	c.JSON(status, models.ErrorResponse{
		Error:    apperr.Message(err),
		Status:   models.StatusError,
		ID:       id,
		ImageURL: imageURL,
	})
}
