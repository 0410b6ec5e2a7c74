package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fedor-resh/bite/internal/apperr"
	"github.com/fedor-resh/bite/internal/middleware"
	"github.com/fedor-resh/bite/internal/models"
	"github.com/fedor-resh/bite/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListEntries returns the caller's entries for ?from=&to=, newest first.
// Both bounds default to the current Monday..Sunday week.
func ListEntries(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, err := dateRange(c, d)
		if err != nil {
			respondError(c, err, 0, "")
			return
		}

		entries, err := d.Entries.ListByRange(c.Request.Context(), c.GetString(middleware.UserIDKey), from, to)
		if err != nil {
			respondError(c, apperr.Server("Failed to fetch entries", err), 0, "")
			return
		}
		if entries == nil {
			entries = []models.FoodEntry{}
		}
		c.JSON(http.StatusOK, entries)
	}
}

func GetEntry(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			respondError(c, apperr.BadRequest("invalid entry id %q", c.Param("id")), 0, "")
			return
		}

		entry, err := d.Entries.Get(c.Request.Context(), c.GetString(middleware.UserIDKey), uint(id))
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, apperr.NotFound("Entry"), 0, "")
			return
		}
		if err != nil {
			respondError(c, apperr.Server("Failed to fetch entry", err), 0, "")
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

// CalorieStats reports mean daily calories over completed entries in range.
func CalorieStats(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, err := dateRange(c, d)
		if err != nil {
			respondError(c, err, 0, "")
			return
		}

		entries, err := d.Entries.ListByRange(c.Request.Context(), c.GetString(middleware.UserIDKey), from, to)
		if err != nil {
			respondError(c, apperr.Server("Failed to fetch entries", err), 0, "")
			return
		}
		c.JSON(http.StatusOK, models.MeanDailyCalories(entries, from, to))
	}
}

func dateRange(c *gin.Context, d Deps) (string, string, error) {
	now := d.now()
	if d.Location != nil {
		now = now.In(d.Location)
	}
	from, to := models.WeekBounds(now)

	if v := c.Query("from"); v != "" {
		from = v
	}
	if v := c.Query("to"); v != "" {
		to = v
	}
	for _, v := range []string{from, to} {
		if _, err := time.Parse(models.DateLayout, v); err != nil {
			return "", "", apperr.BadRequest("date must be YYYY-MM-DD, got %q", v)
		}
	}
	if from > to {
		return "", "", apperr.BadRequest("from %s is after to %s", from, to)
	}
	return from, to, nil
}
