package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/fedor-resh/bite/internal/models"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Body       models.ErrorResponse
}

func (e *APIError) Error() string {
	if e.Body.Error != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Body.Error)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// Client calls the entries API with a bearer token.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{http: httpClient, baseURL: strings.TrimRight(baseURL, "/"), token: token}
}

// Upload sends the photo as multipart "photo" plus an optional "date".
func (c *Client) Upload(ctx context.Context, filename, contentType string, photo []byte, date string) (models.UploadResponse, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreatePart(photoHeader(filename, contentType))
	if err != nil {
		return models.UploadResponse{}, err
	}
	if _, err := part.Write(photo); err != nil {
		return models.UploadResponse{}, err
	}
	if date != "" {
		if err := w.WriteField("date", date); err != nil {
			return models.UploadResponse{}, err
		}
	}
	if err := w.Close(); err != nil {
		return models.UploadResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/entries/photo", &body)
	if err != nil {
		return models.UploadResponse{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var resp models.UploadResponse
	if err := c.do(req, &resp); err != nil {
		return models.UploadResponse{}, err
	}
	return resp, nil
}

func (c *Client) ListEntries(ctx context.Context, from, to string) ([]models.FoodEntry, error) {
	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/entries?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var entries []models.FoodEntry
	if err := c.do(req, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) GetEntry(ctx context.Context, id uint) (*models.FoodEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/entries/%d", c.baseURL, id), nil)
	if err != nil {
		return nil, err
	}

	var entry models.FoodEntry
	if err := c.do(req, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(raw, &apiErr.Body)
		return apiErr
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func photoHeader(filename, contentType string) textproto.MIMEHeader {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="photo"; filename=%q`, filename)},
		"Content-Type":        {contentType},
	}
}
