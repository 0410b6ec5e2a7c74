package inference

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/fedor-resh/bite/internal/config"
)

// Client sends a photo URL to a vision model and returns its raw text.
type Client interface {
	Analyze(ctx context.Context, imageURL string) (string, error)
}

// New builds the client selected by cfg.Provider.
func New(ctx context.Context, cfg config.InferenceConfig) (Client, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(httpClient, cfg.APIURL, cfg.APIKey, cfg.Model), nil
	case "gemini":
		return NewGeminiClient(httpClient, cfg.GeminiAPIKey, cfg.GeminiModel), nil
	case "rekognition":
		c, err := NewRekognitionClient(ctx, httpClient, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown inference provider %q", cfg.Provider)
	}
}

// Rekognition and Gemini inline bytes rather than URLs.
const maxImageBytes = 5 << 20

func fetchImage(ctx context.Context, client *http.Client, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("image larger than %d bytes", maxImageBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}
