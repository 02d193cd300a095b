package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gtm9/remi-ai-v1/internal/model"
)

const service = "voice"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// ErrMalformedResponse is returned when a 2xx answer carries no usable audio reference.
var ErrMalformedResponse = errors.New("voice: malformed response")

// Params are the fixed generation parameters sent with every request.
type Params struct {
	Exaggeration float64
	Temperature  float64
	CFGWeight    float64
	Seed         int
}

type generateRequest struct {
	AudioURL     string  `json:"audioUrl"`
	Text         string  `json:"text"`
	Exaggeration float64 `json:"exaggeration"`
	Temperature  float64 `json:"temperature"`
	CFGWeight    float64 `json:"cfgWeight"`
	Seed         int     `json:"seed"`
}

type generateResponse struct {
	PredictedAudioURL *struct {
		FileKey string `json:"fileKey"`
		Data    []struct {
			Value struct {
				URL string `json:"url"`
			} `json:"value"`
		} `json:"data"`
		Time float64 `json:"time"`
	} `json:"predictedAudioUrl"`
}

// Client calls the voice cloning backend.
type Client struct {
	baseURL    string
	params     Params
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a voice generation client.
func NewClient(baseURL string, params Params, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		params:     params,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", service),
	}
}

// Generate asks the backend to speak text in the voice found at audioURL.
func (c *Client) Generate(ctx context.Context, audioURL, text string) (model.GeneratedAudio, error) {
	payload, err := json.Marshal(generateRequest{
		AudioURL:     audioURL,
		Text:         text,
		Exaggeration: c.params.Exaggeration,
		Temperature:  c.params.Temperature,
		CFGWeight:    c.params.CFGWeight,
		Seed:         c.params.Seed,
	})
	if err != nil {
		return model.GeneratedAudio{}, fmt.Errorf("voice: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict-gradio", bytes.NewReader(payload))
	if err != nil {
		return model.GeneratedAudio{}, fmt.Errorf("voice: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.ErrorContext(ctx, "voice request failed", slog.String("error", err.Error()))
		return model.GeneratedAudio{}, fmt.Errorf("voice: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp.Body)
	if err != nil {
		return model.GeneratedAudio{}, fmt.Errorf("voice: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.GeneratedAudio{}, &model.UpstreamError{
			Service:    service,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return model.GeneratedAudio{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if out.PredictedAudioURL == nil {
		return model.GeneratedAudio{}, fmt.Errorf("%w: missing predictedAudioUrl", ErrMalformedResponse)
	}

	result := model.GeneratedAudio{
		FileKey: out.PredictedAudioURL.FileKey,
		Time:    out.PredictedAudioURL.Time,
	}
	if len(out.PredictedAudioURL.Data) > 0 {
		result.URL = out.PredictedAudioURL.Data[0].Value.URL
	}
	if result.FileKey == "" && result.URL == "" {
		return model.GeneratedAudio{}, fmt.Errorf("%w: no file key or url", ErrMalformedResponse)
	}

	c.log.InfoContext(ctx, "voice generated",
		slog.String("file_key", result.FileKey),
		slog.Float64("backend_time", result.Time),
		slog.Duration("elapsed", time.Since(start)))
	return result, nil
}

func readBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxResponseBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", maxResponseBytes)
	}
	return body, nil
}
