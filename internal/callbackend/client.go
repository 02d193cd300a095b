package callbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gtm9/remi-ai-v1/internal/model"
)

const service = "call"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

type makeCallRequest struct {
	GeneratedAudioURL string         `json:"generatedAudioUrl"`
	Reminder          model.Reminder `json:"reminder"`
}

type makeCallResponse struct {
	Message string `json:"message"`
}

// Client asks the call backend to phone the user and play generated audio.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a call backend client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", service),
	}
}

// PlaceCall posts to /make-call and returns the backend's message.
func (c *Client) PlaceCall(ctx context.Context, audioURL string, r model.Reminder) (string, error) {
	payload, err := json.Marshal(makeCallRequest{GeneratedAudioURL: audioURL, Reminder: r})
	if err != nil {
		return "", fmt.Errorf("call: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/make-call", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("call: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp.Body)
	if err != nil {
		return "", fmt.Errorf("call: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &model.UpstreamError{Service: service, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var out makeCallResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("call: decode json: %w", err)
	}
	if out.Message == "" {
		out.Message = "Call is being processed."
	}

	c.log.InfoContext(ctx, "call requested", slog.String("reminder_id", r.ID), slog.String("message", out.Message))
	return out.Message, nil
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
