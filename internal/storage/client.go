package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/gtm9/remi-ai-v1/internal/model"
)

const service = "storage"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// Object is one entry of a bucket listing.
type Object struct {
	Key          string `json:"key"`
	Size         int64  `json:"size"`
	ETag         string `json:"eTag"`
	LastModified string `json:"lastModified"`
}

type listResponse struct {
	Objects []Object `json:"s3Objects"`
}

// UploadRequest describes one file to upload.
type UploadRequest struct {
	FilePath    string // key prefix inside the bucket
	FileName    string
	ID          string
	ContentType string
	Body        io.Reader
}

// UploadResult is the storage API's answer to an upload.
type UploadResult struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	FileKey string `json:"fileKey"`
}

// Client talks to the object storage API that fronts the audio bucket.
type Client struct {
	baseURL    string
	bucket     string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a storage client for one bucket.
func NewClient(baseURL, bucket string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		bucket:     bucket,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", service),
	}
}

// List returns the objects stored under prefix.
func (c *Client) List(ctx context.Context, prefix string) ([]Object, error) {
	q := url.Values{}
	q.Set("selectR2Bucket", c.bucket)
	q.Set("prefix", prefix)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("GetList", q), nil)
	if err != nil {
		return nil, fmt.Errorf("storage: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var out listResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}

	c.log.DebugContext(ctx, "storage listing", slog.String("prefix", prefix), slog.Int("objects", len(out.Objects)))
	return out.Objects, nil
}

// Upload sends one file as multipart form data.
func (c *Client) Upload(ctx context.Context, in UploadRequest) (UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, in.FileName))
	header.Set("Content-Type", in.ContentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return UploadResult{}, fmt.Errorf("storage: create form part: %w", err)
	}
	if _, err := io.Copy(part, in.Body); err != nil {
		return UploadResult{}, fmt.Errorf("storage: read upload body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("storage: close form: %w", err)
	}

	q := url.Values{}
	q.Set("selectR2Bucket", c.bucket)
	q.Set("filePath", in.FilePath)
	q.Set("name", in.FileName)
	q.Set("id", in.ID)
	q.Set("type", in.ContentType)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("Upload", q), &body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("storage: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "*/*")

	var out UploadResult
	if err := c.do(req, &out); err != nil {
		return UploadResult{}, err
	}

	c.log.InfoContext(ctx, "storage upload", slog.String("file_key", out.FileKey), slog.String("name", in.FileName))
	return out, nil
}

// Delete removes the object with the given key.
func (c *Client) Delete(ctx context.Context, key string) error {
	q := url.Values{}
	q.Set("selectR2Bucket", c.bucket)
	q.Set("key", key)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint("Delete", q), nil)
	if err != nil {
		return fmt.Errorf("storage: create request: %w", err)
	}
	req.Header.Set("Accept", "*/*")

	if err := c.do(req, nil); err != nil {
		return err
	}

	c.log.InfoContext(ctx, "storage delete", slog.String("key", key))
	return nil
}

func (c *Client) endpoint(op string, q url.Values) string {
	return c.baseURL + "/R2/" + op + "?" + q.Encode()
}

// do executes req and decodes a JSON body into out when out is non-nil.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.ErrorContext(req.Context(), "storage request failed",
			slog.String("method", req.Method), slog.String("error", err.Error()))
		return fmt.Errorf("storage: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp.Body)
	if err != nil {
		return fmt.Errorf("storage: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &model.UpstreamError{Service: service, StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("storage: decode json: %w", err)
	}
	return nil
}

// errorMessage prefers the JSON "message" field and falls back to the raw text.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(body))
}

// PublicURL joins the public bucket base URL and an object key with exactly one slash.
func PublicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
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
