package destinations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gazette/internal/caption"
	"gazette/internal/publish"
)

func init() {
	Register("webhook", newWebhook)
}

// webhookDestination publishes through a generic JSON-over-HTTP endpoint.
// The endpoint exposes three routes: GET /auth verifies the bearer token,
// POST /media accepts a multipart image upload, POST /posts creates a post.
// A 429 response with a Retry-After or X-RateLimit-Reset header surfaces as
// a rate-limit error so the publisher waits out the window.
type webhookDestination struct {
	name     string
	endpoint string
	token    string
	client   *http.Client
}

func newWebhook(settings Settings) (publish.Destination, error) {
	if strings.TrimSpace(settings.Endpoint) == "" {
		return nil, fmt.Errorf("webhook destination %s: endpoint must be set", settings.Name)
	}
	token := settings.Credential("token")
	if token == "" {
		return nil, fmt.Errorf("webhook destination %s: %w: token", settings.Name, ErrMissingCredentials)
	}
	client := settings.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &webhookDestination{
		name:     settings.Name,
		endpoint: strings.TrimRight(settings.Endpoint, "/"),
		token:    token,
		client:   client,
	}, nil
}

func (w *webhookDestination) Name() string { return w.name }

func (w *webhookDestination) Authenticate(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.endpoint+"/auth", nil)
	if err != nil {
		return err
	}
	resp, err := w.do(req)
	if err != nil {
		return fmt.Errorf("verify token: %w", err)
	}
	resp.Body.Close()
	return nil
}

func (w *webhookDestination) UploadImage(ctx context.Context, path string) (publish.MediaHandle, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint+"/media", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.do(req)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if payload.ID == "" {
		return "", fmt.Errorf("upload response missing id")
	}
	return publish.MediaHandle(payload.ID), nil
}

type webhookSpan struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

type webhookPost struct {
	Text  string        `json:"text"`
	Links []webhookSpan `json:"links,omitempty"`
	Tags  []webhookSpan `json:"tags,omitempty"`
	Media []string      `json:"media"`
	Reply *struct {
		Root   string `json:"root"`
		Parent string `json:"parent"`
	} `json:"reply,omitempty"`
}

func (w *webhookDestination) CreatePost(ctx context.Context, content caption.Caption, media []publish.MediaHandle, reply *publish.Reply) (publish.PostRef, error) {
	post := webhookPost{Text: content.Body, Media: make([]string, 0, len(media))}
	for _, handle := range media {
		post.Media = append(post.Media, string(handle))
	}
	for _, span := range content.LinkSpans {
		post.Links = append(post.Links, webhookSpan{Start: span.Start, End: span.End, URL: span.URL})
	}
	for _, span := range content.TagSpans {
		post.Tags = append(post.Tags, webhookSpan{Start: span.Start, End: span.End, Tag: span.Tag})
	}
	if reply != nil {
		post.Reply = &struct {
			Root   string `json:"root"`
			Parent string `json:"parent"`
		}{Root: string(reply.Root), Parent: string(reply.Parent)}
	}

	encoded, err := json.Marshal(post)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint+"/posts", bytes.NewReader(encoded))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.do(req)
	if err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode post response: %w", err)
	}
	if payload.ID == "" {
		return "", fmt.Errorf("post response missing id")
	}
	return publish.PostRef(payload.ID), nil
}

// do sends the request with the bearer token and normalizes non-2xx
// responses into errors. 429 becomes a publish.RateLimitError.
func (w *webhookDestination) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+w.token)
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &publish.RateLimitError{Reset: rateLimitReset(resp)}
	}
	return nil, fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(snippet)))
}

// rateLimitReset extracts the reset time from Retry-After (seconds) or
// X-RateLimit-Reset (unix timestamp), defaulting to one minute out.
func rateLimitReset(resp *http.Response) time.Time {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil && seconds >= 0 {
			return time.Now().Add(time.Duration(seconds) * time.Second)
		}
	}
	if header := resp.Header.Get("X-RateLimit-Reset"); header != "" {
		if unix, err := strconv.ParseInt(header, 10, 64); err == nil && unix > 0 {
			return time.Unix(unix, 0)
		}
	}
	return time.Now().Add(time.Minute)
}
