package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client wraps HTTP calls to the nzzel server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new nzzel API client.
func NewClient(serverURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{
			// metadata extraction can take a while for long playlists
			Timeout: 2 * time.Minute,
		},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func (c *Client) do(method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal error: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("request creation failed: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}

	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Code = body.Code
	}
	return apiErr
}

func (c *Client) get(path string, result any) error {
	return c.do(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body, result any) error {
	return c.do(http.MethodPost, path, body, result)
}

// API response types (mirror server types)

type ToolStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
}

type StatusResponse struct {
	Status     string         `json:"status"`
	YtDlp      ToolStatus     `json:"ytdlp"`
	ActiveJobs []string       `json:"active_jobs"`
	Downloads  map[string]int `json:"downloads"`
}

type VideoInfo struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Uploader    string  `json:"uploader"`
	Duration    float64 `json:"duration"`
	ViewCount   int64   `json:"view_count"`
	LikeCount   int64   `json:"like_count"`
	Thumbnail   string  `json:"thumbnail"`
	WebpageURL  string  `json:"webpage_url"`
	URL         string  `json:"url,omitempty"`
}

// Link returns the best URL for fetching the video.
func (v *VideoInfo) Link() string {
	if v.WebpageURL != "" {
		return v.WebpageURL
	}
	return v.URL
}

type PlaylistInfo struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Uploader   string      `json:"uploader"`
	WebpageURL string      `json:"webpage_url"`
	Entries    []VideoInfo `json:"entries"`
}

// ExtractResponse holds either a video or a playlist, per Type.
type ExtractResponse struct {
	Type     string          `json:"type"`
	Data     json.RawMessage `json:"data"`
	Video    *VideoInfo      `json:"-"`
	Playlist *PlaylistInfo   `json:"-"`
}

type Format struct {
	FormatID   string   `json:"format_id"`
	Height     int      `json:"height"`
	Ext        string   `json:"ext"`
	Filesize   int64    `json:"filesize"`
	TBR        *float64 `json:"tbr"`
	VCodec     string   `json:"vcodec"`
	ACodec     string   `json:"acodec"`
	FormatNote *string  `json:"format_note"`
	FPS        *float64 `json:"fps"`
}

type FormatsResponse struct {
	Formats []Format `json:"formats"`
}

type StartDownloadRequest struct {
	URL          string  `json:"url"`
	VideoID      string  `json:"video_id"`
	Title        string  `json:"title"`
	Format       string  `json:"format,omitempty"`
	Quality      string  `json:"quality,omitempty"`
	AudioOnly    bool    `json:"audio_only"`
	OutputPath   string  `json:"output_path,omitempty"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty"`
	Duration     *int64  `json:"duration,omitempty"`
}

type StartDownloadResponse struct {
	DownloadID int64  `json:"download_id"`
	JobID      string `json:"job_id"`
	Message    string `json:"message"`
}

type DownloadResponse struct {
	ID               int64      `json:"id"`
	JobID            string     `json:"job_id"`
	VideoID          string     `json:"video_id"`
	Title            string     `json:"title"`
	URL              string     `json:"url"`
	Quality          string     `json:"quality"`
	Format           string     `json:"format"`
	AudioOnly        bool       `json:"audio_only"`
	Filename         string     `json:"filename"`
	FilePath         string     `json:"file_path"`
	FileSize         *int64     `json:"file_size,omitempty"`
	Duration         *int64     `json:"duration,omitempty"`
	Status           string     `json:"status"`
	Progress         float64    `json:"progress"`
	Speed            *float64   `json:"download_speed,omitempty"`
	ETA              *int64     `json:"eta,omitempty"`
	ErrorMessage     *string    `json:"error_message,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	LastTransitionAt time.Time  `json:"last_transition_at"`
}

type ListDownloadsResponse struct {
	Items  []DownloadResponse `json:"items"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// DownloadFilter selects downloads to list.
type DownloadFilter struct {
	Status string
	Active bool
	Query  string
	Limit  int
	Offset int
}

func (f DownloadFilter) encode() string {
	params := url.Values{}
	if f.Status != "" {
		params.Set("status", f.Status)
	}
	if f.Active {
		params.Set("active", "true")
	}
	if f.Query != "" {
		params.Set("q", f.Query)
	}
	if f.Limit > 0 {
		params.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		params.Set("offset", strconv.Itoa(f.Offset))
	}
	if len(params) == 0 {
		return ""
	}
	return "?" + params.Encode()
}

type CancelResponse struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"`
	JobActive bool   `json:"job_active"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	EventType  string         `json:"event_type"`
	JobID      string         `json:"job_id"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt string         `json:"occurred_at"`
}

type ListEventsResponse struct {
	Items []EventResponse `json:"items"`
	Total int             `json:"total"`
}

// API methods

func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get("/api/v1/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Extract fetches metadata for a video or playlist URL.
func (c *Client) Extract(rawURL string) (*ExtractResponse, error) {
	var resp ExtractResponse
	if err := c.post("/api/v1/extract", map[string]string{"url": rawURL}, &resp); err != nil {
		return nil, err
	}

	switch resp.Type {
	case "playlist":
		resp.Playlist = &PlaylistInfo{}
		if err := json.Unmarshal(resp.Data, resp.Playlist); err != nil {
			return nil, fmt.Errorf("decode playlist: %w", err)
		}
	default:
		resp.Video = &VideoInfo{}
		if err := json.Unmarshal(resp.Data, resp.Video); err != nil {
			return nil, fmt.Errorf("decode video: %w", err)
		}
	}
	return &resp, nil
}

func (c *Client) Formats(rawURL string) (*FormatsResponse, error) {
	var resp FormatsResponse
	if err := c.post("/api/v1/formats", map[string]string{"url": rawURL}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) StartDownload(req *StartDownloadRequest) (*StartDownloadResponse, error) {
	var resp StartDownloadResponse
	if err := c.post("/api/v1/downloads", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Downloads(f DownloadFilter) (*ListDownloadsResponse, error) {
	var resp ListDownloadsResponse
	if err := c.get("/api/v1/downloads"+f.encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Download(id int64) (*DownloadResponse, error) {
	var resp DownloadResponse
	if err := c.get(fmt.Sprintf("/api/v1/downloads/%d", id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelDownload stops a download's job and marks it cancelled.
func (c *Client) CancelDownload(id int64) (*CancelResponse, error) {
	var resp CancelResponse
	if err := c.do(http.MethodDelete, fmt.Sprintf("/api/v1/downloads/%d", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RemoveDownload deletes a download record, stopping its job if running.
func (c *Client) RemoveDownload(id int64) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/api/v1/downloads/%d?action=remove", id), nil, nil)
}

// RetryDownload restarts a failed download under a new job.
func (c *Client) RetryDownload(id int64) (*DownloadResponse, error) {
	var resp DownloadResponse
	if err := c.post(fmt.Sprintf("/api/v1/downloads/%d/retry", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Events(limit int) (*ListEventsResponse, error) {
	var resp ListEventsResponse
	if err := c.get(fmt.Sprintf("/api/v1/events?limit=%d", limit), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DownloadEvents(id int64) (*ListEventsResponse, error) {
	var resp ListEventsResponse
	if err := c.get(fmt.Sprintf("/api/v1/downloads/%d/events", id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WebsocketURL returns the realtime endpoint for the configured server.
func (c *Client) WebsocketURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/v1/ws"
	return u.String(), nil
}
