package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/nzzel/internal/config"
)

// newTestCmd returns a command writing to buf, with the given flags defined
// the way the real command defines them.
func newTestCmd(buf *bytes.Buffer, define func(*cobra.Command)) *cobra.Command {
	cmd := &cobra.Command{}
	if define != nil {
		define(cmd)
	}
	cmd.SetOut(buf)
	return cmd
}

func downloadsFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("all", "a", false, "")
	cmd.Flags().StringP("state", "s", "", "")
	cmd.Flags().StringP("find", "f", "", "")
	cmd.Flags().IntP("limit", "n", 0, "")
}

func TestRunDownloads_ActiveByDefault(t *testing.T) {
	var received string
	speed := 2.5 * 1024 * 1024
	eta := int64(90)
	srv := newMockServer(t).
		ExpectPath("/api/v1/downloads").
		Handler(func(w http.ResponseWriter, r *http.Request) {
			received = r.URL.RawQuery
			respondJSON(t, w, ListDownloadsResponse{
				Items: []DownloadResponse{{ID: 1, Title: "A Talk", Status: "downloading", Progress: 42, Speed: &speed, ETA: &eta}},
				Total: 1,
			})
		}).
		Build()
	defer srv.Close()
	defer withServerURL(srv.URL)()

	var buf bytes.Buffer
	require.NoError(t, runDownloadsCmd(newTestCmd(&buf, downloadsFlags), nil))

	assert.Equal(t, "active=true", received)
	out := buf.String()
	assert.Contains(t, out, "Active Downloads (1)")
	assert.Contains(t, out, "A Talk")
	assert.Contains(t, out, "42%")
	assert.Contains(t, out, "2.5 MiB/s")
	assert.Contains(t, out, "1m30s")
}

func TestRunDownloads_StateFilter(t *testing.T) {
	var received string
	srv := newMockServer(t).
		Handler(func(w http.ResponseWriter, r *http.Request) {
			received = r.URL.RawQuery
			respondJSON(t, w, ListDownloadsResponse{})
		}).
		Build()
	defer srv.Close()
	defer withServerURL(srv.URL)()

	var buf bytes.Buffer
	cmd := newTestCmd(&buf, downloadsFlags)
	require.NoError(t, cmd.Flags().Set("state", "FAILED"))
	require.NoError(t, runDownloadsCmd(cmd, nil))

	assert.Equal(t, "status=failed", received)
	assert.Contains(t, buf.String(), "No downloads")
}

func TestRunDownloads_InvalidState(t *testing.T) {
	var buf bytes.Buffer
	cmd := newTestCmd(&buf, downloadsFlags)
	require.NoError(t, cmd.Flags().Set("state", "imported"))

	err := runDownloadsCmd(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid state")
}

func TestRunDownloads_JSON(t *testing.T) {
	srv := newMockServer(t).
		RespondJSON(ListDownloadsResponse{Items: []DownloadResponse{{ID: 3, Title: "T", Status: "completed"}}, Total: 1}).
		Build()
	defer srv.Close()
	defer withServerURL(srv.URL)()

	old := jsonOutput
	jsonOutput = true
	defer func() { jsonOutput = old }()

	var buf bytes.Buffer
	cmd := newTestCmd(&buf, downloadsFlags)
	require.NoError(t, cmd.Flags().Set("all", "true"))
	require.NoError(t, runDownloadsCmd(cmd, nil))

	var got ListDownloadsResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(3), got.Items[0].ID)
}

func TestRunDownloadsShow(t *testing.T) {
	msg := "ERROR: Video unavailable"
	srv := newMockServer(t).
		Handler(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/v1/downloads/4":
				respondJSON(t, w, DownloadResponse{
					ID: 4, Title: "Gone", Status: "failed", Format: "mkv", Quality: "best",
					ErrorMessage: &msg, CreatedAt: time.Now(),
				})
			case "/api/v1/downloads/4/events":
				respondJSON(t, w, ListEventsResponse{
					Items: []EventResponse{{ID: 1, EventType: "download.failed", OccurredAt: "2026-01-02T03:04:05Z"}},
					Total: 1,
				})
			default:
				http.NotFound(w, r)
			}
		}).
		Build()
	defer srv.Close()
	defer withServerURL(srv.URL)()

	var buf bytes.Buffer
	require.NoError(t, runDownloadsShow(newTestCmd(&buf, nil), []string{"4"}))

	out := buf.String()
	assert.Contains(t, out, "Download #4")
	assert.Contains(t, out, "Video unavailable")
	assert.Contains(t, out, "Event History")
	assert.Contains(t, out, "download.failed")
}

func TestRunDownloadsShow_InvalidID(t *testing.T) {
	var buf bytes.Buffer
	err := runDownloadsShow(newTestCmd(&buf, nil), []string{"abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ID")
}

func TestRunDownloadsCancel(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/downloads/42").
		ExpectDELETE().
		RespondJSON(CancelResponse{ID: 42, Status: "cancelled", JobActive: false}).
		Build()
	defer srv.Close()
	defer withServerURL(srv.URL)()

	var buf bytes.Buffer
	require.NoError(t, runDownloadsCancel(newTestCmd(&buf, nil), []string{"42"}))
	assert.Contains(t, buf.String(), "Download 42 cancelled (no running job)")
}

func TestRunDownloadsRemove_NotFound(t *testing.T) {
	srv := newMockServer(t).
		RespondAPIError(http.StatusNotFound, "NOT_FOUND", "download not found").
		Build()
	defer srv.Close()
	defer withServerURL(srv.URL)()

	var buf bytes.Buffer
	err := runDownloadsRemove(newTestCmd(&buf, nil), []string{"42"})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestRunDownloadsRetry(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/downloads/8/retry").
		ExpectPOST().
		RespondJSON(DownloadResponse{ID: 8, Title: "Again", Status: "downloading"}).
		Build()
	defer srv.Close()
	defer withServerURL(srv.URL)()

	var buf bytes.Buffer
	require.NoError(t, runDownloadsRetry(newTestCmd(&buf, nil), []string{"8"}))
	assert.Contains(t, buf.String(), "Retrying download #8: Again")
}

func downloadFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("audio", false, "")
	cmd.Flags().String("format", "", "")
	cmd.Flags().String("quality", "", "")
	cmd.Flags().StringP("output", "o", "", "")
	cmd.Flags().String("title", "", "")
	cmd.Flags().String("id", "", "")
	cmd.Flags().Bool("playlist", false, "")
}

func TestRunDownload_LooksUpMetadata(t *testing.T) {
	var mu sync.Mutex
	var started []StartDownloadRequest
	srv := newMockServer(t).
		Handler(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/v1/extract":
				respondJSON(t, w, map[string]any{
					"type": "video",
					"data": map[string]any{"id": "abc", "title": "A Talk", "duration": 61.5, "thumbnail": "http://img"},
				})
			case "/api/v1/downloads":
				var req StartDownloadRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				mu.Lock()
				started = append(started, req)
				mu.Unlock()
				w.WriteHeader(http.StatusCreated)
				respondJSON(t, w, StartDownloadResponse{DownloadID: 1, JobID: "j"})
			default:
				http.NotFound(w, r)
			}
		}).
		Build()
	defer srv.Close()
	defer withServerURL(srv.URL)()

	var buf bytes.Buffer
	cmd := newTestCmd(&buf, downloadFlags)
	require.NoError(t, cmd.Flags().Set("audio", "true"))
	require.NoError(t, runDownloadCmd(cmd, []string{"https://youtu.be/abc"}))

	require.Len(t, started, 1)
	req := started[0]
	assert.Equal(t, "https://youtu.be/abc", req.URL)
	assert.Equal(t, "abc", req.VideoID)
	assert.Equal(t, "A Talk", req.Title)
	assert.True(t, req.AudioOnly)
	require.NotNil(t, req.Duration)
	assert.Equal(t, int64(61), *req.Duration)
	require.NotNil(t, req.ThumbnailURL)
	assert.Equal(t, "http://img", *req.ThumbnailURL)
	assert.Contains(t, buf.String(), "Started download #1: A Talk")
}

func TestRunDownload_SkipsLookupWithTitleAndID(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/downloads").
		Handler(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusCreated)
			respondJSON(t, w, StartDownloadResponse{DownloadID: 2, JobID: "j"})
		}).
		Build()
	defer srv.Close()
	defer withServerURL(srv.URL)()

	var buf bytes.Buffer
	cmd := newTestCmd(&buf, downloadFlags)
	require.NoError(t, cmd.Flags().Set("title", "Known"))
	require.NoError(t, cmd.Flags().Set("id", "xyz"))
	require.NoError(t, runDownloadCmd(cmd, []string{"https://youtu.be/xyz"}))
	assert.Contains(t, buf.String(), "Started download #2: Known")
}

func TestBuildRequests(t *testing.T) {
	base := StartDownloadRequest{URL: "https://youtube.com/playlist?list=PL", Quality: "720p"}
	playlist := &ExtractResponse{Playlist: &PlaylistInfo{Entries: []VideoInfo{
		{ID: "a", Title: "One", URL: "https://youtube.com/watch?v=a"},
		{ID: "b", Title: "Two"}, // no link
		{ID: "c", Title: "Three", WebpageURL: "https://youtube.com/watch?v=c", Duration: 10},
	}}}

	t.Run("playlist needs expand", func(t *testing.T) {
		_, err := buildRequests(base, playlist, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--playlist")
	})

	t.Run("playlist expands", func(t *testing.T) {
		reqs, err := buildRequests(base, playlist, true)
		require.NoError(t, err)
		require.Len(t, reqs, 2)
		assert.Equal(t, "a", reqs[0].VideoID)
		assert.Equal(t, "https://youtube.com/watch?v=a", reqs[0].URL)
		assert.Equal(t, "720p", reqs[0].Quality)
		assert.Equal(t, "https://youtube.com/watch?v=c", reqs[1].URL)
		require.NotNil(t, reqs[1].Duration)
		assert.Equal(t, int64(10), *reqs[1].Duration)
	})

	t.Run("video keeps given title", func(t *testing.T) {
		b := base
		b.Title = "Mine"
		reqs, err := buildRequests(b, &ExtractResponse{Video: &VideoInfo{ID: "v", Title: "Theirs"}}, false)
		require.NoError(t, err)
		require.Len(t, reqs, 1)
		assert.Equal(t, "Mine", reqs[0].Title)
		assert.Equal(t, "v", reqs[0].VideoID)
		assert.Nil(t, reqs[0].Duration)
	})
}

func TestRunFormats(t *testing.T) {
	fps := 30.0
	srv := newMockServer(t).
		ExpectPath("/api/v1/formats").
		ExpectPOST().
		RespondJSON(FormatsResponse{Formats: []Format{
			{FormatID: "137", Height: 1080, Ext: "mp4", Filesize: 50 * 1024 * 1024, VCodec: "avc1", FPS: &fps},
		}}).
		Build()
	defer srv.Close()
	defer withServerURL(srv.URL)()

	var buf bytes.Buffer
	require.NoError(t, runFormatsCmd(newTestCmd(&buf, nil), []string{"https://youtu.be/abc"}))
	out := buf.String()
	assert.Contains(t, out, "137")
	assert.Contains(t, out, "1080p")
	assert.Contains(t, out, "50 MiB")
}

func TestRunStatus(t *testing.T) {
	srv := newMockServer(t).
		RespondJSON(StatusResponse{
			Status:     "degraded",
			ActiveJobs: []string{},
			Downloads:  map[string]int{"failed": 2},
		}).
		Build()
	defer srv.Close()
	defer withServerURL(srv.URL)()

	var buf bytes.Buffer
	require.NoError(t, runStatusCmd(newTestCmd(&buf, nil), nil))
	out := buf.String()
	assert.Contains(t, out, "(degraded)")
	assert.Contains(t, out, "yt-dlp: unavailable")
	assert.Contains(t, out, "Failed:")
	assert.Contains(t, out, "No running jobs")
}

func TestRunEvents(t *testing.T) {
	var received string
	srv := newMockServer(t).
		ExpectPath("/api/v1/events").
		Handler(func(w http.ResponseWriter, r *http.Request) {
			received = r.URL.RawQuery
			respondJSON(t, w, ListEventsResponse{
				Items: []EventResponse{{
					ID: 1, EventType: "download.failed", JobID: "job-1",
					Payload:    map[string]any{"message": "line one\nline two"},
					OccurredAt: time.Now().Add(-2 * time.Hour).Format(time.RFC3339),
				}},
				Total: 1,
			})
		}).
		Build()
	defer srv.Close()
	defer withServerURL(srv.URL)()

	var buf bytes.Buffer
	cmd := newTestCmd(&buf, func(c *cobra.Command) { c.Flags().IntP("limit", "n", 20, "") })
	require.NoError(t, cmd.Flags().Set("limit", "5"))
	require.NoError(t, runEventsCmd(cmd, nil))

	assert.Equal(t, "limit=5", received)
	out := buf.String()
	assert.Contains(t, out, "download.failed")
	assert.Contains(t, out, "2 hours ago")
	assert.Contains(t, out, "line one line two")
}

func initFlags(path string) func(*cobra.Command) {
	return func(cmd *cobra.Command) {
		cmd.Flags().String("path", path, "")
		cmd.Flags().Bool("force", false, "")
		cmd.Flags().BoolP("interactive", "i", false, "")
	}
}

func TestRunInit_WritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nzzel", "config.toml")

	var buf bytes.Buffer
	require.NoError(t, runInitCmd(newTestCmd(&buf, initFlags(path)), nil))
	assert.FileExists(t, path)

	// second run refuses to overwrite
	err := runInitCmd(newTestCmd(&buf, initFlags(path)), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")
}

func TestRunInit_Interactive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	var buf bytes.Buffer
	cmd := newTestCmd(&buf, initFlags(path))
	require.NoError(t, cmd.Flags().Set("interactive", "true"))
	cmd.SetIn(strings.NewReader("9090\n\n/opt/yt-dlp\n/srv/videos\n"))
	require.NoError(t, runInitCmd(cmd, nil))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/opt/yt-dlp", cfg.YtDlp.Path)
	assert.Equal(t, "/srv/videos", cfg.YtDlp.OutputDir)
	assert.Equal(t, config.Default().Database.Path, cfg.Database.Path)
}

func TestPromptConfig_InvalidPort(t *testing.T) {
	var buf bytes.Buffer
	_, err := promptConfig(bufio.NewReader(strings.NewReader("99999\n")), &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
}

func TestRunConfigTest(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.toml")
	require.NoError(t, config.WriteDefault(good, false))

	var buf bytes.Buffer
	require.NoError(t, runConfigTest(newTestCmd(&buf, nil), []string{good}))
	assert.Contains(t, buf.String(), "Configuration valid!")

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[server]\nport = 0\nlog_level = \"loud\"\n"), 0644))

	buf.Reset()
	err := runConfigTest(newTestCmd(&buf, nil), []string{bad})
	require.Error(t, err)
	assert.Contains(t, buf.String(), "Validation errors:")
}
