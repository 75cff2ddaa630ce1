package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine_StandardProgress(t *testing.T) {
	r := ParseLine("[download]  45.2% of 120.5MiB at 2.1MiB/s ETA 00:34", "")

	require.NotNil(t, r.Event)
	assert.InDelta(t, 45.2, r.Event.Percentage, 0.0001)
	assert.InDelta(t, 2.1*1024*1024, r.Event.Rate, 0.1)
	assert.Equal(t, 34, r.Event.ETA)
	assert.Empty(t, r.Filename)
}

func TestParseLine_Patterns(t *testing.T) {
	tests := []struct {
		name string
		line string
		pct  float64
		rate float64
		eta  int
	}{
		{
			name: "approximate size",
			line: "[download]  12.0% of ~ 50.00MiB at 1.00MiB/s ETA 01:05",
			pct:  12.0, rate: 1 << 20, eta: 65,
		},
		{
			name: "prefixed",
			line: "download:[download]  80.5% of 10.0MiB at 512.0KiB/s ETA 00:02",
			pct:  80.5, rate: 512 * 1024, eta: 2,
		},
		{
			name: "at without eta",
			line: "[download] 100% of 3.2MiB at 4.0MiB/s",
			pct:  100, rate: 4 << 20, eta: 0,
		},
		{
			name: "tilde rate",
			line: "33.3% done ~ 2.0MB/s ETA 1:00:00",
			pct:  33.3, rate: 2e6, eta: 3600,
		},
		{
			name: "bare rate",
			line: "7.5% 800kB/s",
			pct:  7.5, rate: 800e3, eta: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ParseLine(tt.line, "")
			require.NotNil(t, r.Event)
			assert.InDelta(t, tt.pct, r.Event.Percentage, 0.0001)
			assert.InDelta(t, tt.rate, r.Event.Rate, 0.1)
			assert.Equal(t, tt.eta, r.Event.ETA)
		})
	}
}

func TestParseLine_Filenames(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{`[Merger] Merging formats into "/dl/Title.mkv"`, "/dl/Title.mkv"},
		{"[download] Destination: /dl/Title.f137.mp4", "/dl/Title.f137.mp4"},
		{"[ExtractAudio] Destination: /dl/Title.mp3", "/dl/Title.mp3"},
		{"[download] /dl/Title.mkv has already been downloaded", "/dl/Title.mkv"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			r := ParseLine(tt.line, "old")
			assert.Nil(t, r.Event)
			assert.Equal(t, tt.want, r.Filename)
		})
	}
}

func TestParseLine_StickyFilename(t *testing.T) {
	r := ParseLine("[download]  10.0% of 1.00MiB at 1.00MiB/s ETA 00:01", "/dl/a.mp4")

	require.NotNil(t, r.Event)
	assert.Equal(t, "/dl/a.mp4", r.Event.Filename)
}

func TestParseLine_Ignored(t *testing.T) {
	for _, line := range []string{
		"",
		"   ",
		"[youtube] abc: Downloading webpage",
		"[info] abc: Downloading 1 format(s): 137+140",
		"100% sure this is not progress",
	} {
		assert.True(t, ParseLine(line, "").Empty(), "line %q", line)
	}
}

func TestParseLine_Clamped(t *testing.T) {
	r := ParseLine("[download] 150.0% of 1.00MiB at 1.00MiB/s ETA 00:00", "")

	require.NotNil(t, r.Event)
	assert.Equal(t, 100.0, r.Event.Percentage)
}

func TestParseLine_Deterministic(t *testing.T) {
	line := "[download]  45.2% of 120.5MiB at 2.1MiB/s ETA 00:34"
	assert.Equal(t, ParseLine(line, "x"), ParseLine(line, "x"))
}
