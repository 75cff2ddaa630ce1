package ytdlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestUsefulFormats(t *testing.T) {
	formats := []VideoFormat{
		{FormatID: "audio", VCodec: "none", ACodec: "opus", Filesize: ptr(int64(10))},
		{FormatID: "nosize", VCodec: "vp9", Height: ptr(2160)},
		{FormatID: "720a", VCodec: "avc1", Height: ptr(720), Filesize: ptr(int64(500)), TBR: ptr(1000.0)},
		{FormatID: "1080a", VCodec: "avc1", Height: ptr(1080), FilesizeApprox: ptr(int64(900))},
		{FormatID: "720b", VCodec: "vp9", Height: ptr(720), Filesize: ptr(int64(800))},
		{FormatID: "1080b", VCodec: "vp9", Height: ptr(1080), Filesize: ptr(int64(700)), TBR: ptr(5000.0)},
		{FormatID: "360", VCodec: "avc1", Height: ptr(360), Filesize: ptr(int64(100))},
	}

	got := UsefulFormats(formats)
	require.Len(t, got, 3)

	assert.Equal(t, 1080, got[0].Height)
	assert.Equal(t, "1080b", got[0].FormatID, "higher bitrate replaces bigger approx size")
	assert.Equal(t, 720, got[1].Height)
	assert.Equal(t, "720b", got[1].FormatID)
	assert.Equal(t, int64(800), got[1].Filesize)
	assert.Equal(t, 360, got[2].Height)
}

func TestUsefulFormats_Empty(t *testing.T) {
	assert.Empty(t, UsefulFormats(nil))
}
