package ytdlp

import (
	"cmp"
	"slices"
)

// UsefulFormat is a video format reduced to what a quality picker shows.
type UsefulFormat struct {
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

// UsefulFormats keeps video formats with a known height and size, one per
// height, sorted tallest first. Within a height the larger file wins, or
// the higher total bitrate.
func UsefulFormats(formats []VideoFormat) []UsefulFormat {
	candidates := make([]VideoFormat, 0, len(formats))
	for _, f := range formats {
		if f.VCodec == "none" || f.Height == nil || *f.Height == 0 || size(f) == 0 {
			continue
		}
		candidates = append(candidates, f)
	}
	slices.SortStableFunc(candidates, func(a, b VideoFormat) int {
		return cmp.Compare(*b.Height, *a.Height)
	})

	var out []UsefulFormat
	index := make(map[int]int)
	for _, f := range candidates {
		i, ok := index[*f.Height]
		if !ok {
			index[*f.Height] = len(out)
			out = append(out, toUseful(f))
			continue
		}
		existing := out[i]
		if size(f) > existing.Filesize || bitrate(f.TBR) > bitrate(existing.TBR) {
			out[i] = toUseful(f)
		}
	}
	return out
}

func toUseful(f VideoFormat) UsefulFormat {
	return UsefulFormat{
		FormatID:   f.FormatID,
		Height:     *f.Height,
		Ext:        f.Ext,
		Filesize:   size(f),
		TBR:        f.TBR,
		VCodec:     f.VCodec,
		ACodec:     f.ACodec,
		FormatNote: f.FormatNote,
		FPS:        f.FPS,
	}
}

func size(f VideoFormat) int64 {
	if f.Filesize != nil && *f.Filesize > 0 {
		return *f.Filesize
	}
	if f.FilesizeApprox != nil {
		return *f.FilesizeApprox
	}
	return 0
}

func bitrate(tbr *float64) float64 {
	if tbr == nil {
		return 0
	}
	return *tbr
}
