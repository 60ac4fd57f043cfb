// Package container inspects and rewrites Matroska files through the
// mkvtoolnix suite (mkvmerge, mkvextract, mkvpropedit).
//
// References:
//   - https://www.matroska.org/technical/basics.html
//   - https://www.matroska.org/technical/attachments.html
package container

import (
	"path/filepath"
	"strings"
)

// Stream types defined by the Matroska spec. Other defined types (complex,
// logo, buttons, control, metadata) never appear in disc rips and are
// treated as invalid.
const (
	StreamVideo     = "video"
	StreamAudio     = "audio"
	StreamSubtitles = "subtitles"
)

// LangUnd is the ISO-639-2 code for an undetermined language.
const LangUnd = "und"

// Stream is one track of a Matroska file as reported by mkvmerge -J.
type Stream struct {
	ID            int
	UID           int64
	Type          string
	Title         string
	Language      string
	BPS           int
	Default       bool
	Frames        int
	Codec         string
	PixelWidth    int
	PixelHeight   int
	DisplayWidth  int
	DisplayHeight int
}

// Valid reports whether the stream carries the minimum usable metadata:
// a non-negative id, a known type, and for video streams positive pixel
// and display dimensions.
func (s Stream) Valid() bool {
	if s.ID < 0 {
		return false
	}
	switch s.Type {
	case StreamVideo:
		return s.PixelWidth > 0 && s.PixelHeight > 0 &&
			s.DisplayWidth > 0 && s.DisplayHeight > 0
	case StreamAudio, StreamSubtitles:
		return true
	default:
		return false
	}
}

// Chapter is one chapter atom. Index counts from 1 in start-time order.
type Chapter struct {
	Index     int
	UID       int64
	Title     string
	StartTime float64
	EndTime   float64
}

// Duration returns the chapter length in seconds.
func (c Chapter) Duration() float64 { return c.EndTime - c.StartTime }

// Attachment MIME types accepted as images or fonts. The legacy
// application/* entries are pre-registration aliases still common in the
// wild; each maps to one of the font/* types.
var (
	imageTypes = map[string]struct{}{
		"image/jpeg": {},
		"image/png":  {},
	}
	fontTypes = map[string]struct{}{
		"font/ttf":                    {},
		"font/otf":                    {},
		"font/sfnt":                   {},
		"font/woff":                   {},
		"font/woff2":                  {},
		"font/collection":             {},
		"application/x-truetype-font": {},
		"application/x-font-ttf":      {},
		"application/vnd.ms-opentype": {},
		"application/font-sfnt":       {},
		"application/font-woff":       {},
	}
)

// octetStream attachments are probably fonts but must be judged by the
// attached file's extension (.ttc is a font collection).
const octetStream = "application/octet-stream"

// Attachment is one attached file as reported by mkvmerge -J.
type Attachment struct {
	ID          int
	Type        string
	FileName    string
	Description string
}

// Valid reports whether the attachment is a recognized image or font.
func (a Attachment) Valid() bool {
	if a.FileName == "" {
		return false
	}
	mime := strings.ToLower(a.Type)
	if _, ok := imageTypes[mime]; ok {
		return true
	}
	if _, ok := fontTypes[mime]; ok {
		return true
	}
	if mime == octetStream {
		switch strings.ToLower(filepath.Ext(a.FileName)) {
		case ".ttf", ".otf", ".ttc":
			return true
		}
	}
	return false
}
