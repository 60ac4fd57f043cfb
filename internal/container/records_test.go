package container

import "testing"

func TestStreamValid(t *testing.T) {
	tests := []struct {
		name   string
		stream Stream
		want   bool
	}{
		{"audio", Stream{ID: 1, Type: StreamAudio}, true},
		{"subtitles", Stream{ID: 2, Type: StreamSubtitles}, true},
		{"video with dimensions", Stream{ID: 0, Type: StreamVideo, PixelWidth: 1920, PixelHeight: 1080, DisplayWidth: 1920, DisplayHeight: 1080}, true},
		{"video missing display dimensions", Stream{ID: 0, Type: StreamVideo, PixelWidth: 1920, PixelHeight: 1080}, false},
		{"video zero pixels", Stream{ID: 0, Type: StreamVideo, DisplayWidth: 1920, DisplayHeight: 1080}, false},
		{"negative id", Stream{ID: -1, Type: StreamAudio}, false},
		{"unknown type", Stream{ID: 3, Type: "buttons"}, false},
		{"empty type", Stream{ID: 3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stream.Valid(); got != tt.want {
				t.Errorf("Valid() = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestAttachmentValid(t *testing.T) {
	tests := []struct {
		name       string
		attachment Attachment
		want       bool
	}{
		{"jpeg", Attachment{Type: "image/jpeg", FileName: "cover.jpg"}, true},
		{"png mixed case", Attachment{Type: "IMAGE/PNG", FileName: "cover.png"}, true},
		{"ttf", Attachment{Type: "font/ttf", FileName: "font.ttf"}, true},
		{"legacy truetype", Attachment{Type: "application/x-truetype-font", FileName: "font.ttf"}, true},
		{"octet-stream ttf", Attachment{Type: "application/octet-stream", FileName: "font.TTF"}, true},
		{"octet-stream collection", Attachment{Type: "application/octet-stream", FileName: "fonts.ttc"}, true},
		{"octet-stream other", Attachment{Type: "application/octet-stream", FileName: "data.bin"}, false},
		{"no filename", Attachment{Type: "image/jpeg"}, false},
		{"unknown type", Attachment{Type: "text/plain", FileName: "readme.txt"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.attachment.Valid(); got != tt.want {
				t.Errorf("Valid() = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestChapterDuration(t *testing.T) {
	c := Chapter{StartTime: 90.5, EndTime: 120}
	if got := c.Duration(); got != 29.5 {
		t.Errorf("Duration() = %v, want 29.5", got)
	}
}

func TestHasChapterGap(t *testing.T) {
	tests := []struct {
		name     string
		chapters []Chapter
		want     bool
	}{
		{
			"contiguous",
			[]Chapter{{StartTime: 0, EndTime: 10}, {StartTime: 10, EndTime: 20}},
			false,
		},
		{
			"gap",
			[]Chapter{{StartTime: 0, EndTime: 10}, {StartTime: 15, EndTime: 20}},
			true,
		},
		{
			"unsorted contiguous",
			[]Chapter{{StartTime: 10, EndTime: 20}, {StartTime: 0, EndTime: 10}},
			false,
		},
		{"empty", nil, false},
		{"single", []Chapter{{StartTime: 0, EndTime: 10}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Container{Chapters: tt.chapters}
			if got := c.HasChapterGap(); got != tt.want {
				t.Errorf("HasChapterGap() = %t, want %t", got, tt.want)
			}
		})
	}
}
