package container

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"discripper/internal/logging"
)

// chapterDoc mirrors the Matroska chapter XML written by mkvextract.
// Chapter atoms may nest, so atoms are walked recursively.
type chapterDoc struct {
	Editions []chapterEdition `xml:"EditionEntry"`
}

type chapterEdition struct {
	Atoms []chapterAtom `xml:"ChapterAtom"`
}

type chapterAtom struct {
	UID       int64            `xml:"ChapterUID"`
	TimeStart string           `xml:"ChapterTimeStart"`
	TimeEnd   string           `xml:"ChapterTimeEnd"`
	Displays  []chapterDisplay `xml:"ChapterDisplay"`
	Atoms     []chapterAtom    `xml:"ChapterAtom"`
}

type chapterDisplay struct {
	Title string `xml:"ChapterString"`
}

// loadChapters extracts the chapter timeline with mkvextract into a
// transient XML file next to the source and decodes it. Extraction failures
// are logged and leave the chapter list empty; the transient file is always
// removed.
func (c *Container) loadChapters(ctx context.Context) error {
	chaptersPath := c.path + ".chapters.xml"
	defer os.Remove(chaptersPath)

	code, err := c.runner.Run(ctx, "", c.tools.Mkvextract, c.path, "chapters", chaptersPath)
	if err != nil {
		return fmt.Errorf("extract chapters of %s: %w", c.path, err)
	}
	c.LastRunCode = code
	if code != 0 {
		c.logger.Error("chapter extraction failed",
			logging.String("path", c.path), logging.Int("exit_code", code))
		return nil
	}

	data, err := os.ReadFile(chaptersPath)
	if err != nil {
		c.logger.Error("chapter file unreadable",
			logging.String("path", c.path), logging.Error(err))
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	var doc chapterDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		c.logger.Error("undecodable chapter XML",
			logging.String("path", c.path), logging.Error(err))
		return nil
	}

	var chapters []Chapter
	for _, edition := range doc.Editions {
		for _, atom := range edition.Atoms {
			chapters = collectChapters(chapters, atom)
		}
	}
	sort.Slice(chapters, func(i, j int) bool {
		return chapters[i].StartTime < chapters[j].StartTime
	})
	for i := range chapters {
		chapters[i].Index = i + 1
	}
	c.Chapters = chapters
	return nil
}

func collectChapters(chapters []Chapter, atom chapterAtom) []Chapter {
	start, startErr := timecodeSeconds(atom.TimeStart)
	end, endErr := timecodeSeconds(atom.TimeEnd)
	if startErr == nil && endErr == nil {
		chapter := Chapter{UID: atom.UID, StartTime: start, EndTime: end}
		if len(atom.Displays) > 0 {
			chapter.Title = strings.TrimSpace(atom.Displays[0].Title)
		}
		chapters = append(chapters, chapter)
	}
	for _, nested := range atom.Atoms {
		chapters = collectChapters(chapters, nested)
	}
	return chapters
}

// timecodeSeconds converts an H:MM:SS.fraction timecode to seconds.
func timecodeSeconds(text string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("timecode %q is not H:MM:SS", text)
	}
	hours, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, fmt.Errorf("timecode hours: %w", err)
	}
	minutes, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, fmt.Errorf("timecode minutes: %w", err)
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("timecode seconds: %w", err)
	}
	return hours*3600 + minutes*60 + seconds, nil
}
