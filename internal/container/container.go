package container

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"discripper/internal/logging"
)

// Tools holds the mkvtoolnix binary paths.
type Tools struct {
	Mkvmerge    string
	Mkvextract  string
	Mkvpropedit string
}

// Runner abstracts mkvtoolnix command execution for testability. Run
// discards output; Output captures stdout. Both return the process exit
// code; a nonzero exit is a result, not an error.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (int, error)
	Output(ctx context.Context, name string, args ...string) ([]byte, int, error)
}

// Option configures a Container.
type Option func(*Container)

// WithRunner injects a custom runner (primarily for tests).
func WithRunner(r Runner) Option {
	return func(c *Container) {
		if r != nil {
			c.runner = r
		}
	}
}

// Container is one Matroska file and its probed metadata. Open probes the
// file once; mutating operations reprobe on completion so the instance
// always reflects the file on disk.
type Container struct {
	path   string
	tools  Tools
	logger *slog.Logger
	runner Runner

	LastRunCode int
	Size        int64
	Title       string
	Duration    float64
	HasDuration bool
	Streams     []Stream
	Chapters    []Chapter
	Attachments []Attachment
}

// Open probes path with mkvmerge and mkvextract and returns the populated
// container.
func Open(ctx context.Context, path string, tools Tools, logger *slog.Logger, opts ...Option) (*Container, error) {
	c := &Container{
		path:        path,
		tools:       tools,
		logger:      logging.NewComponentLogger(logger, "container"),
		runner:      commandRunner{logger: logger},
		LastRunCode: -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Path returns the file path the container was opened on.
func (c *Container) Path() string { return c.path }

// Reload reprobes the file and replaces all metadata.
func (c *Container) Reload(ctx context.Context) error {
	c.logger.Debug("reloading container", logging.String("path", c.path))

	if info, err := os.Stat(c.path); err == nil {
		c.Size = info.Size()
	}
	c.Title = ""
	c.Duration = 0
	c.HasDuration = false
	c.Streams = nil
	c.Chapters = nil
	c.Attachments = nil

	doc, err := c.identify(ctx)
	if err != nil {
		return err
	}
	c.applyContainerProps(doc)
	c.applyTracks(doc)
	c.applyAttachments(doc)
	return c.loadChapters(ctx)
}

// Valid reports whether the file carries the minimum metadata expected of a
// finished rip: at least one usable stream and no gaps between chapters.
func (c *Container) Valid() bool {
	return c.path != "" && len(c.Streams) > 0 && !c.HasChapterGap()
}

// HasChapterGap reports whether any two consecutive chapters leave time
// between them. A gap means the chapter timeline does not cover the file.
func (c *Container) HasChapterGap() bool {
	chapters := append([]Chapter(nil), c.Chapters...)
	sort.Slice(chapters, func(i, j int) bool {
		return chapters[i].StartTime < chapters[j].StartTime
	})
	for i := 1; i < len(chapters); i++ {
		if chapters[i].StartTime-chapters[i-1].EndTime > 0 {
			return true
		}
	}
	return false
}

func (c *Container) String() string {
	return fmt.Sprintf("%s (valid=%t) duration=%vs chapters=%d streams=%d attachments=%d",
		c.path, c.Valid(), c.Duration, len(c.Chapters), len(c.Streams), len(c.Attachments))
}

// identifyDoc mirrors the subset of mkvmerge -J output this package reads.
// mkvmerge reports tag values as strings even when numeric.
type identifyDoc struct {
	Container struct {
		Properties struct {
			Title          string   `json:"title"`
			Duration       *float64 `json:"duration"`
			TimestampScale *float64 `json:"timestamp_scale"`
		} `json:"properties"`
	} `json:"container"`
	Tracks []struct {
		ID         int    `json:"id"`
		Type       string `json:"type"`
		Properties struct {
			UID               int64  `json:"uid"`
			TrackName         string `json:"track_name"`
			Language          string `json:"language"`
			CodecID           string `json:"codec_id"`
			DefaultTrack      bool   `json:"default_track"`
			TagBPS            string `json:"tag_bps"`
			TagNumberOfFrames string `json:"tag_number_of_frames"`
			PixelDimensions   string `json:"pixel_dimensions"`
			DisplayDimensions string `json:"display_dimensions"`
		} `json:"properties"`
	} `json:"tracks"`
	Attachments []struct {
		ID          int    `json:"id"`
		ContentType string `json:"content_type"`
		FileName    string `json:"file_name"`
		Description string `json:"description"`
	} `json:"attachments"`
}

func (c *Container) identify(ctx context.Context) (*identifyDoc, error) {
	output, code, err := c.runner.Output(ctx, c.tools.Mkvmerge, "-J", c.path)
	if err != nil {
		return nil, fmt.Errorf("identify %s: %w", c.path, err)
	}
	c.LastRunCode = code
	if len(bytes.TrimSpace(output)) == 0 {
		return nil, fmt.Errorf("identify %s: mkvmerge produced no output", c.path)
	}
	doc := new(identifyDoc)
	if err := json.Unmarshal(output, doc); err != nil {
		c.logger.Error("undecodable mkvmerge output", logging.String("path", c.path), logging.Error(err))
		return new(identifyDoc), nil
	}
	return doc, nil
}

func (c *Container) applyContainerProps(doc *identifyDoc) {
	props := doc.Container.Properties
	c.Title = props.Title
	if props.Duration != nil && props.TimestampScale != nil && *props.TimestampScale != 0 {
		c.Duration = *props.Duration / *props.TimestampScale / 1000
		c.HasDuration = true
	}
}

func (c *Container) applyTracks(doc *identifyDoc) {
	for _, track := range doc.Tracks {
		props := track.Properties
		pixelWidth, pixelHeight := parseDimensions(props.PixelDimensions)
		displayWidth, displayHeight := parseDimensions(props.DisplayDimensions)
		stream := Stream{
			ID:            track.ID,
			UID:           props.UID,
			Type:          track.Type,
			Title:         props.TrackName,
			Language:      props.Language,
			BPS:           parseTagInt(props.TagBPS),
			Default:       props.DefaultTrack,
			Frames:        parseTagInt(props.TagNumberOfFrames),
			Codec:         props.CodecID,
			PixelWidth:    pixelWidth,
			PixelHeight:   pixelHeight,
			DisplayWidth:  displayWidth,
			DisplayHeight: displayHeight,
		}
		if stream.Valid() {
			c.Streams = append(c.Streams, stream)
		}
	}
}

func (c *Container) applyAttachments(doc *identifyDoc) {
	for _, raw := range doc.Attachments {
		attachment := Attachment{
			ID:          raw.ID,
			Type:        raw.ContentType,
			FileName:    raw.FileName,
			Description: raw.Description,
		}
		if attachment.Valid() {
			c.Attachments = append(c.Attachments, attachment)
		}
	}
}

func parseDimensions(raw string) (int, int) {
	w, h, found := strings.Cut(raw, "x")
	if !found {
		return 0, 0
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return 0, 0
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return 0, 0
	}
	return width, height
}

func parseTagInt(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

type commandRunner struct {
	logger *slog.Logger
}

func (r commandRunner) Run(ctx context.Context, dir, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Dir = dir
	err := cmd.Run()
	return exitCode(err)
}

func (r commandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if r.logger != nil {
		for _, line := range strings.Split(stderr.String(), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				r.logger.Error(line)
			}
		}
	}
	code, err := exitCode(err)
	return output, code, err
}

func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
