// Package ripping orchestrates the per-device pipeline: disc query, title
// discovery, extraction, rename, remux, and eject.
package ripping

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"discripper/internal/services"
)

// MediaType classifies the disc content; it drives duration defaults and
// output layout.
type MediaType string

const (
	MediaGeneric MediaType = "video"
	MediaMovie   MediaType = "movie"
	MediaShow    MediaType = "show"
)

// RemuxProfile selects the post-extraction language filtering applied to
// each ripped title.
type RemuxProfile string

const (
	RemuxNone         RemuxProfile = "none"
	RemuxEnglishOnly  RemuxProfile = "english-only"
	RemuxJapaneseOnly RemuxProfile = "japanese-only"
	RemuxAnimeSubs    RemuxProfile = "anime-subs"
	RemuxAnimeDubs    RemuxProfile = "anime-dubs"
)

// SeasonUnset marks a job with no season directory. Season 0 is valid and
// conventionally holds specials.
const SeasonUnset = -1

// minYear is the air year of the oldest surviving film, the Roundhay Garden
// Scene.
const minYear = 1888

// jobCounter hands out process-wide job ids.
var jobCounter atomic.Int64

// Job describes one device's rip: what to extract, where to put it, and how
// to post-process it.
type Job struct {
	ID     int
	RunID  string
	Device string

	Title     string
	MediaType MediaType
	Season    int
	Year      int

	RootDir         string
	MinimumDuration int
	MaximumDuration int
	Eject           bool
	Profile         RemuxProfile
}

// NewJob validates the parameters and assigns run identity. Validation
// failures are configuration errors reported before any device I/O.
func NewJob(device, rootDir, title string, mediaType MediaType, opts JobOptions) (Job, error) {
	job := Job{
		ID:              int(jobCounter.Add(1)),
		RunID:           uuid.NewString(),
		Device:          device,
		Title:           strings.TrimSpace(title),
		MediaType:       mediaType,
		Season:          opts.Season,
		Year:            opts.Year,
		RootDir:         rootDir,
		MinimumDuration: opts.MinimumDuration,
		MaximumDuration: opts.MaximumDuration,
		Eject:           opts.Eject,
		Profile:         opts.Profile,
	}
	if job.Profile == "" {
		job.Profile = RemuxNone
	}
	if err := job.validate(); err != nil {
		return Job{}, err
	}
	return job, nil
}

// JobOptions carries the optional job parameters.
type JobOptions struct {
	Season          int
	Year            int
	MinimumDuration int
	MaximumDuration int
	Eject           bool
	Profile         RemuxProfile
}

func (j Job) validate() error {
	if j.Title == "" {
		return services.Wrap(services.ErrConfiguration, "ripping", "new job",
			"media title has not been set", nil)
	}
	if info, err := os.Stat(j.RootDir); err != nil || !info.IsDir() {
		return services.Wrap(services.ErrConfiguration, "ripping", "new job",
			fmt.Sprintf("root directory %s was not found", j.RootDir), nil)
	}
	if j.Season < SeasonUnset {
		return services.Wrap(services.ErrConfiguration, "ripping", "new job",
			"season is less than zero", nil)
	}
	switch j.MediaType {
	case MediaGeneric, MediaMovie, MediaShow:
	default:
		return services.Wrap(services.ErrConfiguration, "ripping", "new job",
			fmt.Sprintf("media type %q was not recognized", j.MediaType), nil)
	}
	switch j.Profile {
	case RemuxNone, RemuxEnglishOnly, RemuxJapaneseOnly, RemuxAnimeSubs, RemuxAnimeDubs:
	default:
		return services.Wrap(services.ErrConfiguration, "ripping", "new job",
			fmt.Sprintf("remux profile %q was not recognized", j.Profile), nil)
	}
	if j.MinimumDuration >= j.MaximumDuration {
		return services.Wrap(services.ErrConfiguration, "ripping", "new job",
			"maximum duration must be greater than minimum", nil)
	}
	if j.Year != 0 {
		maxYear := time.Now().Year()
		if j.Year < minYear || j.Year > maxYear {
			return services.Wrap(services.ErrConfiguration, "ripping", "new job",
				fmt.Sprintf("year %d is not within %d-%d", j.Year, minYear, maxYear), nil)
		}
	}
	return nil
}

// MediaName is the operator-facing name: the title, with the air year
// appended when known.
func (j Job) MediaName() string {
	if j.Year != 0 {
		return fmt.Sprintf("%s (%d)", j.Title, j.Year)
	}
	return j.Title
}

// MediaDir is the directory named after the media under the root.
func (j Job) MediaDir() string {
	return filepath.Join(j.RootDir, j.MediaName())
}

// WorkDir is the per-device subdirectory the engine first writes into,
// named after the device so concurrent devices never collide.
func (j Job) WorkDir() string {
	return filepath.Join(j.MediaDir(), filepath.Base(j.Device))
}

// SeasonDir is the zero-padded season subdirectory for show jobs.
func (j Job) SeasonDir() string {
	return filepath.Join(j.MediaDir(), fmt.Sprintf("Season %02d", j.Season))
}

// OutputName builds the predictable per-title file name. The I component is
// the job id, S the season (shows only), T the engine title index.
func (j Job) OutputName(titleNumber int, ext string) string {
	if j.MediaType == MediaShow && j.Season >= 0 {
		return fmt.Sprintf("%s I%02dS%02dT%02d%s", j.MediaName(), j.ID, j.Season, titleNumber, ext)
	}
	return fmt.Sprintf("%s I%02dT%02d%s", j.MediaName(), j.ID, titleNumber, ext)
}
