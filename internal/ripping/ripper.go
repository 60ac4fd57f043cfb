package ripping

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"discripper/internal/config"
	"discripper/internal/container"
	"discripper/internal/drive"
	"discripper/internal/fileutil"
	"discripper/internal/journal"
	"discripper/internal/language"
	"discripper/internal/logging"
	"discripper/internal/makemkv"
	"discripper/internal/services"
)

// Tray is the slice of drive behaviour the orchestrator needs. *drive.Drive
// satisfies it.
type Tray interface {
	Query() error
	DiscStatus() drive.DiscStatus
	QueryDriveStatus() (drive.DriveStatus, error)
	Eject() error
	Unlock() error
	Path() string
	ResolvedPath() string
}

// Engine is the slice of the ripping engine the orchestrator needs.
// *makemkv.Client satisfies it.
type Engine interface {
	Info(ctx context.Context, device string, minLength int, onLine func(string)) (int, error)
	Mkv(ctx context.Context, device string, title int, destDir string, minLength int, onLine func(string)) (int, error)
}

// Option configures a Ripper.
type Option func(*Ripper)

// WithTray injects a drive handle (primarily for tests).
func WithTray(t Tray) Option {
	return func(r *Ripper) {
		if t != nil {
			r.drive = t
		}
	}
}

// WithEngine injects a ripping engine (primarily for tests).
func WithEngine(e Engine) Option {
	return func(r *Ripper) {
		if e != nil {
			r.engine = e
		}
	}
}

// WithRemux overrides the per-title post-processing step (primarily for
// tests).
func WithRemux(remux func(ctx context.Context, path string) error) Option {
	return func(r *Ripper) {
		if remux != nil {
			r.remux = remux
		}
	}
}

// WithJournal records the run in the given journal.
func WithJournal(j *journal.Journal) Option {
	return func(r *Ripper) { r.journal = j }
}

// Ripper runs one device's pipeline. One Ripper owns its device and session
// exclusively; instances are not shared across goroutines.
type Ripper struct {
	job    Job
	cfg    *config.Config
	logger *slog.Logger

	drive   Tray
	engine  Engine
	remux   func(ctx context.Context, path string) error
	journal *journal.Journal

	ejectPoll time.Duration

	lastRunCode  int
	titleCount   int
	titlesRipped int
	errorCount   int
}

// New builds the orchestrator for one job.
func New(job Job, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Ripper, error) {
	r := &Ripper{
		job: job,
		cfg: cfg,
		logger: logging.NewComponentLogger(logger, "ripper").With(
			logging.String("device", job.Device),
			logging.Int("job_id", job.ID),
			logging.String("run_id", job.RunID),
		),
		ejectPoll:   time.Second,
		lastRunCode: -1,
		titleCount:  -1,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.drive == nil {
		d, err := drive.New(job.Device)
		if err != nil {
			return nil, services.Wrap(services.ErrDevice, "ripping", "open device", job.Device, err)
		}
		r.drive = d
	}
	if r.engine == nil {
		client, err := makemkv.New(cfg.MakeMKV.Binary)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "ripping", "makemkv client", "", err)
		}
		r.engine = client
	}
	if r.remux == nil {
		r.remux = r.remuxProfile
	}
	return r, nil
}

// LastRunCode returns the exit code of the last external command, or -1
// when none has run.
func (r *Ripper) LastRunCode() int { return r.lastRunCode }

// TitleCount returns how many titles survived filtering, or -1 before the
// info pass.
func (r *Ripper) TitleCount() int { return r.titleCount }

// Rip runs the pipeline: query the disc, discover and filter titles,
// extract, rename, remux, then unlock and eject. Only a disc reporting data
// mode 1 is extracted; any other status completes without extraction. The
// tray is unlocked no matter how the rip ends.
func (r *Ripper) Rip(ctx context.Context) (err error) {
	lock := flock.New(filepath.Join(r.cfg.Paths.LockDir, filepath.Base(r.job.Device)+".lock"))
	locked, lockErr := lock.TryLock()
	if lockErr != nil {
		return services.Wrap(services.ErrConflict, "ripping", "device lock", r.job.Device, lockErr)
	}
	if !locked {
		return services.Wrap(services.ErrConflict, "ripping", "device lock",
			fmt.Sprintf("%s is already being ripped", r.job.Device), nil)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			r.logger.Warn("failed to release device lock", logging.Error(unlockErr))
		}
	}()

	if r.journal != nil {
		record := journal.Run{
			RunID:     r.job.RunID,
			JobID:     r.job.ID,
			Device:    r.job.Device,
			Title:     r.job.Title,
			MediaType: string(r.job.MediaType),
		}
		if journalErr := r.journal.StartRun(ctx, record); journalErr != nil {
			r.logger.Warn("failed to journal run start", logging.Error(journalErr))
		}
		defer func() {
			record.ExitCode = r.lastRunCode
			record.ErrorCount = r.errorCount
			record.TitlesRipped = r.titlesRipped
			record.Status = "completed"
			if err != nil {
				record.Status = "failed"
				record.Detail = err.Error()
			}
			if journalErr := r.journal.FinishRun(ctx, record); journalErr != nil {
				r.logger.Warn("failed to journal run finish", logging.Error(journalErr))
			}
		}()
	}

	start := time.Now()
	defer func() {
		r.logger.Debug("rip finished",
			logging.Duration("elapsed", time.Since(start)),
			logging.Int("exit_code", r.lastRunCode))
	}()

	// The tray stays locked by the kernel while the engine holds the
	// device; unlock regardless of how extraction went.
	defer func() {
		if unlockErr := r.drive.Unlock(); unlockErr != nil {
			r.logger.Warn("failed to unlock tray", logging.Error(unlockErr))
		}
	}()

	if queryErr := r.drive.Query(); queryErr != nil {
		return services.Wrap(services.ErrDevice, "ripping", "query disc", r.job.Device, queryErr)
	}

	if status := r.drive.DiscStatus(); status != drive.DiscData1 {
		r.logger.Info("disc is not extractable data", logging.String("disc_status", status.String()))
		return nil
	}

	if extractErr := r.extract(ctx); extractErr != nil {
		return extractErr
	}

	if r.lastRunCode == 0 && r.job.Eject {
		if !r.ejectLoop(ctx) {
			r.logger.Warn("tray did not open before the eject timeout")
		}
	}
	return nil
}

func (r *Ripper) extract(ctx context.Context) error {
	session := makemkv.NewSession()

	infoCtx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.MakeMKV.InfoTimeout)*time.Second)
	defer cancel()

	code, err := r.engine.Info(infoCtx, r.drive.ResolvedPath(), r.job.MinimumDuration, r.sessionFeeder(session))
	r.lastRunCode = code
	r.errorCount = session.ErrorCount
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "ripping", "makemkv info", r.job.Device, err)
	}
	if code != 0 {
		return services.Wrap(services.ErrExternalTool, "ripping", "makemkv info",
			fmt.Sprintf("%s exited with code %d", r.cfg.MakeMKV.Binary, code), nil)
	}

	if len(session.Titles) == 0 {
		r.logger.Info("no titles were collected for ripping")
		return nil
	}

	if err := os.MkdirAll(r.job.MediaDir(), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "ripping", "create media directory", r.job.MediaDir(), err)
	}
	if err := os.MkdirAll(r.job.WorkDir(), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "ripping", "create work directory", r.job.WorkDir(), err)
	}

	featureOnly := r.job.MediaType == MediaMovie && r.cfg.Rip.FeatureOnly
	kept := SelectTitles(session, r.job.MinimumDuration, r.job.MaximumDuration, featureOnly, r.cfg.Rip.MovieMinimum)
	r.titleCount = len(kept)
	r.logger.Info("titles selected for extraction",
		logging.Int("selected", len(kept)), logging.Int("discovered", len(session.Titles)))

	for _, number := range kept {
		if err := r.extractTitle(ctx, session, number); err != nil {
			r.logger.Error("title extraction failed",
				logging.Int("title", number), logging.Error(err))
			continue
		}
		r.titlesRipped++
	}

	// Renaming may leave the work directory empty.
	if entries, err := os.ReadDir(r.job.WorkDir()); err == nil && len(entries) == 0 {
		if err := os.Remove(r.job.WorkDir()); err != nil {
			r.logger.Warn("failed to remove empty work directory", logging.Error(err))
		}
	}
	return nil
}

func (r *Ripper) extractTitle(ctx context.Context, session *makemkv.Session, number int) error {
	outputName, ok := session.Titles[number].OutputFileName()
	if !ok || outputName == "" {
		return services.Wrap(services.ErrExternalTool, "ripping", "extract title",
			fmt.Sprintf("title %d has no output file name", number), nil)
	}
	path := filepath.Join(r.job.WorkDir(), outputName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return services.Wrap(services.ErrTransient, "ripping", "remove stale output", path, err)
	}

	ripCtx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.MakeMKV.RipTimeout)*time.Second)
	defer cancel()

	code, err := r.engine.Mkv(ripCtx, r.drive.ResolvedPath(), number, r.job.WorkDir(),
		r.job.MinimumDuration, r.sessionFeeder(session))
	r.lastRunCode = code
	r.errorCount = session.ErrorCount
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "ripping", "makemkv mkv", r.job.Device, err)
	}
	if code != 0 {
		return services.Wrap(services.ErrExternalTool, "ripping", "makemkv mkv",
			fmt.Sprintf("%s exited with code %d", r.cfg.MakeMKV.Binary, code), nil)
	}

	path = r.renameTitle(path, number)
	return r.remux(ctx, path)
}

// sessionFeeder decodes each status line and logs message changes so rip
// progress shows up in the debug log without repeating.
func (r *Ripper) sessionFeeder(session *makemkv.Session) func(string) {
	lastMessage := ""
	return func(line string) {
		session.Feed(line)
		if session.Message != "" && session.Message != lastMessage {
			r.logger.Debug(session.Message)
			lastMessage = session.Message
		}
	}
}

// renameTitle moves the engine's output to its predictable name: movies to
// the media directory, shows with a season to a Season NN subdirectory,
// everything else stays in the work directory. The move is skipped when the
// source is missing or the target already exists.
func (r *Ripper) renameTitle(path string, number int) string {
	ext := filepath.Ext(path)
	name := r.job.OutputName(number, ext)

	target := filepath.Join(r.job.WorkDir(), name)
	switch {
	case r.job.MediaType == MediaMovie:
		target = filepath.Join(r.job.MediaDir(), name)
	case r.job.MediaType == MediaShow && r.job.Season >= 0:
		seasonDir := r.job.SeasonDir()
		if err := os.MkdirAll(seasonDir, 0o755); err != nil {
			r.logger.Error("failed to create season directory", logging.Error(err))
			return path
		}
		target = filepath.Join(seasonDir, name)
	}

	if _, err := os.Stat(path); err != nil {
		r.logger.Error("expected output file is missing", logging.String("path", path))
		return path
	}
	if _, err := os.Stat(target); err == nil {
		r.logger.Error("rename target already exists, keeping engine name",
			logging.String("target", target))
		return path
	}
	// Media roots are often a different mount than the staging directory.
	if err := fileutil.MoveFile(path, target); err != nil {
		r.logger.Error("failed to rename title", logging.Error(err))
		return path
	}
	r.logger.Debug("renamed title",
		logging.String("from", path), logging.String("to", target))
	return target
}

// ejectLoop unlocks and ejects until the drive reports an open tray or the
// eject timeout elapses. Returns whether the tray ended up open.
func (r *Ripper) ejectLoop(ctx context.Context) bool {
	deadline := time.Now().Add(time.Duration(r.cfg.Rip.EjectTimeout) * time.Second)
	for {
		if err := r.drive.Unlock(); err != nil {
			r.logger.Debug("unlock before eject failed", logging.Error(err))
		}
		if err := r.drive.Eject(); err != nil {
			r.logger.Debug("eject attempt failed", logging.Error(err))
		}
		status, err := r.drive.QueryDriveStatus()
		if err == nil && status == drive.DriveTrayOpen {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(r.ejectPoll):
		}
	}
}

// remuxProfile applies the job's remux profile to one finished title.
func (r *Ripper) remuxProfile(ctx context.Context, path string) error {
	audio, subtitles, preferredAudio, preferredSubtitles, ok := profileLanguages(r.job.Profile)
	if !ok {
		r.logger.Debug("no remuxing was requested")
		return nil
	}

	tools := container.Tools{
		Mkvmerge:    r.cfg.Tools.Mkvmerge,
		Mkvextract:  r.cfg.Tools.Mkvextract,
		Mkvpropedit: r.cfg.Tools.Mkvpropedit,
	}
	c, err := container.Open(ctx, path, tools, r.logger)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "ripping", "inspect container", path, err)
	}

	r.logger.Debug("filtering streams by language",
		logging.String("audio", language.DisplayList(audio)),
		logging.String("subtitles", language.DisplayList(subtitles)))
	if err := c.RemuxByLanguage(ctx, audio, subtitles); err != nil {
		return services.Wrap(services.ErrExternalTool, "ripping", "remux", path, err)
	}
	if err := c.SetTitle(ctx, r.job.MediaName()); err != nil {
		return services.Wrap(services.ErrExternalTool, "ripping", "set container title", path, err)
	}
	if err := c.SetPreferredAudio(ctx, preferredAudio); err != nil {
		return services.Wrap(services.ErrExternalTool, "ripping", "set default audio", path, err)
	}
	if preferredSubtitles != "" {
		if err := c.SetPreferredSubtitles(ctx, preferredSubtitles); err != nil {
			return services.Wrap(services.ErrExternalTool, "ripping", "set default subtitles", path, err)
		}
	} else if err := c.ClearDefaultSubtitles(ctx); err != nil {
		return services.Wrap(services.ErrExternalTool, "ripping", "clear default subtitles", path, err)
	}
	r.lastRunCode = c.LastRunCode
	return nil
}

// profileLanguages maps a remux profile to its stream filters and default
// stream preferences. ok is false for RemuxNone.
func profileLanguages(profile RemuxProfile) (audio, subtitles []string, preferredAudio, preferredSubtitles string, ok bool) {
	const (
		eng = "eng"
		jpn = "jpn"
	)
	switch profile {
	case RemuxEnglishOnly:
		return []string{eng}, []string{eng}, eng, "", true
	case RemuxJapaneseOnly:
		return []string{jpn}, []string{jpn}, jpn, "", true
	case RemuxAnimeDubs:
		return []string{eng, jpn}, []string{eng, jpn}, eng, "", true
	case RemuxAnimeSubs:
		return []string{eng, jpn}, []string{eng, jpn}, jpn, eng, true
	default:
		return nil, nil, "", "", false
	}
}
