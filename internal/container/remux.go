package container

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"discripper/internal/logging"
)

// RemuxByLanguage rewrites the file keeping only audio and subtitle streams
// of the given languages, shrinking the file. Codes must match the stored
// track tags, which use ISO-639-2/B for disc rips.
//
// When a requested language has no matching stream of a type, "und" is
// added to that type's filter so a mislabeled undetermined stream survives.
// When every requested language is present, undetermined streams are
// assumed unwanted and dropped. An empty audio filter keeps all audio; an
// empty subtitle filter drops all subtitles.
//
// On success the original file is replaced and the container reloaded.
func (c *Container) RemuxByLanguage(ctx context.Context, audioLanguages, subtitleLanguages []string) error {
	audio := append([]string(nil), audioLanguages...)
	subtitles := append([]string(nil), subtitleLanguages...)

	if c.needsUndetermined(audio, StreamAudio) {
		audio = append(audio, LangUnd)
		c.logger.Warn("undetermined audio streams will be included")
	}
	if c.needsUndetermined(subtitles, StreamSubtitles) {
		subtitles = append(subtitles, LangUnd)
		c.logger.Warn("undetermined subtitle streams will be included")
	}

	ext := filepath.Ext(c.path)
	remuxedPath := strings.TrimSuffix(c.path, ext) + ".remuxed" + ext

	args := []string{"-o", remuxedPath}
	if len(audio) > 0 {
		args = append(args, "--audio-tracks", strings.Join(audio, ","))
	} else {
		c.logger.Warn("no audio languages requested, keeping all audio streams")
	}
	if len(subtitles) > 0 {
		args = append(args, "--subtitle-tracks", strings.Join(subtitles, ","))
	} else {
		args = append(args, "--no-subtitles")
	}
	args = append(args, c.path)

	code, err := c.runner.Run(ctx, "", c.tools.Mkvmerge, args...)
	if err != nil {
		return fmt.Errorf("remux %s: %w", c.path, err)
	}
	c.LastRunCode = code
	if code != 0 {
		return fmt.Errorf("remux %s: mkvmerge exited with code %d", c.path, code)
	}

	if _, err := os.Stat(remuxedPath); err != nil {
		return fmt.Errorf("remux %s: no output written: %w", c.path, err)
	}
	if err := os.Remove(c.path); err != nil {
		return fmt.Errorf("remove original %s: %w", c.path, err)
	}
	if err := os.Rename(remuxedPath, c.path); err != nil {
		return fmt.Errorf("replace %s with remuxed output: %w", c.path, err)
	}
	return c.Reload(ctx)
}

// needsUndetermined reports whether the language filter should also keep
// undetermined streams: true when und was not requested and some requested
// language has no matching stream of the given type.
func (c *Container) needsUndetermined(languages []string, streamType string) bool {
	for _, language := range languages {
		if language == LangUnd {
			return false
		}
	}
	for _, language := range languages {
		if !c.hasStream(streamType, language) {
			return true
		}
	}
	return false
}

func (c *Container) hasStream(streamType, language string) bool {
	for _, stream := range c.Streams {
		if stream.Type == streamType && stream.Language == language {
			return true
		}
	}
	return false
}

// SetTitle writes the segment title with mkvpropedit.
func (c *Container) SetTitle(ctx context.Context, title string) error {
	title = strings.TrimSpace(title)
	code, err := c.runner.Run(ctx, "", c.tools.Mkvpropedit, c.path,
		"--edit", "info", "--set", "title="+title)
	if err != nil {
		return fmt.Errorf("set title of %s: %w", c.path, err)
	}
	c.LastRunCode = code
	if code != 0 {
		return fmt.Errorf("set title of %s: mkvpropedit exited with code %d", c.path, code)
	}
	c.Title = title
	return nil
}

// SetPreferredAudio marks one audio stream of the given language as the
// default. When the language has no audio stream, an arbitrary audio stream
// is promoted instead so players always have a default.
func (c *Container) SetPreferredAudio(ctx context.Context, language string) error {
	return c.setDefaultStream(ctx, StreamAudio, language, true)
}

// SetPreferredSubtitles marks one subtitle stream of the given language as
// the default. Unlike audio, nothing is promoted when the language has no
// subtitle stream.
func (c *Container) SetPreferredSubtitles(ctx context.Context, language string) error {
	return c.setDefaultStream(ctx, StreamSubtitles, language, false)
}

// setDefaultStream picks the stream to promote and flips its default flag.
// Subtitle candidates are ordered by frame count so a partial track, like
// signs-only subtitles, never wins over a full one.
func (c *Container) setDefaultStream(ctx context.Context, streamType, language string, required bool) error {
	var candidates []Stream
	for _, stream := range c.Streams {
		if stream.Type == streamType && stream.Language == language {
			candidates = append(candidates, stream)
		}
	}
	if len(candidates) == 0 {
		c.logger.Error("no stream to set as default",
			logging.String("type", streamType), logging.String("language", language))
		if !required {
			return nil
		}
		for _, stream := range c.Streams {
			if stream.Type == streamType {
				candidates = append(candidates, stream)
			}
		}
		if len(candidates) == 0 {
			return nil
		}
		c.logger.Warn("promoting arbitrary stream to default",
			logging.String("type", streamType))
	}

	if streamType == StreamSubtitles {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Frames > candidates[j].Frames
		})
	}

	chosen := candidates[0]
	if chosen.Default {
		c.logger.Debug("stream is already default", logging.Int("stream_id", chosen.ID))
		return nil
	}
	if err := c.setDefaultFlag(ctx, chosen, true); err != nil {
		return err
	}
	c.logger.Debug("stream set as default",
		logging.String("type", chosen.Type), logging.Int("stream_id", chosen.ID))
	return c.Reload(ctx)
}

// ClearDefaultAudio drops the default flag from the default audio stream.
func (c *Container) ClearDefaultAudio(ctx context.Context) error {
	return c.clearDefaultStream(ctx, StreamAudio)
}

// ClearDefaultSubtitles drops the default flag from the default subtitle
// stream.
func (c *Container) ClearDefaultSubtitles(ctx context.Context) error {
	return c.clearDefaultStream(ctx, StreamSubtitles)
}

func (c *Container) clearDefaultStream(ctx context.Context, streamType string) error {
	for _, stream := range c.Streams {
		if stream.Type != streamType || !stream.Default {
			continue
		}
		if err := c.setDefaultFlag(ctx, stream, false); err != nil {
			return err
		}
		return c.Reload(ctx)
	}
	return nil
}

func (c *Container) setDefaultFlag(ctx context.Context, stream Stream, value bool) error {
	flag := "flag-default=0"
	if value {
		flag = "flag-default=1"
	}
	code, err := c.runner.Run(ctx, "", c.tools.Mkvpropedit, c.path,
		"--edit", fmt.Sprintf("track:=%d", stream.UID), "--set", flag)
	if err != nil {
		return fmt.Errorf("set default flag on %s: %w", c.path, err)
	}
	c.LastRunCode = code
	if code != 0 {
		return fmt.Errorf("set default flag on %s: mkvpropedit exited with code %d", c.path, code)
	}
	return nil
}

// Split cuts the file at the given 1-based chapter indices with mkvmerge.
// Outputs are written next to the input as <basename>-NN<ext>; an empty
// basename uses the input file's stem.
func (c *Container) Split(ctx context.Context, chapterIndices []int, basename string) error {
	if len(chapterIndices) == 0 {
		return fmt.Errorf("split %s: no chapter indices given", c.path)
	}
	ext := filepath.Ext(c.path)
	if basename == "" {
		basename = strings.TrimSuffix(filepath.Base(c.path), ext)
	}

	indices := make([]string, len(chapterIndices))
	for i, n := range chapterIndices {
		indices[i] = strconv.Itoa(n)
	}

	code, err := c.runner.Run(ctx, filepath.Dir(c.path), c.tools.Mkvmerge,
		"-o", basename+"-%02d"+ext,
		"--split", "chapters:"+strings.Join(indices, ","),
		c.path)
	if err != nil {
		return fmt.Errorf("split %s: %w", c.path, err)
	}
	c.LastRunCode = code
	if code != 0 {
		return fmt.Errorf("split %s: mkvmerge exited with code %d", c.path, code)
	}
	return nil
}
