package container

import (
	"context"
	"os"
	"reflect"
	"strings"
	"testing"

	"discripper/internal/logging"
)

func newTestContainer(t *testing.T, runner *fakeRunner, streams []Stream) *Container {
	t.Helper()
	return &Container{
		path:    newTestFile(t),
		tools:   testTools,
		logger:  logging.NewNop(),
		runner:  runner,
		Streams: streams,
	}
}

func findCall(calls [][]string, tool, needle string) []string {
	for _, call := range calls {
		if call[0] != tool {
			continue
		}
		for _, arg := range call[1:] {
			if arg == needle {
				return call
			}
		}
	}
	return nil
}

func TestRemuxByLanguageAddsUndeterminedWhenLanguageMissing(t *testing.T) {
	runner := &fakeRunner{identifyOut: []byte(identifyJSON)}
	c := newTestContainer(t, runner, []Stream{
		{ID: 1, Type: StreamAudio, Language: "eng"},
		{ID: 2, Type: StreamAudio, Language: LangUnd},
	})

	// No jpn stream exists, so und joins the audio filter.
	if err := c.RemuxByLanguage(context.Background(), []string{"jpn"}, nil); err != nil {
		t.Fatalf("RemuxByLanguage: %v", err)
	}

	call := findCall(runner.calls, "mkvmerge", "--audio-tracks")
	if call == nil {
		t.Fatal("mkvmerge was not invoked with --audio-tracks")
	}
	args := call[1:]
	var audioFilter string
	for i, arg := range args {
		if arg == "--audio-tracks" {
			audioFilter = args[i+1]
		}
	}
	if audioFilter != "jpn,und" {
		t.Errorf("audio filter = %q, want jpn,und", audioFilter)
	}
	// No subtitle languages requested means no subtitles at all.
	found := false
	for _, arg := range args {
		if arg == "--no-subtitles" {
			found = true
		}
	}
	if !found {
		t.Error("--no-subtitles missing from remux invocation")
	}
}

func TestRemuxByLanguageIdempotentWhenLanguagePresent(t *testing.T) {
	runner := &fakeRunner{identifyOut: []byte(identifyJSON)}
	c := newTestContainer(t, runner, []Stream{
		{ID: 1, Type: StreamAudio, Language: "eng"},
		{ID: 2, Type: StreamSubtitles, Language: "eng"},
	})

	if err := c.RemuxByLanguage(context.Background(), []string{"eng"}, []string{"eng"}); err != nil {
		t.Fatalf("RemuxByLanguage: %v", err)
	}

	call := findCall(runner.calls, "mkvmerge", "--audio-tracks")
	if call == nil {
		t.Fatal("mkvmerge was not invoked with --audio-tracks")
	}
	for i, arg := range call {
		if arg == "--audio-tracks" && call[i+1] != "eng" {
			t.Errorf("audio filter = %q, want eng", call[i+1])
		}
		if arg == "--subtitle-tracks" && call[i+1] != "eng" {
			t.Errorf("subtitle filter = %q, want eng", call[i+1])
		}
	}
}

func TestRemuxByLanguageReplacesOriginal(t *testing.T) {
	runner := &fakeRunner{identifyOut: []byte(identifyJSON), chaptersXML: chaptersXML}
	c := newTestContainer(t, runner, []Stream{{ID: 1, Type: StreamAudio, Language: "eng"}})
	original := c.path

	if err := c.RemuxByLanguage(context.Background(), []string{"eng"}, nil); err != nil {
		t.Fatalf("RemuxByLanguage: %v", err)
	}

	if _, err := os.Stat(original); err != nil {
		t.Errorf("original path missing after remux: %v", err)
	}
	ext := ".remuxed.mkv"
	if _, err := os.Stat(strings.TrimSuffix(original, ".mkv") + ext); !os.IsNotExist(err) {
		t.Errorf("remuxed temp file left behind: %v", err)
	}
	// Reload happened: metadata now reflects the canned identify document.
	if c.Title != "Practical Disc" {
		t.Errorf("Title = %q after reload", c.Title)
	}
}

func TestRemuxByLanguageFailsOnNonzeroExit(t *testing.T) {
	runner := &fakeRunner{identifyOut: []byte(identifyJSON), runCode: 2}
	c := newTestContainer(t, runner, []Stream{{ID: 1, Type: StreamAudio, Language: "eng"}})
	original := c.path

	if err := c.RemuxByLanguage(context.Background(), []string{"eng"}, nil); err == nil {
		t.Fatal("RemuxByLanguage succeeded despite mkvmerge failure")
	}
	if _, err := os.Stat(original); err != nil {
		t.Errorf("original deleted despite failed remux: %v", err)
	}
}

func TestSetTitle(t *testing.T) {
	runner := &fakeRunner{identifyOut: []byte(identifyJSON)}
	c := newTestContainer(t, runner, nil)

	if err := c.SetTitle(context.Background(), " Big Film (2001) "); err != nil {
		t.Fatalf("SetTitle: %v", err)
	}
	want := []string{"mkvpropedit", c.path, "--edit", "info", "--set", "title=Big Film (2001)"}
	if !reflect.DeepEqual(runner.lastCall(), want) {
		t.Errorf("call = %v, want %v", runner.lastCall(), want)
	}
	if c.Title != "Big Film (2001)" {
		t.Errorf("Title = %q", c.Title)
	}
}

func TestSetPreferredSubtitlesPrefersMostFrames(t *testing.T) {
	runner := &fakeRunner{identifyOut: []byte(identifyJSON)}
	c := newTestContainer(t, runner, []Stream{
		{ID: 1, UID: 501, Type: StreamSubtitles, Language: "eng", Frames: 5},
		{ID: 2, UID: 502, Type: StreamSubtitles, Language: "eng", Frames: 500},
		{ID: 3, UID: 503, Type: StreamSubtitles, Language: "eng", Frames: 50},
	})

	if err := c.SetPreferredSubtitles(context.Background(), "eng"); err != nil {
		t.Fatalf("SetPreferredSubtitles: %v", err)
	}

	call := findCall(runner.calls, "mkvpropedit", "track:=502")
	if call == nil {
		t.Fatalf("mkvpropedit not invoked for uid 502: %v", runner.calls)
	}
	want := []string{"mkvpropedit", c.path, "--edit", "track:=502", "--set", "flag-default=1"}
	if !reflect.DeepEqual(call, want) {
		t.Errorf("call = %v, want %v", call, want)
	}
}

func TestSetPreferredSubtitlesNoopWhenAlreadyDefault(t *testing.T) {
	runner := &fakeRunner{identifyOut: []byte(identifyJSON)}
	c := newTestContainer(t, runner, []Stream{
		{ID: 1, UID: 501, Type: StreamSubtitles, Language: "eng", Frames: 500, Default: true},
	})

	if err := c.SetPreferredSubtitles(context.Background(), "eng"); err != nil {
		t.Fatalf("SetPreferredSubtitles: %v", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("unexpected calls: %v", runner.calls)
	}
}

func TestSetPreferredSubtitlesMissingLanguageIsNoop(t *testing.T) {
	runner := &fakeRunner{identifyOut: []byte(identifyJSON)}
	c := newTestContainer(t, runner, []Stream{
		{ID: 1, UID: 501, Type: StreamSubtitles, Language: "eng", Frames: 500},
	})

	if err := c.SetPreferredSubtitles(context.Background(), "jpn"); err != nil {
		t.Fatalf("SetPreferredSubtitles: %v", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("unexpected calls: %v", runner.calls)
	}
}

func TestSetPreferredAudioFallsBackToAnyAudio(t *testing.T) {
	runner := &fakeRunner{identifyOut: []byte(identifyJSON)}
	c := newTestContainer(t, runner, []Stream{
		{ID: 1, UID: 201, Type: StreamAudio, Language: "fre"},
	})

	if err := c.SetPreferredAudio(context.Background(), "eng"); err != nil {
		t.Fatalf("SetPreferredAudio: %v", err)
	}
	if call := findCall(runner.calls, "mkvpropedit", "track:=201"); call == nil {
		t.Errorf("fallback audio stream was not promoted: %v", runner.calls)
	}
}

func TestClearDefaultAudio(t *testing.T) {
	runner := &fakeRunner{identifyOut: []byte(identifyJSON)}
	c := newTestContainer(t, runner, []Stream{
		{ID: 1, UID: 201, Type: StreamAudio, Language: "eng", Default: true},
		{ID: 2, UID: 202, Type: StreamAudio, Language: "jpn"},
	})

	if err := c.ClearDefaultAudio(context.Background()); err != nil {
		t.Fatalf("ClearDefaultAudio: %v", err)
	}
	call := findCall(runner.calls, "mkvpropedit", "track:=201")
	if call == nil {
		t.Fatalf("mkvpropedit not invoked: %v", runner.calls)
	}
	found := false
	for _, arg := range call {
		if arg == "flag-default=0" {
			found = true
		}
	}
	if !found {
		t.Errorf("flag-default=0 missing: %v", call)
	}
}

func TestSplitBuildsChapterArguments(t *testing.T) {
	runner := &fakeRunner{identifyOut: []byte(identifyJSON)}
	c := newTestContainer(t, runner, nil)

	if err := c.Split(context.Background(), []int{2, 5, 9}, ""); err != nil {
		t.Fatalf("Split: %v", err)
	}

	call := findCall(runner.calls, "mkvmerge", "--split")
	if call == nil {
		t.Fatal("mkvmerge --split not invoked")
	}
	want := []string{"mkvmerge", "-o", "movie-%02d.mkv", "--split", "chapters:2,5,9", c.path}
	if !reflect.DeepEqual(call, want) {
		t.Errorf("call = %v, want %v", call, want)
	}
}

func TestSplitRequiresIndices(t *testing.T) {
	runner := &fakeRunner{}
	c := newTestContainer(t, runner, nil)
	if err := c.Split(context.Background(), nil, ""); err == nil {
		t.Fatal("Split succeeded with no indices")
	}
}
