package makemkv

import (
	"strings"
	"testing"
)

func TestFeedProgress(t *testing.T) {
	s := NewSession()
	s.Feed("PRGV:32768,16384,65536")
	if s.Progress != 0.5 {
		t.Errorf("Progress = %v, want 0.5", s.Progress)
	}
	if s.TotalProgress != 0.25 {
		t.Errorf("TotalProgress = %v, want 0.25", s.TotalProgress)
	}
}

func TestFeedProgressZeroScale(t *testing.T) {
	s := NewSession()
	s.Feed("PRGV:100,200,300")
	before := s.Progress
	s.Feed("PRGV:1,1,0")
	if s.Progress != before {
		t.Errorf("Progress changed to %v on undecodable line", s.Progress)
	}
	if !strings.Contains(s.Message, "decode failure") {
		t.Errorf("Message = %q, want decode failure diagnostic", s.Message)
	}
}

func TestFeedDrive(t *testing.T) {
	s := NewSession()
	s.Feed(`DRV:0,2,999,1,"BD-RE HL-DT-ST","PRACTICAL_DISC"`)
	if s.DriveIndex != 0 || s.DriveVisible != 2 || s.DriveEnabled != 999 || s.DiscFlags != 1 {
		t.Errorf("drive fields = %d,%d,%d,%d", s.DriveIndex, s.DriveVisible, s.DriveEnabled, s.DiscFlags)
	}
	if s.DriveName != `"BD-RE HL-DT-ST"` {
		t.Errorf("DriveName = %q", s.DriveName)
	}
	if s.DiscName != `"PRACTICAL_DISC"` {
		t.Errorf("DiscName = %q", s.DiscName)
	}
}

func TestFeedDriveRejectsUnknownEnums(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"unknown drive state", `DRV:0,5,999,1,"drive","disc"`},
		{"unknown disc flags", `DRV:0,2,999,3,"drive","disc"`},
		{"short line", `DRV:0,2,999`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession()
			s.Feed(tt.line)
			if s.DriveName != "" {
				t.Errorf("DriveName = %q, want untouched", s.DriveName)
			}
			if !strings.Contains(s.Message, "decode failure") {
				t.Errorf("Message = %q, want diagnostic", s.Message)
			}
		})
	}
}

func TestFeedMessageCounters(t *testing.T) {
	s := NewSession()

	s.Feed(`MSG:2003,0,0,"SCSI error - Medium error","%1"`)
	if s.ErrorCount != 1 {
		t.Fatalf("ErrorCount = %d, want 1", s.ErrorCount)
	}
	s.Feed(`MSG:2003,0,0,"SCSI error - Medium error","%1"`)
	if s.ErrorCount != 2 {
		t.Fatalf("ErrorCount = %d, want 2", s.ErrorCount)
	}

	// Success resets the error counter.
	s.Feed(`MSG:5011,0,0,"Operation successfully completed","%1"`)
	if s.SuccessCount != 1 {
		t.Errorf("SuccessCount = %d, want 1", s.SuccessCount)
	}
	if s.ErrorCount != 0 {
		t.Errorf("ErrorCount = %d, want 0 after success", s.ErrorCount)
	}
}

func TestFeedMessageParams(t *testing.T) {
	s := NewSession()
	s.Feed(`MSG:5017,0,2,"Saving title","%1 %2","first","second,with,commas"`)
	if s.MessageCode != CodeSavingToMKVFile {
		t.Errorf("MessageCode = %d", s.MessageCode)
	}
	// Format and params keep their raw quoting; only the text is unquoted.
	if s.MessageFormat != `"%1 %2"` {
		t.Errorf("MessageFormat = %q", s.MessageFormat)
	}
	if s.Message != "Saving title" {
		t.Errorf("Message = %q", s.Message)
	}
	want := []string{`"first"`, `"second,with,commas"`}
	if len(s.MessageParams) != len(want) {
		t.Fatalf("MessageParams = %v, want %v", s.MessageParams, want)
	}
	for i := range want {
		if s.MessageParams[i] != want[i] {
			t.Errorf("MessageParams[%d] = %q, want %q", i, s.MessageParams[i], want[i])
		}
	}
}

func TestFeedMessageKeepsPreviousTextWhenEmpty(t *testing.T) {
	s := NewSession()
	s.Feed(`MSG:5017,0,0,"Saving title 1","%1"`)
	s.Feed(`MSG:5011,0,0,"","%1"`)
	if s.Message != "Saving title 1" {
		t.Errorf("Message = %q, want previous text retained", s.Message)
	}
	if s.MessageCode != CodeOperationComplete {
		t.Errorf("MessageCode = %d, want %d", s.MessageCode, CodeOperationComplete)
	}
}

func TestFeedMessageRejectsUnknownEnums(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"unknown code", `MSG:9999,0,0,"mystery","%1"`},
		{"unknown flags", `MSG:5011,7,0,"ok","%1"`},
		{"missing declared params", `MSG:5011,0,2,"ok","%1"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession()
			s.Feed(tt.line)
			if s.ErrorCount != 0 || s.SuccessCount != 0 {
				t.Errorf("counters moved on undecodable line: %d/%d", s.ErrorCount, s.SuccessCount)
			}
			if !strings.Contains(s.Message, "decode failure") {
				t.Errorf("Message = %q, want diagnostic", s.Message)
			}
		})
	}
}

func TestFeedOperation(t *testing.T) {
	s := NewSession()
	s.Feed(`MSG:5017,0,1,"old","%1","p"`)
	s.Feed(`PRGC:5017,1,"Saving to MKV file"`)
	if s.Operation != "saving_to_mkv_file" {
		t.Errorf("Operation = %q", s.Operation)
	}
	if s.TitleNumber != 1 {
		t.Errorf("TitleNumber = %d, want 1", s.TitleNumber)
	}
	if s.Message != "Saving to MKV file" {
		t.Errorf("Message = %q", s.Message)
	}
	if s.MessageFlags != -1 || s.MessageFormat != "" || s.MessageParams != nil {
		t.Errorf("message detail fields were not reset")
	}
}

func TestFeedTitleAndStreamInfo(t *testing.T) {
	s := NewSession()
	// Titles arrive out of order; entries are created on first reference.
	s.Feed(`TINFO:2,9,0,"0:08:20"`)
	s.Feed(`TINFO:0,9,0,"1:06:40"`)
	s.Feed(`TINFO:0,27,0,"title_t00.mkv"`)
	s.Feed(`SINFO:0,1,3,0,"eng"`)
	s.Feed("TCOUNT:2")

	numbers := s.TitleNumbers()
	if len(numbers) != 2 || numbers[0] != 0 || numbers[1] != 2 {
		t.Fatalf("TitleNumbers = %v, want [0 2]", numbers)
	}
	if d, ok := s.Titles[0].Duration(); !ok || d != 4000 {
		t.Errorf("title 0 duration = %d,%t, want 4000,true", d, ok)
	}
	if d, ok := s.Titles[2].Duration(); !ok || d != 500 {
		t.Errorf("title 2 duration = %d,%t, want 500,true", d, ok)
	}
	if name, ok := s.Titles[0].OutputFileName(); !ok || name != "title_t00.mkv" {
		t.Errorf("output file name = %q,%t", name, ok)
	}
	if lang := s.Titles[0].Streams[1][AttrLangCode].String(); lang != "eng" {
		t.Errorf("stream language = %q, want eng", lang)
	}
	if s.TitleCount != 2 {
		t.Errorf("TitleCount = %d, want 2", s.TitleCount)
	}
}

func TestFeedDiscInfo(t *testing.T) {
	s := NewSession()
	s.Feed(`CINFO:2,0,"PRACTICAL DISC"`)
	if got := s.Disc[AttrName].String(); got != "PRACTICAL DISC" {
		t.Errorf("disc name = %q", got)
	}
}

func TestFeedRejectsUnknownAttribute(t *testing.T) {
	s := NewSession()
	s.Feed(`TINFO:0,51,0,"value"`)
	if len(s.Titles) != 0 {
		t.Errorf("title created from undecodable line")
	}
	if !strings.Contains(s.Message, "unknown attribute id 51") {
		t.Errorf("Message = %q", s.Message)
	}
}

func TestFeedMalformedLineLeavesStateIntact(t *testing.T) {
	s := NewSession()
	s.Feed("PRGV:32768,16384,65536")
	s.Feed(`TINFO:0,9,0,"0:10:00"`)

	s.Feed("no delimiter here")

	if s.Progress != 0.5 {
		t.Errorf("Progress = %v, want 0.5", s.Progress)
	}
	if _, ok := s.Titles[0]; !ok {
		t.Errorf("title map lost on malformed line")
	}
	if !strings.Contains(s.Message, "missing tag delimiter") {
		t.Errorf("Message = %q", s.Message)
	}
}

func TestFeedUnknownTagFailsLoudly(t *testing.T) {
	s := NewSession()
	s.Feed("XYZ:1,2,3")
	if s.Tag != "XYZ" {
		t.Errorf("Tag = %q, want XYZ", s.Tag)
	}
	if !strings.Contains(s.Message, `unknown tag "XYZ"`) {
		t.Errorf("Message = %q", s.Message)
	}
}

func TestDurationSeconds(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    int
		wantErr bool
	}{
		{"hour plus", "1:06:40", 4000, false},
		{"minutes only", "0:08:20", 500, false},
		{"zero", "0:00:00", 0, false},
		{"two fields", "08:20", 0, true},
		{"garbage", "x:y:z", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := durationSeconds(tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("durationSeconds(%q) error = %v, wantErr %t", tt.text, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("durationSeconds(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestDecodeAttrIntegers(t *testing.T) {
	s := NewSession()
	s.Feed(`TINFO:0,8,0,"24"`)
	if n, ok := s.Titles[0].Attrs[AttrChapterCount].Int(); !ok || n != 24 {
		t.Errorf("chapter count = %d,%t, want 24,true", n, ok)
	}
	s.Feed(`TINFO:0,11,0,"1234567890"`)
	if n, ok := s.Titles[0].Attrs[AttrDiskSizeBytes].Int(); !ok || n != 1234567890 {
		t.Errorf("disk size = %d,%t", n, ok)
	}
}
