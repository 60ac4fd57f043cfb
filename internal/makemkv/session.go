package makemkv

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// AttrValue holds one decoded attribute value. Duration and size attributes
// decode to integers; everything else stays text.
type AttrValue struct {
	text  string
	n     int
	isInt bool
}

func textValue(s string) AttrValue { return AttrValue{text: s} }
func intValue(n int) AttrValue     { return AttrValue{n: n, isInt: true} }

// String renders the value for display and logging.
func (v AttrValue) String() string {
	if v.isInt {
		return strconv.Itoa(v.n)
	}
	return v.text
}

// Int returns the numeric value when the attribute decoded as an integer.
func (v AttrValue) Int() (int, bool) { return v.n, v.isInt }

// AttrMap collects the decoded attributes of a disc, title, or stream.
type AttrMap map[AttrID]AttrValue

// Title accumulates TINFO attributes and the SINFO attributes of the
// title's streams, keyed by stream index.
type Title struct {
	Attrs   AttrMap
	Streams map[int]AttrMap
}

func newTitle() *Title {
	return &Title{Attrs: make(AttrMap), Streams: make(map[int]AttrMap)}
}

// Duration returns the title length in seconds when the disc reported one.
func (t *Title) Duration() (int, bool) {
	return t.Attrs[AttrDuration].Int()
}

// Name returns the title's display name, falling back to the source file
// name when no name attribute was reported.
func (t *Title) Name() string {
	if v, ok := t.Attrs[AttrName]; ok {
		return v.String()
	}
	return t.Attrs[AttrSourceFileName].String()
}

// OutputFileName returns the file name makemkvcon will write for this title.
func (t *Title) OutputFileName() (string, bool) {
	v, ok := t.Attrs[AttrOutputFileName]
	return v.String(), ok
}

// Session accumulates the decoded state of one makemkvcon run. Feed decodes
// one status line at a time; a line that fails to decode leaves all fields
// untouched except Message, which receives a diagnostic, so one malformed
// line never poisons the rest of the stream.
type Session struct {
	RawLine string
	Tag     string

	// Progress and TotalProgress are fractions of the reported scale.
	Progress      float64
	TotalProgress float64

	DriveIndex   int
	DriveVisible int
	DriveEnabled int
	DiscFlags    int
	DriveName    string
	DiscName     string

	MessageCode   MsgCode
	MessageFlags  int
	Message       string
	MessageFormat string
	MessageParams []string
	Operation     string
	TitleNumber   int

	TitleCount int
	Disc       AttrMap
	Titles     map[int]*Title

	ErrorCount   int
	SuccessCount int
}

// NewSession returns a session with counters zeroed and no state decoded.
func NewSession() *Session {
	return &Session{
		MessageCode:  -1,
		MessageFlags: -1,
		TitleNumber:  -1,
		TitleCount:   -1,
		Disc:         make(AttrMap),
		Titles:       make(map[int]*Title),
	}
}

// Feed decodes one robot status line into the session.
func (s *Session) Feed(raw string) {
	s.RawLine = strings.TrimSpace(raw)

	tag, content, found := strings.Cut(s.RawLine, ":")
	if !found {
		s.Message = decodeFailure(fmt.Errorf("missing tag delimiter"), s.RawLine)
		return
	}
	s.Tag = tag

	line, err := decodeContent(tag, content)
	if err != nil {
		s.Message = decodeFailure(err, s.RawLine)
		return
	}
	line.apply(s)
}

// TitleNumbers returns the known title indexes in ascending order.
func (s *Session) TitleNumbers() []int {
	numbers := make([]int, 0, len(s.Titles))
	for n := range s.Titles {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

func (s *Session) title(n int) *Title {
	t, ok := s.Titles[n]
	if !ok {
		t = newTitle()
		s.Titles[n] = t
	}
	return t
}

func (s *Session) stream(title, stream int) AttrMap {
	t := s.title(title)
	m, ok := t.Streams[stream]
	if !ok {
		m = make(AttrMap)
		t.Streams[stream] = m
	}
	return m
}

func decodeFailure(err error, raw string) string {
	return fmt.Sprintf("status line decode failure: %v; raw: %s", err, raw)
}

// statusLine is one fully decoded and validated robot line. Decoding is
// separated from applying so a validation failure mutates nothing.
type statusLine interface {
	apply(*Session)
}

func decodeContent(tag, content string) (statusLine, error) {
	switch tag {
	case TagPRGV:
		return decodeProgress(content)
	case TagDRV:
		return decodeDrive(content)
	case TagMSG:
		return decodeMessage(content)
	case TagPRGC, TagPRGT:
		return decodeOperation(content)
	case TagCINFO:
		return decodeDiscInfo(content)
	case TagTINFO:
		return decodeTitleInfo(content)
	case TagSINFO:
		return decodeStreamInfo(content)
	case TagTCOUNT:
		return decodeTitleCount(content)
	default:
		return nil, fmt.Errorf("unknown tag %q", tag)
	}
}

// PRGV:current,total,max

type progressLine struct {
	current float64
	total   float64
}

func decodeProgress(content string) (statusLine, error) {
	parts := strings.Split(content, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("progress line has %d fields, want 3", len(parts))
	}
	current, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, fmt.Errorf("progress current: %w", err)
	}
	total, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return nil, fmt.Errorf("progress total: %w", err)
	}
	scale, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return nil, fmt.Errorf("progress max: %w", err)
	}
	if scale <= 0 {
		return nil, fmt.Errorf("progress max %v is not positive", scale)
	}
	return progressLine{current: current / scale, total: total / scale}, nil
}

func (l progressLine) apply(s *Session) {
	s.Progress = l.current
	s.TotalProgress = l.total
}

// DRV:index,visible,enabled,flags,"drive name","disc name"

type driveLine struct {
	index, visible, enabled, flags int
	driveName, discName            string
}

func decodeDrive(content string) (statusLine, error) {
	parts := strings.SplitN(content, ",", 6)
	if len(parts) != 6 {
		return nil, fmt.Errorf("drive line has %d fields, want 6", len(parts))
	}
	var l driveLine
	var err error
	if l.index, err = strconv.Atoi(parts[0]); err != nil {
		return nil, fmt.Errorf("drive index: %w", err)
	}
	if l.visible, err = strconv.Atoi(parts[1]); err != nil {
		return nil, fmt.Errorf("drive visible: %w", err)
	}
	if l.enabled, err = strconv.Atoi(parts[2]); err != nil {
		return nil, fmt.Errorf("drive enabled: %w", err)
	}
	if l.flags, err = strconv.Atoi(parts[3]); err != nil {
		return nil, fmt.Errorf("drive flags: %w", err)
	}
	if _, ok := driveStates[l.visible]; !ok {
		return nil, fmt.Errorf("unknown drive state %d", l.visible)
	}
	if _, ok := discFlags[l.flags]; !ok {
		return nil, fmt.Errorf("unknown disc flags %d", l.flags)
	}
	l.driveName = parts[4]
	l.discName = parts[5]
	return l, nil
}

func (l driveLine) apply(s *Session) {
	s.DriveIndex = l.index
	s.DriveVisible = l.visible
	s.DriveEnabled = l.enabled
	s.DiscFlags = l.flags
	s.DriveName = l.driveName
	s.DiscName = l.discName
}

// MSG:code,flags,count,"message","format",param0,...

type messageLine struct {
	code   MsgCode
	flags  int
	text   string
	format string
	params []string
}

func decodeMessage(content string) (statusLine, error) {
	parts := strings.SplitN(content, ",", 5)
	if len(parts) != 5 {
		return nil, fmt.Errorf("message line has %d fields, want at least 5", len(parts))
	}
	rawCode, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, fmt.Errorf("message code: %w", err)
	}
	flags, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("message flags: %w", err)
	}
	count, err := strconv.Atoi(parts[2])
	if err != nil {
		return nil, fmt.Errorf("message param count: %w", err)
	}

	// Only the display text is unquoted; format and params stay raw.
	l := messageLine{code: MsgCode(rawCode), flags: flags, text: stripQuotes(parts[3])}
	format, rest, found := strings.Cut(parts[4], ",")
	l.format = format
	if count > 0 {
		if !found {
			return nil, fmt.Errorf("message declares %d params but carries none", count)
		}
		l.params = strings.SplitN(rest, ",", count)
	}

	if _, ok := uiFlags[flags]; !ok {
		return nil, fmt.Errorf("unknown message flags %d", flags)
	}
	if !l.code.Known() {
		return nil, fmt.Errorf("unknown message code %d", rawCode)
	}
	return l, nil
}

func (l messageLine) apply(s *Session) {
	s.MessageCode = l.code
	s.MessageFlags = l.flags
	s.MessageFormat = l.format
	s.MessageParams = l.params
	if l.text != "" {
		s.Message = l.text
	}
	if _, ok := errorCodes[l.code]; ok {
		s.ErrorCount++
	}
	if _, ok := successCodes[l.code]; ok {
		s.SuccessCount++
		s.ErrorCount = 0
	}
}

// PRGC:code,id,"name" and PRGT:code,id,"name"

type operationLine struct {
	code  MsgCode
	title int
	name  string
}

func decodeOperation(content string) (statusLine, error) {
	parts := strings.SplitN(content, ",", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("operation line has %d fields, want 3", len(parts))
	}
	rawCode, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, fmt.Errorf("operation code: %w", err)
	}
	title, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("operation title id: %w", err)
	}
	code := MsgCode(rawCode)
	if !code.Known() {
		return nil, fmt.Errorf("unknown operation code %d", rawCode)
	}
	return operationLine{code: code, title: title, name: stripQuotes(parts[2])}, nil
}

func (l operationLine) apply(s *Session) {
	s.MessageCode = l.code
	s.TitleNumber = l.title
	s.Message = l.name
	s.Operation = l.code.String()
	s.MessageFlags = -1
	s.MessageFormat = ""
	s.MessageParams = nil
}

// CINFO:id,code,"value"

type discInfoLine struct {
	id    AttrID
	value AttrValue
}

func decodeDiscInfo(content string) (statusLine, error) {
	parts := strings.SplitN(content, ",", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("disc info line has %d fields, want 3", len(parts))
	}
	id, value, err := decodeAttr(parts[0], parts[2])
	if err != nil {
		return nil, err
	}
	return discInfoLine{id: id, value: value}, nil
}

func (l discInfoLine) apply(s *Session) {
	s.Disc[l.id] = l.value
}

// TINFO:title,id,code,"value"

type titleInfoLine struct {
	title int
	id    AttrID
	value AttrValue
}

func decodeTitleInfo(content string) (statusLine, error) {
	parts := strings.SplitN(content, ",", 4)
	if len(parts) != 4 {
		return nil, fmt.Errorf("title info line has %d fields, want 4", len(parts))
	}
	title, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, fmt.Errorf("title index: %w", err)
	}
	id, value, err := decodeAttr(parts[1], parts[3])
	if err != nil {
		return nil, err
	}
	return titleInfoLine{title: title, id: id, value: value}, nil
}

func (l titleInfoLine) apply(s *Session) {
	s.title(l.title).Attrs[l.id] = l.value
}

// SINFO:title,stream,id,code,"value"

type streamInfoLine struct {
	title  int
	stream int
	id     AttrID
	value  AttrValue
}

func decodeStreamInfo(content string) (statusLine, error) {
	parts := strings.SplitN(content, ",", 5)
	if len(parts) != 5 {
		return nil, fmt.Errorf("stream info line has %d fields, want 5", len(parts))
	}
	title, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, fmt.Errorf("title index: %w", err)
	}
	stream, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("stream index: %w", err)
	}
	id, value, err := decodeAttr(parts[2], parts[4])
	if err != nil {
		return nil, err
	}
	return streamInfoLine{title: title, stream: stream, id: id, value: value}, nil
}

func (l streamInfoLine) apply(s *Session) {
	s.stream(l.title, l.stream)[l.id] = l.value
}

// TCOUNT:count

type titleCountLine struct {
	count int
}

func decodeTitleCount(content string) (statusLine, error) {
	count, err := strconv.Atoi(strings.TrimSpace(content))
	if err != nil {
		return nil, fmt.Errorf("title count: %w", err)
	}
	return titleCountLine{count: count}, nil
}

func (l titleCountLine) apply(s *Session) {
	s.TitleCount = l.count
}

// decodeAttr validates an attribute id against the closed enumeration and
// decodes its value. Durations become seconds; size and count attributes
// become integers; everything else is kept as unquoted text.
func decodeAttr(rawID, rawValue string) (AttrID, AttrValue, error) {
	n, err := strconv.Atoi(rawID)
	if err != nil {
		return 0, AttrValue{}, fmt.Errorf("attribute id: %w", err)
	}
	id := AttrID(n)
	if !id.Known() {
		return 0, AttrValue{}, fmt.Errorf("unknown attribute id %d", n)
	}

	text := stripQuotes(rawValue)
	switch {
	case id == AttrDuration:
		seconds, err := durationSeconds(text)
		if err != nil {
			return 0, AttrValue{}, fmt.Errorf("attribute %d: %w", n, err)
		}
		return id, intValue(seconds), nil
	default:
		if _, ok := intAttrs[id]; ok {
			v, err := strconv.Atoi(text)
			if err != nil {
				return 0, AttrValue{}, fmt.Errorf("attribute %d: %w", n, err)
			}
			return id, intValue(v), nil
		}
		return id, textValue(text), nil
	}
}

// durationSeconds converts an H:MM:SS string to whole seconds.
func durationSeconds(text string) (int, error) {
	parts := strings.Split(text, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("duration %q is not H:MM:SS", text)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("duration hours: %w", err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("duration minutes: %w", err)
	}
	seconds, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, fmt.Errorf("duration seconds: %w", err)
	}
	return hours*3600 + minutes*60 + seconds, nil
}

func stripQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}
