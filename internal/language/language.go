// Package language normalizes the ISO-639-2 codes carried by Matroska
// track metadata. Matroska commonly uses the bibliographic (B) variants,
// which golang.org/x/text does not parse directly, so B codes are mapped to
// their terminological (T) equivalents first.
package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Und is the ISO-639-2 code for an undetermined language.
const Und = "und"

// Bibliographic ISO-639-2/B codes mapped to their 639-2/T equivalents.
var bToT = map[string]string{
	"alb": "sqi",
	"arm": "hye",
	"baq": "eus",
	"bur": "mya",
	"chi": "zho",
	"cze": "ces",
	"dut": "nld",
	"fre": "fra",
	"geo": "kat",
	"ger": "deu",
	"gre": "ell",
	"ice": "isl",
	"mac": "mkd",
	"mao": "mri",
	"may": "msa",
	"per": "fas",
	"rum": "ron",
	"slo": "slk",
	"tib": "bod",
	"wel": "cym",
}

// Normalize lower-cases and trims a track language code. Empty input maps
// to "und"; B codes pass through unchanged (mkvmerge track selection expects
// the tag exactly as stored in the file).
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return Und
	}
	return code
}

// DisplayName renders a human-readable English name for an ISO-639-2 code.
// Unrecognized codes come back upper-cased so logs stay informative.
func DisplayName(code string) string {
	code = Normalize(code)
	if code == Und {
		return "Undetermined"
	}
	parseable := code
	if t, ok := bToT[code]; ok {
		parseable = t
	}
	tag, err := language.Parse(parseable)
	if err != nil {
		return strings.ToUpper(code)
	}
	name := display.English.Languages().Name(tag)
	if name == "" {
		return strings.ToUpper(code)
	}
	return name
}

// DisplayList renders a comma-separated list of display names.
func DisplayList(codes []string) string {
	if len(codes) == 0 {
		return ""
	}
	names := make([]string, 0, len(codes))
	for _, code := range codes {
		names = append(names, DisplayName(code))
	}
	return strings.Join(names, ", ")
}
