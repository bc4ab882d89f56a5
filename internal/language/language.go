package language

import "strings"

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2/T (3-letter, terminology)
	alt3    string   // ISO 639-2/B when it differs; the catalog keys on this form
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"es", "spa", "", "Spanish", []string{"spanish"}},
	{"fr", "fra", "fre", "French", []string{"french"}},
	{"de", "deu", "ger", "German", []string{"german"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"ar", "ara", "", "Arabic", []string{"arabic"}},
	{"hi", "hin", "", "Hindi", []string{"hindi"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}},
	{"pl", "pol", "", "Polish", []string{"polish"}},
	{"sv", "swe", "", "Swedish", []string{"swedish"}},
	{"da", "dan", "", "Danish", []string{"danish"}},
	{"no", "nor", "", "Norwegian", []string{"norwegian"}},
	{"fi", "fin", "", "Finnish", []string{"finnish"}},
	{"tr", "tur", "", "Turkish", []string{"turkish"}},
	{"el", "ell", "gre", "Greek", []string{"greek"}},
	{"cs", "ces", "cze", "Czech", []string{"czech"}},
	{"ro", "ron", "rum", "Romanian", []string{"romanian"}},
	{"hu", "hun", "", "Hungarian", []string{"hungarian"}},
	{"he", "heb", "", "Hebrew", []string{"hebrew"}},
	{"fa", "fas", "per", "Persian", []string{"persian", "farsi"}},
	{"uk", "ukr", "", "Ukrainian", []string{"ukrainian"}},
	{"bg", "bul", "", "Bulgarian", []string{"bulgarian"}},
	{"hr", "hrv", "", "Croatian", []string{"croatian"}},
	{"sr", "srp", "", "Serbian", []string{"serbian"}},
	{"vi", "vie", "", "Vietnamese", []string{"vietnamese"}},
	{"id", "ind", "", "Indonesian", []string{"indonesian"}},
}

// Index maps built at init time.
var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// CatalogCode converts any recognized code or word to the 3-letter
// sublanguageid the subtitle catalog expects (ISO 639-2/B, e.g. "fre", "ger").
// Unrecognized 3-letter codes pass through; anything else returns "".
func CatalogCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		if e.alt3 != "" {
			return e.alt3
		}
		return e.code3
	}
	if len(code) == 3 {
		return code
	}
	return ""
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// SameLanguage reports whether two codes in any supported form refer to the same language.
func SameLanguage(a, b string) bool {
	ca, cb := CatalogCode(a), CatalogCode(b)
	return ca != "" && ca == cb
}
