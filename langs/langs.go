// Package langs is the registry of language codes the translator offers,
// plus detection of a book's source language.
package langs

import (
	"fmt"
	"sort"
	"strings"
)

// Auto asks for the source language to be detected from the book's text.
const Auto = "auto"

// Registry maps language codes to their English names.
var Registry = map[string]string{
	"af":    "afrikaans",
	"sq":    "albanian",
	"am":    "amharic",
	"ar":    "arabic",
	"hy":    "armenian",
	"az":    "azerbaijani",
	"eu":    "basque",
	"be":    "belarusian",
	"bn":    "bengali",
	"bs":    "bosnian",
	"bg":    "bulgarian",
	"ca":    "catalan",
	"ceb":   "cebuano",
	"ny":    "chichewa",
	"zh-cn": "chinese (simplified)",
	"zh-tw": "chinese (traditional)",
	"co":    "corsican",
	"hr":    "croatian",
	"cs":    "czech",
	"da":    "danish",
	"nl":    "dutch",
	"en":    "english",
	"eo":    "esperanto",
	"et":    "estonian",
	"tl":    "filipino",
	"fi":    "finnish",
	"fr":    "french",
	"fy":    "frisian",
	"gl":    "galician",
	"ka":    "georgian",
	"de":    "german",
	"el":    "greek",
	"gu":    "gujarati",
	"ht":    "haitian creole",
	"ha":    "hausa",
	"haw":   "hawaiian",
	"iw":    "hebrew",
	"hi":    "hindi",
	"hmn":   "hmong",
	"hu":    "hungarian",
	"is":    "icelandic",
	"ig":    "igbo",
	"id":    "indonesian",
	"ga":    "irish",
	"it":    "italian",
	"ja":    "japanese",
	"jw":    "javanese",
	"kn":    "kannada",
	"kk":    "kazakh",
	"km":    "khmer",
	"ko":    "korean",
	"ku":    "kurdish (kurmanji)",
	"ky":    "kyrgyz",
	"lo":    "lao",
	"la":    "latin",
	"lv":    "latvian",
	"lt":    "lithuanian",
	"lb":    "luxembourgish",
	"mk":    "macedonian",
	"mg":    "malagasy",
	"ms":    "malay",
	"ml":    "malayalam",
	"mt":    "maltese",
	"mi":    "maori",
	"mr":    "marathi",
	"mn":    "mongolian",
	"my":    "myanmar (burmese)",
	"ne":    "nepali",
	"no":    "norwegian",
	"ps":    "pashto",
	"fa":    "persian",
	"pl":    "polish",
	"pt":    "portuguese",
	"pa":    "punjabi",
	"ro":    "romanian",
	"ru":    "russian",
	"sm":    "samoan",
	"gd":    "scots gaelic",
	"sr":    "serbian",
	"st":    "sesotho",
	"sn":    "shona",
	"sd":    "sindhi",
	"si":    "sinhala",
	"sk":    "slovak",
	"sl":    "slovenian",
	"so":    "somali",
	"es":    "spanish",
	"su":    "sundanese",
	"sw":    "swahili",
	"sv":    "swedish",
	"tg":    "tajik",
	"ta":    "tamil",
	"te":    "telugu",
	"th":    "thai",
	"tr":    "turkish",
	"uk":    "ukrainian",
	"ur":    "urdu",
	"uz":    "uzbek",
	"vi":    "vietnamese",
	"cy":    "welsh",
	"xh":    "xhosa",
	"yi":    "yiddish",
	"yo":    "yoruba",
	"zu":    "zulu",
	"fil":   "filipino",
	"he":    "hebrew",
}

// canonicalize lowercases code and uses '-' as the region separator, the
// form the registry keys are in.
func canonicalize(code string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(code)), "_", "-")
}

// Known reports whether code is in the registry.
func Known(code string) bool {
	_, ok := Registry[canonicalize(code)]
	return ok
}

// Name returns the English name for code, or code itself when unknown.
func Name(code string) string {
	if n, ok := Registry[canonicalize(code)]; ok {
		return n
	}
	return code
}

// Codes returns every registered code, sorted.
func Codes() []string {
	codes := make([]string, 0, len(Registry))
	for c := range Registry {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Label renders code as "english (en)".
func Label(code string) string {
	return fmt.Sprintf("%s (%s)", Name(code), code)
}

// ParseLabel extracts the code from a label produced by Label. A bare code
// is returned unchanged.
func ParseLabel(label string) string {
	fields := strings.Fields(label)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[len(fields)-1], "()")
}

// Resolve turns a code, a label such as "german (de)" or an English name
// such as "German" into a registry code. Anything else is returned as given.
func Resolve(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == Auto {
		return s
	}
	if Known(s) {
		return canonicalize(s)
	}
	if code := ParseLabel(s); Known(code) && strings.HasSuffix(s, ")") {
		return canonicalize(code)
	}
	name := strings.ToLower(s)
	for _, code := range Codes() {
		if Registry[code] == name {
			return code
		}
	}
	return s
}
