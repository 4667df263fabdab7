package translation

import (
	"strings"
)

// MaxInputLength is the number of characters kept from user text
const MaxInputLength = 5000

const defaultLanguageName = "English"

var languageNames = map[string]string{
	"en":   "English",
	"pl":   "Polish",
	"de":   "German",
	"es":   "Spanish",
	"fr":   "French",
	"it":   "Italian",
	"pt":   "Portuguese",
	"nl":   "Dutch",
	"uk":   "Ukrainian",
	"cs":   "Czech",
	"sk":   "Slovak",
	"hu":   "Hungarian",
	"ro":   "Romanian",
	"bg":   "Bulgarian",
	"el":   "Greek",
	"tr":   "Turkish",
	"sv":   "Swedish",
	"no":   "Norwegian",
	"da":   "Danish",
	"fi":   "Finnish",
	"ja":   "Japanese",
	"ko":   "Korean",
	"zh":   "Chinese",
	"ru":   "Russian",
	"ar":   "Arabic",
	"hi":   "Hindi",
	"auto": "English",
}

// LanguageName maps a language code to the English name used in prompts.
// Unknown codes read as English.
func LanguageName(code string) string {
	if name, ok := languageNames[strings.ToLower(strings.TrimSpace(code))]; ok {
		return name
	}
	return defaultLanguageName
}

// Sanitize strips angle brackets and keeps at most MaxInputLength characters
func Sanitize(text string) string {
	stripped := strings.Map(func(r rune) rune {
		if r == '<' || r == '>' {
			return -1
		}
		return r
	}, text)

	runes := []rune(stripped)
	if len(runes) > MaxInputLength {
		return string(runes[:MaxInputLength])
	}
	return stripped
}
