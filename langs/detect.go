package langs

import (
	"errors"
	"strings"

	"github.com/abadojack/whatlanggo"
)

// ErrUndetected is returned when the sample is too short or too ambiguous
// to name a language.
var ErrUndetected = errors.New("source language could not be detected")

// detection codes that differ from the registry's
var detectAliases = map[string]string{
	"zh": "zh-cn",
}

// Detect returns the registry code of the language samples are written in.
func Detect(samples []string) (string, error) {
	text := strings.TrimSpace(strings.Join(samples, "\n"))
	if text == "" {
		return "", ErrUndetected
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return "", ErrUndetected
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return "", ErrUndetected
	}
	if alias, ok := detectAliases[code]; ok {
		code = alias
	}
	return code, nil
}
