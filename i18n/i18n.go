// Package i18n localizes the translator's own user-facing messages.
//
// Catalogs are gettext PO files embedded from locales/{lang}/LC_MESSAGES.
// Call Init once at startup, then T and N wherever a message is printed.
package i18n

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

//go:embed all:locales
var locales embed.FS

const domain = "epub-translator"

var po *gotext.Locale

// Init loads the catalog for lang, or for the language named by the
// environment (LANGUAGE, LC_ALL, LC_MESSAGES, LANG) when lang is empty.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}
	po = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// T translates msgid, falling back to msgid itself.
func T(msgid string, vars ...any) string {
	if po == nil {
		if len(vars) > 0 {
			return fmt.Sprintf(msgid, vars...)
		}
		return msgid
	}
	return po.Get(msgid, vars...)
}

// N translates a message with plural forms chosen by n.
func N(singular, plural string, n int, vars ...any) string {
	if po == nil {
		msg := plural
		if n == 1 {
			msg = singular
		}
		if len(vars) > 0 {
			return fmt.Sprintf(msg, vars...)
		}
		return msg
	}
	return po.GetN(singular, plural, n, vars...)
}

func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if val == "" {
			continue
		}
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		if i := strings.IndexByte(val, '.'); i >= 0 {
			val = val[:i]
		}
		if val == "C" || val == "POSIX" || val == "" {
			continue
		}
		return val
	}
	return "en"
}
