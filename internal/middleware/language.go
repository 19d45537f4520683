package middleware

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
)

const (
	// LangParam selects a language explicitly and is remembered in a cookie.
	LangParam = "lang"
	// LangCookieName stores the chosen language.
	LangCookieName = "lang"
)

var supportedLanguages = []language.Tag{
	language.English, // default
	language.French,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

// Language resolves the response language for every request, in order: the
// ?lang= query parameter, the lang cookie, Accept-Language, English. The
// result is sent as Content-Language.
func Language(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag, persist := resolveLanguage(r)
		if persist {
			http.SetCookie(w, &http.Cookie{
				Name:     LangCookieName,
				Value:    tag.String(),
				Path:     "/",
				MaxAge:   int((365 * 24 * time.Hour).Seconds()),
				SameSite: http.SameSiteLaxMode,
			})
		}

		w.Header().Set("Content-Language", tag.String())
		next.ServeHTTP(w, r)
	})
}

func resolveLanguage(r *http.Request) (language.Tag, bool) {
	if v := strings.TrimSpace(r.URL.Query().Get(LangParam)); v != "" {
		if tag, ok := supported(v); ok {
			return tag, true
		}
	}

	if c, err := r.Cookie(LangCookieName); err == nil {
		if tag, ok := supported(c.Value); ok {
			return tag, false
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			_, idx, conf := languageMatcher.Match(tags...)
			if conf != language.No {
				return supportedLanguages[idx], false
			}
		}
	}

	return supportedLanguages[0], false
}

// supported maps value onto one of the supported tags by base language,
// so "fr-CA" selects French.
func supported(value string) (language.Tag, bool) {
	parsed, err := language.Parse(value)
	if err != nil {
		return language.Tag{}, false
	}
	base, _ := parsed.Base()
	for _, tag := range supportedLanguages {
		if b, _ := tag.Base(); b == base {
			return tag, true
		}
	}
	return language.Tag{}, false
}
