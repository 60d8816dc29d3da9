// Package langmeta provides the fallback display names used in translation
// prompts when a site configuration declares a language without a
// languageName.
package langmeta

import "strings"

// Meta describes language display metadata.
type Meta struct {
	// Name is the English name, used in prompts.
	Name string
	// Native is the endonym, used in operator-facing listings.
	Native string
}

// Registry contains canonical language metadata keyed by lower-case Hugo
// language key. Regional variants fall back to their base language in
// Resolve().
var Registry = map[string]Meta{
	"ar":    {Name: "Arabic", Native: "العربية"},
	"bg":    {Name: "Bulgarian", Native: "Български"},
	"cs":    {Name: "Czech", Native: "Čeština"},
	"da":    {Name: "Danish", Native: "Dansk"},
	"de":    {Name: "German", Native: "Deutsch"},
	"el":    {Name: "Greek", Native: "Ελληνικά"},
	"en":    {Name: "English", Native: "English"},
	"es":    {Name: "Spanish", Native: "Español"},
	"fa":    {Name: "Persian", Native: "فارسی"},
	"fi":    {Name: "Finnish", Native: "Suomi"},
	"fr":    {Name: "French", Native: "Français"},
	"he":    {Name: "Hebrew", Native: "עברית"},
	"hi":    {Name: "Hindi", Native: "हिन्दी"},
	"hu":    {Name: "Hungarian", Native: "Magyar"},
	"id":    {Name: "Indonesian", Native: "Bahasa Indonesia"},
	"it":    {Name: "Italian", Native: "Italiano"},
	"ja":    {Name: "Japanese", Native: "日本語"},
	"ko":    {Name: "Korean", Native: "한국어"},
	"nl":    {Name: "Dutch", Native: "Nederlands"},
	"no":    {Name: "Norwegian", Native: "Norsk"},
	"pl":    {Name: "Polish", Native: "Polski"},
	"pt":    {Name: "Portuguese", Native: "Português"},
	"pt-br": {Name: "Brazilian Portuguese", Native: "Português (Brasil)"},
	"ro":    {Name: "Romanian", Native: "Română"},
	"ru":    {Name: "Russian", Native: "Русский"},
	"sv":    {Name: "Swedish", Native: "Svenska"},
	"th":    {Name: "Thai", Native: "ไทย"},
	"tr":    {Name: "Turkish", Native: "Türkçe"},
	"uk":    {Name: "Ukrainian", Native: "Українська"},
	"vi":    {Name: "Vietnamese", Native: "Tiếng Việt"},
	"zh":    {Name: "Chinese", Native: "中文"},
	"zh-cn": {Name: "Simplified Chinese", Native: "简体中文"},
	"zh-tw": {Name: "Traditional Chinese", Native: "繁體中文"},
}

// canonicalize lower-cases a key and uses "-" as the region separator, the
// form Hugo uses for language keys.
func canonicalize(lang string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(lang), "_", "-"))
}

// Resolve returns metadata for a language key, trying the exact key, its
// canonical form and finally its base language. Unknown keys resolve to
// themselves.
func Resolve(lang string) (Meta, bool) {
	if m, ok := Registry[lang]; ok {
		return m, true
	}
	normalized := canonicalize(lang)
	if m, ok := Registry[normalized]; ok {
		return m, true
	}
	if base, _, found := strings.Cut(normalized, "-"); found {
		if m, ok := Registry[base]; ok {
			return m, true
		}
	}
	return Meta{Name: lang, Native: lang}, false
}

// Name returns the English display name for a language key, or the key
// itself when it is unknown.
func Name(lang string) string {
	m, _ := Resolve(lang)
	return m.Name
}
