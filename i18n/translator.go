// Package i18n provides string lookup for the console screens.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localesFS embed.FS

// DefaultLanguage is the fallback catalog.
const DefaultLanguage = "en"

// Translator resolves translation keys.
type Translator interface {
	// Translate returns the message for key with {{name}} placeholders
	// replaced from params.
	Translate(key string, params map[string]any) string
	// Language returns the active language tag.
	Language() string
}

// Catalog is a Translator backed by embedded YAML catalogs.
type Catalog struct {
	mu       sync.RWMutex
	lang     string
	messages map[string]map[string]string
}

// NewCatalog loads every embedded catalog and activates lang. An unknown
// language falls back to DefaultLanguage.
func NewCatalog(lang string) (*Catalog, error) {
	entries, err := localesFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("reading locales: %w", err)
	}

	c := &Catalog{messages: make(map[string]map[string]string)}
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".yaml") {
			continue
		}
		data, err := localesFS.ReadFile(path.Join("locales", name))
		if err != nil {
			return nil, fmt.Errorf("reading locale %s: %w", name, err)
		}
		var msgs map[string]string
		if err := yaml.Unmarshal(data, &msgs); err != nil {
			return nil, fmt.Errorf("parsing locale %s: %w", name, err)
		}
		c.messages[strings.TrimSuffix(name, ".yaml")] = msgs
	}

	c.SetLanguage(lang)
	return c, nil
}

// Languages returns the available catalog languages, sorted.
func (c *Catalog) Languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	langs := make([]string, 0, len(c.messages))
	for l := range c.messages {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// SetLanguage switches the active catalog, matching lang against the
// available ones.
func (c *Catalog) SetLanguage(lang string) {
	chosen := MatchLanguage(c.Languages(), lang)
	if chosen == "" {
		chosen = DefaultLanguage
	}
	c.mu.Lock()
	c.lang = chosen
	c.mu.Unlock()
}

// Language returns the active language.
func (c *Catalog) Language() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lang
}

// Translate looks key up in the active catalog, then DefaultLanguage, then
// returns key itself.
func (c *Catalog) Translate(key string, params map[string]any) string {
	c.mu.RLock()
	msg, ok := c.messages[c.lang][key]
	if !ok {
		msg, ok = c.messages[DefaultLanguage][key]
	}
	c.mu.RUnlock()
	if !ok {
		msg = key
	}
	return interpolate(msg, params)
}

func interpolate(msg string, params map[string]any) string {
	if len(params) == 0 || !strings.Contains(msg, "{{") {
		return msg
	}
	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, "{{"+k+"}}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// MatchLanguage picks the best entry of available for the preferred
// languages, in order. Preferred values may be BCP 47 tags or POSIX locales
// such as "fr_FR.UTF-8". It returns "" when available is empty.
func MatchLanguage(available []string, preferred ...string) string {
	if len(available) == 0 {
		return ""
	}
	tags := make([]language.Tag, 0, len(available))
	for _, a := range available {
		tags = append(tags, language.Make(a))
	}

	var want []language.Tag
	for _, p := range preferred {
		p = normalizeLocale(p)
		if p == "" {
			continue
		}
		t, err := language.Parse(p)
		if err != nil {
			continue
		}
		want = append(want, t)
	}
	if len(want) == 0 {
		return available[0]
	}

	_, idx, conf := language.NewMatcher(tags).Match(want...)
	if conf == language.No {
		return available[0]
	}
	return available[idx]
}

// normalizeLocale turns "fr_FR.UTF-8" into "fr-FR".
func normalizeLocale(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	if s == "C" || s == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(s, "_", "-")
}

// Static is a Translator over a fixed map, useful for tests.
type Static map[string]string

// Translate implements Translator.
func (s Static) Translate(key string, params map[string]any) string {
	msg, ok := s[key]
	if !ok {
		msg = key
	}
	return interpolate(msg, params)
}

// Language implements Translator.
func (s Static) Language() string { return DefaultLanguage }
