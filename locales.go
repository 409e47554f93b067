package galengine

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Locale is a validated site locale. Message lookups are a plain mapping
// keyed by this enum, loaded once at startup; there is no dynamic per-locale
// loading at request time.
type Locale string

const (
	LocaleFR Locale = "fr"
	LocaleEN Locale = "en"
	LocaleNL Locale = "nl"
)

// DefaultLocale is used when no locale matches.
const DefaultLocale = LocaleEN

// SupportedLocales lists every locale a catalog exists for.
var SupportedLocales = []Locale{LocaleFR, LocaleEN, LocaleNL}

// ErrUnsupportedLocale is returned for locale codes outside SupportedLocales.
var ErrUnsupportedLocale = errors.New("unsupported locale")

// ParseLocale validates a locale code.
func ParseLocale(code string) (Locale, error) {
	for _, l := range SupportedLocales {
		if string(l) == code {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedLocale, code)
}

// LocaleCatalog holds the merged message tables: embedded defaults with
// store-backed admin overrides on top. Reload swaps the tables atomically
// after a translation save.
type LocaleCatalog struct {
	mu       sync.RWMutex
	messages map[Locale]map[string]string
	store    *Store
}

// LoadLocaleCatalog parses the embedded catalogs for every supported locale
// and merges the overrides stored in s. A malformed embedded catalog is a
// build defect and fails loudly.
func LoadLocaleCatalog(s *Store) (*LocaleCatalog, error) {
	c := &LocaleCatalog{store: s}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload rebuilds the merged tables from the embedded defaults and the
// current store overrides.
func (c *LocaleCatalog) Reload() error {
	merged := make(map[Locale]map[string]string, len(SupportedLocales))
	for _, locale := range SupportedLocales {
		data, err := embeddedLocales.ReadFile(fmt.Sprintf("locales/%s.json", locale))
		if err != nil {
			return fmt.Errorf("embedded catalog %s: %w", locale, err)
		}
		var messages map[string]string
		if err := json.Unmarshal(data, &messages); err != nil {
			return fmt.Errorf("embedded catalog %s: %w", locale, err)
		}
		merged[locale] = messages
	}

	if c.store != nil {
		overrides, err := c.store.ListTranslations("")
		if err != nil {
			return fmt.Errorf("translation overrides: %w", err)
		}
		for _, t := range overrides {
			locale, err := ParseLocale(t.Locale)
			if err != nil {
				continue // stale row for a removed locale
			}
			merged[locale][t.Key] = t.Value
		}
	}

	c.mu.Lock()
	c.messages = merged
	c.mu.Unlock()
	return nil
}

// Messages returns the merged message table for locale. The returned map is
// shared and must not be mutated.
func (c *LocaleCatalog) Messages(locale Locale) (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	messages, ok := c.messages[locale]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLocale, locale)
	}
	return messages, nil
}
