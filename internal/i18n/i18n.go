// internal/i18n/i18n.go
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

const (
	LangEnglish = "en"
	LangArabic  = "ar"

	DirLTR = "ltr"
	DirRTL = "rtl"
)

type I18n struct {
	mu           sync.RWMutex
	translations map[string]map[string]string
	defaultLang  string
}

var instance *I18n
var once sync.Once

var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Arabic,
})

func Initialize(defaultLang string) error {
	var err error
	once.Do(func() {
		instance = New(defaultLang)
		err = instance.LoadTranslations()
	})
	return err
}

func New(defaultLang string) *I18n {
	if defaultLang == "" {
		defaultLang = LangEnglish
	}
	return &I18n{
		translations: make(map[string]map[string]string),
		defaultLang:  defaultLang,
	}
}

func (i *I18n) LoadTranslations() error {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return fmt.Errorf("failed to list locales: %w", err)
	}

	for _, entry := range entries {
		lang := strings.TrimSuffix(entry.Name(), ".json")
		filePath := path.Join("locales", entry.Name())

		data, err := localeFS.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("failed to read locale file %s: %w", filePath, err)
		}

		var translations map[string]string
		if err := json.Unmarshal(data, &translations); err != nil {
			return fmt.Errorf("failed to unmarshal locale file %s: %w", filePath, err)
		}

		i.mu.Lock()
		i.translations[lang] = translations
		i.mu.Unlock()
	}

	return nil
}

func (i *I18n) T(lang, key string, args ...interface{}) string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	lang = Normalize(lang)

	if translations, exists := i.translations[lang]; exists {
		if text, exists := translations[key]; exists {
			if len(args) > 0 {
				return fmt.Sprintf(text, args...)
			}
			return text
		}
	}

	// Fallback to default language
	if lang != i.defaultLang {
		if translations, exists := i.translations[i.defaultLang]; exists {
			if text, exists := translations[key]; exists {
				if len(args) > 0 {
					return fmt.Sprintf(text, args...)
				}
				return text
			}
		}
	}

	return key
}

// Global functions
func T(lang, key string, args ...interface{}) string {
	// No-op after the first call; tests and tools that never initialized still get real strings.
	_ = Initialize(LangEnglish)
	if instance != nil {
		return instance.T(lang, key, args...)
	}
	return key
}

// Normalize maps any language tag or Accept-Language value onto a supported storefront locale.
func Normalize(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == LangEnglish || lang == LangArabic {
		return lang
	}
	if lang == "" {
		return LangEnglish
	}

	tags, _, err := language.ParseAcceptLanguage(lang)
	if err != nil || len(tags) == 0 {
		return LangEnglish
	}

	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return LangEnglish
	}
	if index == 1 {
		return LangArabic
	}
	return LangEnglish
}

// Direction returns the text direction of a locale.
func Direction(lang string) string {
	if Normalize(lang) == LangArabic {
		return DirRTL
	}
	return DirLTR
}

func IsArabic(lang string) bool {
	return Normalize(lang) == LangArabic
}

func GetSupportedLanguages() []string {
	if instance == nil {
		return []string{LangEnglish}
	}

	instance.mu.RLock()
	defer instance.mu.RUnlock()

	langs := make([]string, 0, len(instance.translations))
	for lang := range instance.translations {
		langs = append(langs, lang)
	}
	return langs
}
