package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// Translator resolves user-facing strings for one language.
type Translator struct {
	translations map[string]string
}

func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	filePath := filepath.Join("locales", fmt.Sprintf("%s.yaml", langCode))

	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
	}

	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}

	return &Translator{translations: translations}, nil
}

// T returns the translation for key, formatted with args. Unknown keys come
// back as the key itself so a missing entry never blanks out a message.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// Bundle holds one Translator per shipped language and falls back to
// English for languages it does not carry.
type Bundle struct {
	byLang map[string]*Translator
}

func NewBundle(fsys fs.FS, langCodes ...string) (*Bundle, error) {
	byLang := make(map[string]*Translator, len(langCodes))
	for _, code := range langCodes {
		tr, err := NewTranslator(fsys, code)
		if err != nil {
			return nil, err
		}
		byLang[code] = tr
	}
	if _, ok := byLang["en"]; !ok {
		return nil, fmt.Errorf("bundle must include the en fallback locale")
	}
	return &Bundle{byLang: byLang}, nil
}

func (b *Bundle) For(langCode string) *Translator {
	if tr, ok := b.byLang[langCode]; ok {
		return tr
	}
	return b.byLang["en"]
}
