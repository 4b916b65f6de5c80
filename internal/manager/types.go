package manager

import (
	"context"

	"nllbd/pkg/types"
)

// Translator is the engine-facing collaborator. Implementations must return
// exactly len(sources) results in input order.
type Translator interface {
	TranslateBatch(ctx context.Context, sources []string, srcLang, tgtLang string) ([]string, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(ctx context.Context, sources []string, srcLang, tgtLang string) ([]string, error)

func (f TranslatorFunc) TranslateBatch(ctx context.Context, sources []string, srcLang, tgtLang string) ([]string, error) {
	return f(ctx, sources, srcLang, tgtLang)
}

// LanguageNormalizer maps accepted aliases to engine language tags.
type LanguageNormalizer interface {
	Normalize(tag string) string
}

type identityNormalizer struct{}

func (identityNormalizer) Normalize(tag string) string { return tag }

// languageLister is implemented by normalizers that can enumerate aliases.
type languageLister interface {
	List() []types.Language
}
