package registry

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"nllbd/pkg/types"
)

var floresRe = regexp.MustCompile(`^[a-z]{3}_[A-Z][a-z]{3}$`)

// IsFlores reports whether tag has the FLORES-200 shape, e.g. fra_Latn.
func IsFlores(tag string) bool { return floresRe.MatchString(tag) }

// builtin maps ISO 639-1 codes to the FLORES-200 tags NLLB expects.
var builtin = map[string]string{
	"am": "amh_Ethi",
	"ar": "arb_Arab",
	"de": "deu_Latn",
	"en": "eng_Latn",
	"es": "spa_Latn",
	"fr": "fra_Latn",
	"ga": "gle_Latn",
	"ha": "hau_Latn",
	"hi": "hin_Deva",
	"ig": "ibo_Latn",
	"ja": "jpn_Jpan",
	"ko": "kor_Hang",
	"lg": "lug_Latn",
	"ln": "lin_Latn",
	"pt": "por_Latn",
	"ru": "rus_Cyrl",
	"rw": "kin_Latn",
	"sn": "sna_Latn",
	"so": "som_Latn",
	"sw": "swh_Latn",
	"th": "tha_Thai",
	"ti": "tir_Ethi",
	"tr": "tur_Latn",
	"uk": "ukr_Cyrl",
	"vi": "vie_Latn",
	"wo": "wol_Latn",
	"xh": "xho_Latn",
	"yo": "yor_Latn",
	"zh": "zho_Hans",
	"zu": "zul_Latn",
}

// Registry resolves language aliases. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	aliases map[string]string
}

// New returns a registry seeded with the built-in ISO 639-1 table.
func New() *Registry {
	r := &Registry{aliases: make(map[string]string, len(builtin))}
	for k, v := range builtin {
		r.aliases[k] = v
	}
	return r
}

// Add registers or overrides aliases. Keys are matched case-insensitively.
func (r *Registry) Add(aliases map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range aliases {
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		r.aliases[k] = v
	}
}

// Normalize maps a known alias to its FLORES-200 tag. FLORES tags and unknown
// values are returned unchanged; the engine decides whether they are valid.
// Regional variants such as "pt-BR" resolve through their primary subtag.
func (r *Registry) Normalize(tag string) string {
	t := strings.TrimSpace(tag)
	if t == "" || IsFlores(t) {
		return t
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := strings.ToLower(t)
	if v, ok := r.aliases[key]; ok {
		return v
	}
	if i := strings.IndexAny(key, "-_"); i > 0 {
		if v, ok := r.aliases[key[:i]]; ok {
			return v
		}
	}
	return tag
}

// List returns all aliases sorted by ISO code.
func (r *Registry) List() []types.Language {
	r.mu.RLock()
	out := make([]types.Language, 0, len(r.aliases))
	for k, v := range r.aliases {
		out = append(out, types.Language{ISO: k, Flores: v})
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ISO < out[j].ISO })
	return out
}
