package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"nllbd/internal/common/fsutil"
)

// aliasFile is the on-disk shape of an alias override file:
//
//	languages:
//	  pt-br: por_Latn
//	  zh-tw: zho_Hant
type aliasFile struct {
	Languages map[string]string `json:"languages" yaml:"languages" toml:"languages"`
}

// LoadFile reads extra aliases from a yaml, json or toml file.
func LoadFile(path string) (map[string]string, error) {
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read languages file: %w", err)
	}
	var f aliasFile
	switch ext := strings.ToLower(filepath.Ext(p)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &f)
	case ".json":
		err = json.Unmarshal(b, &f)
	case ".toml":
		err = toml.Unmarshal(b, &f)
	default:
		return nil, fmt.Errorf("unsupported languages file extension: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse languages file: %w", err)
	}
	for k, v := range f.Languages {
		if !IsFlores(strings.TrimSpace(v)) {
			return nil, fmt.Errorf("alias %q: %q is not a FLORES-200 tag", k, v)
		}
	}
	return f.Languages, nil
}

// NewFromFile returns the built-in registry extended with the aliases in path.
// An empty path yields the built-in table.
func NewFromFile(path string) (*Registry, error) {
	r := New()
	if path == "" {
		return r, nil
	}
	extra, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	r.Add(extra)
	return r, nil
}
