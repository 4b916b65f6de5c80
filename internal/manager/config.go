package manager

import (
	"time"

	"nllbd/pkg/types"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultMaxQueueDepth = 32
	defaultMaxInflight   = 4
	defaultMaxWait       = 30 * time.Second
	defaultLang          = "eng_Latn"
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	Translator Translator
	// Languages normalises request tags; nil keeps tags as sent.
	Languages   LanguageNormalizer
	DefaultLang string
	// Informational, surfaced by Status.
	ModelID     string
	ArtifactDir string
	Engine      string

	MaxQueueDepth int
	MaxInflight   int
	MaxWait       time.Duration
	Publisher     EventPublisher
}

// NewWithConfig constructs a Manager from ManagerConfig. The manager starts in
// the starting state and reports NOT_SERVING until MarkServing.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		translator:  cfg.Translator,
		languages:   cfg.Languages,
		defaultLang: cfg.DefaultLang,
		modelID:     cfg.ModelID,
		artifactDir: cfg.ArtifactDir,
		engine:      cfg.Engine,
		publisher:   cfg.Publisher,
		startTime:   time.Now(),
	}
	m.state.Store(types.StateStarting)
	// Apply defaults if unset
	if m.languages == nil {
		m.languages = identityNormalizer{}
	}
	if m.defaultLang == "" {
		m.defaultLang = defaultLang
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	if cfg.MaxQueueDepth <= 0 {
		m.maxQueueDepth = defaultMaxQueueDepth
	} else {
		m.maxQueueDepth = cfg.MaxQueueDepth
	}
	if cfg.MaxInflight <= 0 {
		m.maxInflight = defaultMaxInflight
	} else {
		m.maxInflight = cfg.MaxInflight
	}
	if m.maxInflight > m.maxQueueDepth {
		m.maxInflight = m.maxQueueDepth
	}
	if cfg.MaxWait <= 0 {
		m.maxWait = defaultMaxWait
	} else {
		m.maxWait = cfg.MaxWait
	}
	m.queueCh = make(chan struct{}, m.maxQueueDepth)
	m.genCh = make(chan struct{}, m.maxInflight)
	return m
}
