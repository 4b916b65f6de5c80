package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service. Fields left out of a
// config file keep whatever value the struct had before loading, so callers
// start from Defaults() and layer the file and environment on top.
type Config struct {
	ModelID  string `env:"NLLB_MODEL" json:"model_id" yaml:"model_id" toml:"model_id" validate:"required"`
	CacheDir string `env:"NLLB_CACHE_DIR" json:"cache_dir" yaml:"cache_dir" toml:"cache_dir" validate:"required"`

	Host      string `env:"HOST" json:"host" yaml:"host" toml:"host"`
	Port      int    `env:"PORT" json:"port" yaml:"port" toml:"port" validate:"min=0,max=65535"`
	Transport string `env:"NLLB_TRANSPORT" json:"transport" yaml:"transport" toml:"transport" validate:"oneof=http grpc"`
	APIKey    string `env:"NLLB_API_KEY" json:"api_key" yaml:"api_key" toml:"api_key"`

	Engine      string `env:"NLLB_ENGINE" json:"engine" yaml:"engine" toml:"engine" validate:"oneof=remote onnx"`
	EngineURL   string `env:"NLLB_ENGINE_URL" json:"engine_url" yaml:"engine_url" toml:"engine_url" validate:"omitempty,url"`
	ONNXLibrary string `env:"NLLB_ONNX_LIBRARY" json:"onnx_library" yaml:"onnx_library" toml:"onnx_library"`

	// EngineTimeout bounds each call to the remote worker; zero disables it.
	EngineTimeout      Duration `env:"NLLB_ENGINE_TIMEOUT" json:"engine_timeout" yaml:"engine_timeout" toml:"engine_timeout" validate:"gte=0"`
	EngineReadyTimeout Duration `env:"NLLB_ENGINE_READY_TIMEOUT" json:"engine_ready_timeout" yaml:"engine_ready_timeout" toml:"engine_ready_timeout" validate:"gt=0"`

	Device       string `env:"NLLB_DEVICE" json:"device" yaml:"device" toml:"device" validate:"oneof=cpu cuda auto"`
	ComputeType  string `env:"NLLB_COMPUTE_TYPE" json:"compute_type" yaml:"compute_type" toml:"compute_type" validate:"oneof=default auto int8 int8_float32 int8_float16 int8_bfloat16 int16 float16 bfloat16 float32"`
	IntraThreads int    `env:"NLLB_INTRA_THREADS" json:"intra_threads" yaml:"intra_threads" toml:"intra_threads" validate:"min=0"`
	InterThreads int    `env:"NLLB_INTER_THREADS" json:"inter_threads" yaml:"inter_threads" toml:"inter_threads" validate:"min=1"`

	DefaultLang       string `env:"NLLB_DEFAULT_LANG" json:"default_lang" yaml:"default_lang" toml:"default_lang" validate:"required"`
	LanguagesFile     string `env:"NLLB_LANGUAGES_FILE" json:"languages_file" yaml:"languages_file" toml:"languages_file"`
	MaxBatchSize      int    `env:"NLLB_MAX_BATCH_SIZE" json:"max_batch_size" yaml:"max_batch_size" toml:"max_batch_size" validate:"min=1"`
	MaxInputLength    int    `env:"NLLB_MAX_INPUT_LENGTH" json:"max_input_length" yaml:"max_input_length" toml:"max_input_length" validate:"min=2"`
	MaxDecodingLength int    `env:"NLLB_MAX_DECODING_LENGTH" json:"max_decoding_length" yaml:"max_decoding_length" toml:"max_decoding_length" validate:"min=1"`
	BeamSize          int    `env:"NLLB_BEAM_SIZE" json:"beam_size" yaml:"beam_size" toml:"beam_size" validate:"min=1"`

	MaxQueueDepth int      `env:"NLLB_MAX_QUEUE_DEPTH" json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth" validate:"min=1"`
	MaxInflight   int      `env:"NLLB_MAX_INFLIGHT" json:"max_inflight" yaml:"max_inflight" toml:"max_inflight" validate:"min=1"`
	MaxWait       Duration `env:"NLLB_MAX_WAIT" json:"max_wait" yaml:"max_wait" toml:"max_wait" validate:"gt=0"`
	DrainTimeout  Duration `env:"NLLB_DRAIN_TIMEOUT" json:"drain_timeout" yaml:"drain_timeout" toml:"drain_timeout" validate:"gt=0"`

	// TranslateTimeout caps one HTTP /translate call; zero means no cap.
	TranslateTimeout Duration `env:"NLLB_TRANSLATE_TIMEOUT" json:"translate_timeout" yaml:"translate_timeout" toml:"translate_timeout" validate:"gte=0"`
	MaxBodyBytes     int64    `env:"NLLB_MAX_BODY_BYTES" json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes" validate:"min=1"`

	ReclaimSource  bool     `env:"NLLB_RECLAIM_SOURCE" json:"reclaim_source" yaml:"reclaim_source" toml:"reclaim_source"`
	ConvertCommand []string `env:"NLLB_CONVERT_COMMAND" envSeparator:" " json:"convert_command" yaml:"convert_command" toml:"convert_command"`

	LogLevel    string   `env:"NLLB_LOG_LEVEL" json:"log_level" yaml:"log_level" toml:"log_level" validate:"oneof=trace debug info warn error"`
	LogFormat   string   `env:"NLLB_LOG_FORMAT" json:"log_format" yaml:"log_format" toml:"log_format" validate:"oneof=json console"`
	CORSOrigins []string `env:"NLLB_CORS_ORIGINS" json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	err := LoadInto(path, &cfg)
	return cfg, err
}

// LoadInto decodes the file at path over cfg.
func LoadInto(path string, cfg *Config) error {
	if path == "" {
		return fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	case ".json":
		return json.Unmarshal(b, cfg)
	case ".toml":
		return toml.Unmarshal(b, cfg)
	default:
		return fmt.Errorf("unsupported config extension: %s", ext)
	}
}

// Resolve builds the effective configuration: defaults, then the optional
// file, then the environment. The result is not validated.
func Resolve(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		if err := LoadInto(path, &cfg); err != nil {
			return cfg, fmt.Errorf("config file %s: %w", path, err)
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
