package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// UPLOAD_WHISPER_SERVER_PORT.
const EnvPrefix = "UPLOAD_WHISPER"

// DefaultMaxUploadBytes is the largest request body accepted (100 MiB).
const DefaultMaxUploadBytes int64 = 100 * 1024 * 1024

const (
	BackendWhisperCpp = "whisper_cpp"
	BackendOpenAI     = "openai"
	BackendServer     = "whisper_server"
)

// Config is the complete service configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	Upload      UploadConfig      `mapstructure:"upload" yaml:"upload"`
	FFmpeg      FFmpegConfig      `mapstructure:"ffmpeg" yaml:"ffmpeg"`
	Transcriber TranscriberConfig `mapstructure:"transcriber" yaml:"transcriber"`
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host" yaml:"host" validate:"required"`
	Port         int           `mapstructure:"port" yaml:"port" validate:"min=1,max=65535"`
	Environment  string        `mapstructure:"environment" yaml:"environment" validate:"oneof=development production"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"min=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"min=0"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" validate:"min=0"`
	CORSOrigins  []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
}

type UploadConfig struct {
	Dir      string `mapstructure:"dir" yaml:"dir" validate:"required"`
	TempDir  string `mapstructure:"temp_dir" yaml:"temp_dir"`
	MaxBytes int64  `mapstructure:"max_bytes" yaml:"max_bytes" validate:"gt=0"`
	// UniqueNames prefixes stored uploads with a request-scoped UUID so that
	// concurrent uploads sharing a client filename do not overwrite each other.
	UniqueNames bool `mapstructure:"unique_names" yaml:"unique_names"`
}

type FFmpegConfig struct {
	Path string `mapstructure:"path" yaml:"path" validate:"required"`
}

// TranscriberConfig selects and configures the speech-to-text backend.
type TranscriberConfig struct {
	Backend  string `mapstructure:"backend" yaml:"backend" validate:"oneof=whisper_cpp openai whisper_server"`
	Language string `mapstructure:"language" yaml:"language" validate:"required"`

	// whisper.cpp
	BinaryPath string `mapstructure:"binary_path" yaml:"binary_path"`
	Model      string `mapstructure:"model" yaml:"model"`
	ModelPath  string `mapstructure:"model_path" yaml:"model_path"`
	ModelsDir  string `mapstructure:"models_dir" yaml:"models_dir"`

	// OpenAI
	OpenAIAPIKey  string `mapstructure:"openai_api_key" yaml:"openai_api_key"`
	OpenAIBaseURL string `mapstructure:"openai_base_url" yaml:"openai_base_url" validate:"omitempty,url"`
	OpenAIModel   string `mapstructure:"openai_model" yaml:"openai_model"`

	// whisper.cpp server
	ServerURL           string        `mapstructure:"server_url" yaml:"server_url" validate:"omitempty,url"`
	ServerInferencePath string        `mapstructure:"server_inference_path" yaml:"server_inference_path"`
	ServerTimeout       time.Duration `mapstructure:"server_timeout" yaml:"server_timeout" validate:"min=0"`
}

type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.read_timeout", 0)
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.idle_timeout", 2*time.Minute)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.temp_dir", "")
	v.SetDefault("upload.max_bytes", DefaultMaxUploadBytes)
	v.SetDefault("upload.unique_names", false)

	v.SetDefault("ffmpeg.path", "ffmpeg")

	v.SetDefault("transcriber.backend", BackendWhisperCpp)
	v.SetDefault("transcriber.language", "en")
	v.SetDefault("transcriber.binary_path", "whisper-cli")
	v.SetDefault("transcriber.model", "base")
	v.SetDefault("transcriber.model_path", "")
	v.SetDefault("transcriber.models_dir", "models")
	v.SetDefault("transcriber.openai_api_key", "")
	v.SetDefault("transcriber.openai_base_url", "")
	v.SetDefault("transcriber.openai_model", "whisper-1")
	v.SetDefault("transcriber.server_url", "")
	v.SetDefault("transcriber.server_inference_path", "/inference")
	v.SetDefault("transcriber.server_timeout", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", true)
}

// legacyEnv maps config keys to the bare variable names used by existing
// deployments.
var legacyEnv = map[string]string{
	"server.port":                "PORT",
	"transcriber.openai_api_key": "OPENAI_API_KEY",
	"transcriber.binary_path":    "WHISPER_CPP_BINARY",
	"transcriber.model_path":     "WHISPER_CPP_MODEL",
	"transcriber.server_url":     "WHISPER_SERVER_URL",
}

// Load builds the configuration from defaults, the optional YAML file at
// path, and environment variables (after loading any .env file).
func Load(path string) (*Config, error) {
	if _, err := LoadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the struct tags on every section.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Redacted returns a copy that is safe to print.
func (c Config) Redacted() Config {
	if key := c.Transcriber.OpenAIAPIKey; key != "" {
		if len(key) > 8 {
			c.Transcriber.OpenAIAPIKey = key[:3] + strings.Repeat("*", len(key)-7) + key[len(key)-4:]
		} else {
			c.Transcriber.OpenAIAPIKey = "****"
		}
	}
	c.Server.CORSOrigins = append([]string(nil), c.Server.CORSOrigins...)
	return c
}
