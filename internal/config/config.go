// Package config resolves the settings of the textgraph binaries.
//
// Values are read, lowest precedence first, from defaults, an optional
// textgraph.yaml or textgraph.toml, the environment and command line flags.
// A .env file in the working directory is loaded into the environment
// first.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/textgraph/internal/util"
	"github.com/OFFIS-RIT/textgraph/pkg/chunk"
	"github.com/OFFIS-RIT/textgraph/pkg/export"
	"github.com/OFFIS-RIT/textgraph/pkg/logger"

	"github.com/go-playground/validator"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable derived from a key, e.g.
// TEXTGRAPH_CHUNK_MAX_TOKENS for chunk.max_tokens.
const EnvPrefix = "TEXTGRAPH"

type ChunkConfig struct {
	MaxTokens     int    `mapstructure:"max_tokens" validate:"gt=0"`
	Overlap       int    `mapstructure:"overlap" validate:"gte=0"`
	HeadingLevels []int  `mapstructure:"headings" validate:"dive,min=1,max=4"`
	EncodingModel string `mapstructure:"encoding" validate:"required"`
}

type ExportConfig struct {
	Targets   []string `mapstructure:"targets"`
	BaseName  string   `mapstructure:"base_name" validate:"required,excludesall=/\\"`
	OutputDir string   `mapstructure:"output_dir" validate:"required"`
	S3Bucket  string   `mapstructure:"s3_bucket"`
	S3Prefix  string   `mapstructure:"s3_prefix"`
}

type AIConfig struct {
	Adapter     string   `mapstructure:"adapter" validate:"oneof=openai ollama anthropic"`
	Model       string   `mapstructure:"model"`
	URL         string   `mapstructure:"url"`
	Key         string   `mapstructure:"key"`
	MaxRetries  int      `mapstructure:"max_retries" validate:"gte=0"`
	Temperature *float64 `mapstructure:"temperature" validate:"omitempty,gte=0,lte=2"`
	NodeTypes   []string `mapstructure:"node_types"`
	Parallel    int64    `mapstructure:"parallel" validate:"gt=0"`
}

type AWSConfig struct {
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
}

type RabbitMQConfig struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
}

// URL returns the AMQP connection URL.
func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.User, c.Password, c.Host, c.Port)
}

type ServerConfig struct {
	Port      string `mapstructure:"port" validate:"required,numeric"`
	APIKey    string `mapstructure:"api_key"`
	BodyLimit string `mapstructure:"body_limit"`
}

// Config holds every setting.
type Config struct {
	Chunk    ChunkConfig    `mapstructure:"chunk"`
	Export   ExportConfig   `mapstructure:"export"`
	AI       AIConfig       `mapstructure:"ai"`
	AWS      AWSConfig      `mapstructure:"aws"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Server   ServerConfig   `mapstructure:"server"`
	Debug    bool           `mapstructure:"debug"`
	LogFile  string         `mapstructure:"log_file"`
}

var defaults = map[string]any{
	"chunk.max_tokens":  chunk.DefaultMaxTokens,
	"chunk.overlap":     chunk.DefaultOverlap,
	"chunk.headings":    chunk.DefaultHeadingLevels,
	"chunk.encoding":    chunk.DefaultEncodingModel,
	"export.targets":    targetNames(export.DefaultTargets),
	"export.base_name":  export.DefaultBaseName,
	"export.output_dir": ".",
	"export.s3_bucket":  "",
	"export.s3_prefix":  "",
	"ai.adapter":        "openai",
	"ai.model":          "",
	"ai.url":            "",
	"ai.key":            "",
	"ai.max_retries":    2,
	"ai.temperature":    nil,
	"ai.node_types":     []string{},
	"ai.parallel":       15,
	"aws.region":        "us-east-1",
	"aws.endpoint":      "",
	"aws.access_key":    "",
	"aws.secret_key":    "",
	"aws.bucket":        "",
	"rabbitmq.user":     "guest",
	"rabbitmq.password": "guest",
	"rabbitmq.host":     "localhost",
	"rabbitmq.port":     "5672",
	"server.port":       "8080",
	"server.api_key":    "",
	"server.body_limit": "32M",
	"debug":             false,
	"log_file":          "",
}

// Unprefixed variables shared with other deployments.
var envAliases = map[string][]string{
	"ai.adapter":        {"AI_ADAPTER"},
	"ai.model":          {"AI_CHAT_EXTRACT_MODEL"},
	"ai.url":            {"AI_CHAT_URL"},
	"ai.key":            {"AI_CHAT_KEY"},
	"ai.parallel":       {"AI_PARALLEL_REQ"},
	"aws.region":        {"AWS_REGION"},
	"aws.endpoint":      {"AWS_ENDPOINT"},
	"aws.access_key":    {"AWS_ACCESS_KEY"},
	"aws.secret_key":    {"AWS_SECRET_KEY"},
	"aws.bucket":        {"AWS_BUCKET"},
	"rabbitmq.user":     {"RABBITMQ_USER"},
	"rabbitmq.password": {"RABBITMQ_PASSWORD"},
	"rabbitmq.host":     {"RABBITMQ_HOST"},
	"rabbitmq.port":     {"RABBITMQ_PORT"},
	"server.port":       {"PORT"},
	"server.api_key":    {"MASTER_API_KEY"},
	"debug":             {"DEBUG"},
	"log_file":          {"LOG_FILE"},
}

// FlagKeys maps command line flag names to configuration keys.
var FlagKeys = map[string]string{
	"max-tokens": "chunk.max_tokens",
	"overlap":    "chunk.overlap",
	"headings":   "chunk.headings",
	"encoding":   "chunk.encoding",
	"targets":    "export.targets",
	"base":       "export.base_name",
	"out":        "export.output_dir",
	"s3-bucket":  "export.s3_bucket",
	"adapter":    "ai.adapter",
	"model":      "ai.model",
	"port":       "server.port",
	"debug":      "debug",
}

func targetNames(targets []export.Target) []string {
	out := make([]string, len(targets))
	for i, t := range targets {
		out[i] = string(t)
	}
	return out
}

// Options tunes Load. EnvFiles are loaded instead of ./.env. ConfigFile
// overrides the TEXTGRAPH_CONFIG variable and the search for
// textgraph.{yaml,toml} in the working directory.
type Options struct {
	Flags      *pflag.FlagSet
	EnvFiles   []string
	ConfigFile string
}

// Load resolves and validates the configuration.
func Load(opts Options) (*Config, error) {
	util.LoadEnv(opts.EnvFiles...)

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, err
		}
	}

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = util.GetEnv(EnvPrefix + "_CONFIG")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("textgraph")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		logger.Debug("[Config] No config file found, using defaults and environment")
	}

	if opts.Flags != nil {
		for name, key := range FlagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Export.S3Bucket == "" {
		cfg.Export.S3Bucket = cfg.AWS.Bucket
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks field ranges and the constraints between fields.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Chunk.Overlap >= c.Chunk.MaxTokens*chunk.CharsPerToken {
		return fmt.Errorf(
			"invalid config: overlap %d must be smaller than %d characters",
			c.Chunk.Overlap, c.Chunk.MaxTokens*chunk.CharsPerToken,
		)
	}
	if _, err := export.ParseTargets(c.Export.Targets); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Targets returns the parsed export targets.
func (c *Config) Targets() []export.Target {
	targets, _ := export.ParseTargets(c.Export.Targets)
	return targets
}
