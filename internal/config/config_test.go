package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OFFIS-RIT/textgraph/pkg/export"
)

func noEnvFile(t *testing.T) Options {
	t.Helper()
	return Options{EnvFiles: []string{filepath.Join(t.TempDir(), "missing.env")}}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, 100000, cfg.Chunk.MaxTokens)
	assert.Equal(t, 200, cfg.Chunk.Overlap)
	assert.Equal(t, []int{1, 2}, cfg.Chunk.HeadingLevels)
	assert.Equal(t, "gpt-4", cfg.Chunk.EncodingModel)
	assert.Equal(t, "knowledge_graph", cfg.Export.BaseName)
	assert.Equal(t, ".", cfg.Export.OutputDir)
	assert.Equal(t, export.DefaultTargets, cfg.Targets())
	assert.Equal(t, "openai", cfg.AI.Adapter)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Nil(t, cfg.AI.Temperature)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("TEXTGRAPH_CHUNK_MAX_TOKENS", "500")
	t.Setenv("TEXTGRAPH_CHUNK_HEADINGS", "1,3")
	t.Setenv("TEXTGRAPH_EXPORT_TARGETS", "json,csv")
	t.Setenv("AI_ADAPTER", "ollama")
	t.Setenv("AI_CHAT_EXTRACT_MODEL", "llama3")
	t.Setenv("AWS_BUCKET", "graphs")
	t.Setenv("PORT", "9090")
	t.Setenv("DEBUG", "true")

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Chunk.MaxTokens)
	assert.Equal(t, []int{1, 3}, cfg.Chunk.HeadingLevels)
	assert.Equal(t, []export.Target{export.TargetJSON, export.TargetCSV}, cfg.Targets())
	assert.Equal(t, "ollama", cfg.AI.Adapter)
	assert.Equal(t, "llama3", cfg.AI.Model)
	assert.Equal(t, "graphs", cfg.Export.S3Bucket)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Debug)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TEXTGRAPH_EXPORT_BASE_NAME=from_env_file\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("TEXTGRAPH_EXPORT_BASE_NAME") })

	cfg, err := Load(Options{EnvFiles: []string{path}})
	require.NoError(t, err)
	assert.Equal(t, "from_env_file", cfg.Export.BaseName)
}

func TestLoadConfigFileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "textgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
chunk:
  max_tokens: 2000
  overlap: 50
export:
  base_name: report
  output_dir: /tmp/graphs
`), 0o644))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("max-tokens", 0, "")
	flags.StringSlice("targets", nil, "")
	require.NoError(t, flags.Parse([]string{"--max-tokens", "3000", "--targets", "gml,summary"}))

	opts := noEnvFile(t)
	opts.ConfigFile = path
	opts.Flags = flags
	cfg, err := Load(opts)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Chunk.MaxTokens)
	assert.Equal(t, 50, cfg.Chunk.Overlap)
	assert.Equal(t, "report", cfg.Export.BaseName)
	assert.Equal(t, "/tmp/graphs", cfg.Export.OutputDir)
	assert.Equal(t, []export.Target{export.TargetGML, export.TargetSummary}, cfg.Targets())
}

func TestLoadMissingExplicitConfigFile(t *testing.T) {
	opts := noEnvFile(t)
	opts.ConfigFile = filepath.Join(t.TempDir(), "nope.yaml")
	_, err := Load(opts)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		errMsg string
	}{
		{name: "zero max tokens", env: map[string]string{"TEXTGRAPH_CHUNK_MAX_TOKENS": "0"}, errMsg: "MaxTokens"},
		{name: "negative overlap", env: map[string]string{"TEXTGRAPH_CHUNK_OVERLAP": "-1"}, errMsg: "Overlap"},
		{
			name:   "overlap beyond budget",
			env:    map[string]string{"TEXTGRAPH_CHUNK_MAX_TOKENS": "10", "TEXTGRAPH_CHUNK_OVERLAP": "40"},
			errMsg: "overlap 40",
		},
		{name: "heading level", env: map[string]string{"TEXTGRAPH_CHUNK_HEADINGS": "1,5"}, errMsg: "HeadingLevels"},
		{name: "adapter", env: map[string]string{"AI_ADAPTER": "gemini"}, errMsg: "Adapter"},
		{name: "target", env: map[string]string{"TEXTGRAPH_EXPORT_TARGETS": "pdf"}, errMsg: "pdf"},
		{name: "port", env: map[string]string{"PORT": "http"}, errMsg: "Port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(noEnvFile(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestRabbitMQURL(t *testing.T) {
	c := RabbitMQConfig{User: "u", Password: "p", Host: "mq", Port: "5672"}
	assert.Equal(t, "amqp://u:p@mq:5672/", c.URL())
}
