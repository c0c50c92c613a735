package llmclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New(Config{Backend: "skynet"})
	assert.Error(t, err)
}

func TestNewOllamaDefaults(t *testing.T) {
	c, err := New(Config{Backend: "ollama"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", c.Backend())
	assert.Equal(t, ollamaDefault, c.model)
	// Without a dedicated vision model the text model does double duty.
	assert.Equal(t, c.model, c.visionModel)
}

func TestNewBackendNameNormalized(t *testing.T) {
	c, err := New(Config{Backend: "  Ollama ", Model: "mistral", VisionModel: "llava"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", c.Backend())
	assert.Equal(t, "mistral", c.model)
	assert.Equal(t, "llava", c.visionModel)
}

func TestJSONFormat(t *testing.T) {
	raw, err := jsonFormat(nil)
	require.NoError(t, err)
	assert.Equal(t, `"json"`, string(raw))

	raw, err = jsonFormat(map[string]any{"type": "object"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "object"}`, string(raw))
}
