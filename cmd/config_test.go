package cmd

import (
	"strings"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenKeys(t *testing.T) {
	raw := map[string]any{
		"state_dir": "/tmp/state",
		"api": map[string]any{
			"base_url": "http://localhost:3000",
		},
		"notify": map[string]any{
			"enabled": false,
		},
	}

	keys := make(map[string]bool)
	flattenKeys(raw, "", keys)

	assert.True(t, keys["state_dir"])
	assert.True(t, keys["api.base_url"])
	assert.True(t, keys["notify.enabled"])
	assert.False(t, keys["api"])
}

func TestDetectSource(t *testing.T) {
	fileValues := map[string]bool{"db_path": true}

	assert.Equal(t, "file", detectSource("db_path", fileValues))
	assert.Equal(t, "default", detectSource("assets_dir", fileValues))

	t.Setenv("STILLMIND_API_BASE_URL", "http://localhost:3000")
	assert.Equal(t, "env", detectSource("api.base_url", fileValues))
}

func TestConfigTemplateRenders(t *testing.T) {
	tmpl, err := template.New("config").Parse(configTemplate)
	require.NoError(t, err)

	data := configTemplateData{
		StateDir:        "/home/u/.config/stillmind",
		DBPath:          "/home/u/.config/stillmind/stillmind.db",
		AssetsDir:       "/home/u/.config/stillmind/assets",
		APIBaseURL:      "https://api.stillmind.app/api",
		SessionDuration: "10m",
		PlayerCmd:       "ffplay -nodisp -autoexit -loglevel quiet",
		NotifyEnabled:   true,
		AnthropicModel:  "claude-haiku-4-5-20251001",
	}

	var sb strings.Builder
	require.NoError(t, tmpl.Execute(&sb, data))
	out := sb.String()

	assert.Contains(t, out, "db_path: /home/u/.config/stillmind/stillmind.db")
	assert.Contains(t, out, "base_url: https://api.stillmind.app/api")
	assert.Contains(t, out, "enabled: true")
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "10:00", formatClock(600))
	assert.Equal(t, "00:05", formatClock(5))
	assert.Equal(t, "00:00", formatClock(-3))
}
