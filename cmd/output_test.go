package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nodewee/docrag/pkg/config"
)

func TestWriteConfigList(t *testing.T) {
	cfg := config.NewDefaults()
	cfg.CorrectionsPath = ""

	var out bytes.Buffer
	writeConfigList(&out, cfg, "/tmp/config.json", false)

	s := out.String()
	assert.Contains(t, s, "/tmp/config.json")
	assert.Contains(t, s, "chat_model")
	assert.Contains(t, s, cfg.ChatModel)
	assert.Contains(t, s, "corrections_path       = (not set)")
	assert.Contains(t, s, "OPENAI_API_KEY: (not set)")

	out.Reset()
	writeConfigList(&out, cfg, "/tmp/config.json", true)
	assert.Contains(t, out.String(), "OPENAI_API_KEY: (set)")
}

func TestWriteVersion(t *testing.T) {
	SetVersionInfo("v1.2.3", "abc123", "2026-01-01", "ci")
	t.Cleanup(func() { SetVersionInfo("dev", "none", "unknown", "unknown") })

	var out bytes.Buffer
	writeVersion(&out)

	s := out.String()
	assert.Contains(t, s, "docrag v1.2.3")
	assert.Contains(t, s, "abc123")
	assert.Contains(t, s, "Tesseract:")
	assert.NotContains(t, s, "Development build")
}
