package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCrawlerConfig_EnvCredentials(t *testing.T) {
	t.Setenv("GSCCCA_USERNAME", "user@example.com")
	t.Setenv("GSCCCA_PASSWORD", "hunter2")

	cfg, err := loadCrawlerConfig(runCommand, "")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", cfg.Username)
	assert.Equal(t, "output", cfg.OutputDir)
}

func TestLoadCrawlerConfig_MissingCredentials(t *testing.T) {
	t.Setenv("GSCCCA_USERNAME", "")
	t.Setenv("GSCCCA_PASSWORD", "")

	_, err := loadCrawlerConfig(runCommand, "")
	assert.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["resume"])
	assert.True(t, names["reocr"])
}
