package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webscout/internal/infra/config"
)

func TestParseArgs(t *testing.T) {
	got, err := parseArgs([]string{"weather", "--max", "3", "auckland", "--config=x.yaml", "--json"})
	require.NoError(t, err)
	assert.Equal(t, []string{"weather", "auckland"}, got.Positional)
	assert.Equal(t, 3, got.Max)
	assert.True(t, got.JSON)

	got, err = parseArgs([]string{"go.dev", "--max-length=400", "--url", "https://go.dev/blog"})
	require.NoError(t, err)
	assert.Equal(t, 400, got.MaxLength)
	assert.Equal(t, "https://go.dev/blog", got.URL)
}

func TestParseArgsErrors(t *testing.T) {
	tests := [][]string{
		{"--max"},
		{"--max", "many"},
		{"--max-length=-1"},
		{"--verbose"},
	}
	for _, args := range tests {
		_, err := parseArgs(args)
		assert.Error(t, err, args)
	}
}

func TestConfigPath(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	os.Args = []string{"webscout", "search", "q", "--config", "a.yaml"}
	assert.Equal(t, "a.yaml", configPath())

	os.Args = []string{"webscout", "search", "--config=b.yaml"}
	assert.Equal(t, "b.yaml", configPath())

	os.Args = []string{"webscout", "search"}
	t.Setenv("WEBSCOUT_CONFIG", "env.yaml")
	assert.Equal(t, "env.yaml", configPath())

	t.Setenv("WEBSCOUT_CONFIG", "")
	assert.Equal(t, "config.yaml", configPath())
}

func TestQueryAndCount(t *testing.T) {
	_, err := queryFrom(cliArgs{})
	assert.Error(t, err)

	q, err := queryFrom(cliArgs{Positional: []string{"go", "generics"}})
	require.NoError(t, err)
	assert.Equal(t, "go generics", q)

	cfg := config.Defaults()
	assert.Equal(t, cfg.Search.DefaultResults, resultCount(cfg, 0))
	assert.Equal(t, 2, resultCount(cfg, 2))
}
