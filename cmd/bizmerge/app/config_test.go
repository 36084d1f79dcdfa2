package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/bizmerge/pkg/constants"
	"github.com/agentstation/bizmerge/pkg/errors"
)

// isolate keeps a developer's ~/.bizmerge.yaml out of the tests.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CONFIG", "")
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultWebsitePath, config.WebsitePath)
	assert.Equal(t, constants.DefaultSocialPath, config.SocialPath)
	assert.Equal(t, constants.DefaultDirectoryPath, config.DirectoryPath)
	assert.Equal(t, filepath.Join("out", "company_data.xlsx"), config.OutputPath())
	assert.Equal(t, constants.DetailThreshold, config.DetailThreshold)
	assert.True(t, config.EmptyAddressAsNull)
	assert.Equal(t, "auto", config.LogFormat)
	assert.Equal(t, "stderr", config.LogOutput)
	require.NoError(t, config.Validate())
}

func TestLoadConfigEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("WEBSITE_PATH", "data/site.csv")
	t.Setenv("OUTPUT_FILE", "companies.sqlite")
	t.Setenv("WORKERS", "3")
	t.Setenv("DETAIL_THRESHOLD", "60")
	t.Setenv("EMPTY_ADDRESS_AS_NULL", "false")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "data/site.csv", config.WebsitePath)
	assert.Equal(t, filepath.Join("out", "companies.sqlite"), config.OutputPath())
	assert.Equal(t, 3, config.Workers)
	assert.Equal(t, 60, config.DetailThreshold)
	assert.False(t, config.EmptyAddressAsNull)
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "bizmerge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("social_path: data/fb.csv\ndetail_threshold: 80\n"), 0o644))
	t.Setenv("CONFIG", path)

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "data/fb.csv", config.SocialPath)
	assert.Equal(t, 80, config.DetailThreshold)
	assert.Equal(t, path, config.ConfigFile)
}

func TestLoadConfigMissingFile(t *testing.T) {
	isolate(t)

	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	var cfgErr *errors.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestConfigValidate(t *testing.T) {
	isolate(t)

	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"threshold too high", func(c *Config) { c.DetailThreshold = 101 }, "DetailThreshold"},
		{"negative workers", func(c *Config) { c.Workers = -1 }, "Workers"},
		{"empty website", func(c *Config) { c.WebsitePath = "" }, "WebsitePath"},
		{"bad format", func(c *Config) { c.Format = "xml" }, "Format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfig()
			require.NoError(t, err)
			tt.modify(config)

			err = config.Validate()
			require.Error(t, err)
			var verr *errors.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestUpdateFromFlags(t *testing.T) {
	config := &Config{Format: "table", LogLevel: "info"}
	config.UpdateFromFlags(true, false, true, "", "")
	assert.True(t, config.Verbose)
	assert.True(t, config.NoColor)
	assert.Equal(t, "table", config.Format)
	assert.Equal(t, "info", config.LogLevel)

	config.UpdateFromFlags(false, true, false, "json", "debug")
	assert.Equal(t, "json", config.Format)
	assert.Equal(t, "debug", config.LogLevel)
}

func TestConfigOptions(t *testing.T) {
	config := &Config{
		WebsitePath:      "w.csv",
		SocialPath:       "s.csv",
		DirectoryPath:    "d.csv",
		OutputDir:        "out",
		OutputFile:       "x.xlsx",
		DetailThreshold:  75,
		Workers:          2,
		ProvenanceReport: "p.yaml",
	}
	assert.Len(t, config.Options(), 8)

	config.Workers = 0
	config.ProvenanceReport = ""
	assert.Len(t, config.Options(), 6)
}
