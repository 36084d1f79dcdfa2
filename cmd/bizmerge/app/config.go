package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/bizmerge"
	"github.com/agentstation/bizmerge/pkg/constants"
	"github.com/agentstation/bizmerge/pkg/errors"
)

// Config holds the application configuration loaded from config files,
// environment variables, .env files and flags.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string `validate:"omitempty,oneof=table json yaml"`

	// Config file
	ConfigFile string

	// Inputs
	WebsitePath   string `validate:"required"`
	SocialPath    string `validate:"required"`
	DirectoryPath string `validate:"required"`

	// Output
	OutputDir        string `validate:"required"`
	OutputFile       string `validate:"required"`
	ProvenanceReport string

	// Resolution
	Workers            int `validate:"min=0"` // 0 uses GOMAXPROCS
	DetailThreshold    int `validate:"min=0,max=100"`
	EmptyAddressAsNull bool
	Authorities        string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (applied later by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.bizmerge.yaml or ./.bizmerge.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	return loadConfig("")
}

// loadConfig is LoadConfig with an explicit config file, which wins over
// the CONFIG variable and the search path.
func loadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	if configFile == "" {
		configFile = v.GetString("config")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(constants.DefaultConfigFile)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("file", "failed to read config file", err)
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no-color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		WebsitePath:   v.GetString("website_path"),
		SocialPath:    v.GetString("social_path"),
		DirectoryPath: v.GetString("directory_path"),

		OutputDir:        v.GetString("output_dir"),
		OutputFile:       v.GetString("output_file"),
		ProvenanceReport: v.GetString("provenance_report"),

		Workers:            v.GetInt("workers"),
		DetailThreshold:    v.GetInt("detail_threshold"),
		EmptyAddressAsNull: v.GetBool("empty_address_as_null"),
		Authorities:        v.GetString("authorities"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("website_path", constants.DefaultWebsitePath)
	v.SetDefault("social_path", constants.DefaultSocialPath)
	v.SetDefault("directory_path", constants.DefaultDirectoryPath)
	v.SetDefault("output_dir", constants.DefaultOutputDir)
	v.SetDefault("output_file", constants.DefaultOutputFile)
	v.SetDefault("detail_threshold", constants.DetailThreshold)
	v.SetDefault("empty_address_as_null", true)
}

// Validate checks the configuration after flags have been applied.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			ve := verrs[0]
			return errors.NewValidationError(ve.Field(), ve.Value(),
				fmt.Sprintf("failed on the %q rule", ve.Tag()))
		}
		return errors.WrapValidation("config", err)
	}
	return nil
}

// OutputPath returns the full path of the output file.
func (c *Config) OutputPath() string {
	return filepath.Join(c.OutputDir, c.OutputFile)
}

// Options converts the configuration into run options.
func (c *Config) Options() []bizmerge.Option {
	opts := []bizmerge.Option{
		bizmerge.WithWebsitePath(c.WebsitePath),
		bizmerge.WithSocialPath(c.SocialPath),
		bizmerge.WithDirectoryPath(c.DirectoryPath),
		bizmerge.WithOutput(c.OutputPath()),
		bizmerge.WithDetailThreshold(c.DetailThreshold),
		bizmerge.WithEmptyAddressAsNull(c.EmptyAddressAsNull),
	}
	if c.Workers > 0 {
		opts = append(opts, bizmerge.WithWorkers(c.Workers))
	}
	if c.Authorities != "" {
		opts = append(opts, bizmerge.WithAuthoritiesFile(c.Authorities))
	}
	if c.ProvenanceReport != "" {
		opts = append(opts, bizmerge.WithProvenanceReport(c.ProvenanceReport))
	}
	return opts
}

// UpdateFromFlags updates config values from parsed global flags so that
// flag values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files. Variables
// already set win, then .env.local, then .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
