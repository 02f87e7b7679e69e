package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	DefaultHost       = "127.0.0.1"
	DefaultPort       = 4472
	DefaultOwner      = "easytier"
	DefaultRepo       = "easytier"
	DefaultAPIBaseURL = "https://api.github.com/"
	DefaultMirror     = "https://ghp.ci"
	DefaultUserAgent  = "EasytierService"
	DefaultTokenFile  = "auth_token"

	DefaultVersionTimeout    = 10 * time.Second
	DefaultDownloadTimeout = 5 * time.Minute

	// NoMirror disables the mirror wherever a mirror is configured
	NoMirror = "none"

	// EnvPrefix prefixes every environment variable that overrides the config
	EnvPrefix = "EASYTIER_SERVICE_"
)

// DotEnvFile is loaded into the environment if it exists
var DotEnvFile = ".env"

type Config struct {
	// Host and Port are the address of the http api
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`

	// Owner and Repo name the upstream GitHub repository
	Owner      string `yaml:"owner,omitempty"`
	Repo       string `yaml:"repo,omitempty"`
	APIBaseURL string `yaml:"apiBaseUrl,omitempty"`
	UserAgent  string `yaml:"userAgent,omitempty"`

	// Mirror is prefixed to asset download urls. Empty or "none" downloads directly.
	Mirror string `yaml:"mirror"`

	// BaseDir contains the installation directory
	BaseDir string `yaml:"baseDir,omitempty"`

	TokenFile   string `yaml:"tokenFile,omitempty"`
	DisableAuth bool   `yaml:"disableAuth,omitempty"`

	VersionTimeout    time.Duration `yaml:"versionTimeout,omitempty"`
	DownloadTimeout time.Duration `yaml:"downloadTimeout,omitempty"`

	// SortReleases sorts releases by publication time instead of trusting the api order
	SortReleases bool `yaml:"sortReleases,omitempty"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Host:            DefaultHost,
		Port:            DefaultPort,
		Owner:           DefaultOwner,
		Repo:            DefaultRepo,
		APIBaseURL:      DefaultAPIBaseURL,
		UserAgent:       DefaultUserAgent,
		Mirror:          DefaultMirror,
		BaseDir:         ".",
		TokenFile:       DefaultTokenFile,
		VersionTimeout:    DefaultVersionTimeout,
		DownloadTimeout: DefaultDownloadTimeout,
	}
}

// Load reads the config file at path on top of the defaults and applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	config := Default()
	if path != "" {
		configBytes, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}

		err = yaml.Unmarshal(configBytes, config)
		if err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}

	if _, err := os.Stat(DotEnvFile); err == nil {
		if err := godotenv.Load(DotEnvFile); err != nil {
			return nil, errors.Wrapf(err, "load %s", DotEnvFile)
		}
	}

	if err := config.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return config, config.Validate()
}

// Validate checks the config for values the service can't work with
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("invalid port %d", c.Port)
	}
	if c.Owner == "" || c.Repo == "" {
		return errors.New("owner and repo are required")
	}
	if c.BaseDir == "" {
		c.BaseDir = "."
	}
	if strings.EqualFold(strings.TrimSpace(c.Mirror), NoMirror) {
		c.Mirror = ""
	}

	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"HOST":         &c.Host,
		"OWNER":        &c.Owner,
		"REPO":         &c.Repo,
		"API_BASE_URL": &c.APIBaseURL,
		"USER_AGENT":   &c.UserAgent,
		"MIRROR":       &c.Mirror,
		"BASE_DIR":     &c.BaseDir,
		"TOKEN_FILE":   &c.TokenFile,
	}
	for key, target := range strs {
		if value, ok := lookup(EnvPrefix + key); ok {
			*target = value
		}
	}

	if value, ok := lookup(EnvPrefix + "PORT"); ok {
		port, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return errors.Wrapf(err, "parse %sPORT", EnvPrefix)
		}
		c.Port = port
	}

	bools := map[string]*bool{
		"DISABLE_AUTH":  &c.DisableAuth,
		"SORT_RELEASES": &c.SortReleases,
	}
	for key, target := range bools {
		if value, ok := lookup(EnvPrefix + key); ok {
			parsed, err := strconv.ParseBool(strings.TrimSpace(value))
			if err != nil {
				return errors.Wrapf(err, "parse %s%s", EnvPrefix, key)
			}
			*target = parsed
		}
	}

	durations := map[string]*time.Duration{
		"VERSION_TIMEOUT":    &c.VersionTimeout,
		"DOWNLOAD_TIMEOUT": &c.DownloadTimeout,
	}
	for key, target := range durations {
		if value, ok := lookup(EnvPrefix + key); ok {
			parsed, err := time.ParseDuration(strings.TrimSpace(value))
			if err != nil {
				return errors.Wrapf(err, "parse %s%s", EnvPrefix, key)
			}
			*target = parsed
		}
	}

	return nil
}
