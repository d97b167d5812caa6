package common

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/billfold/billfold/pkg/logger"
	_ "github.com/joho/godotenv/autoload"
	"gopkg.in/yaml.v3"
)

// Initialize package-level logging configuration
func init() {
	logger.GetLogger().ConfigureFromEnv()
}

type Config struct {
	General GeneralConfig `yaml:"General"`
	Http    HttpConfig    `yaml:"Http"`
	Store   StoreConfig   `yaml:"Store"`
	Auth    AuthConfig    `yaml:"Auth"`
	Build   BuildConfig   `yaml:"-"`
}

type BuildConfig struct {
	BuildVersion string `yaml:"-"` // come from build ldflags
	BuildCommit  string `yaml:"-"` // come from build ldflags
	BuildDate    string `yaml:"-"` // come from build ldflags
}

type GeneralConfig struct {
	LogLevel string `yaml:"logLevel"`
}

type HttpConfig struct {
	Port      string `yaml:"port"`
	AppOrigin string `yaml:"appOrigin"` // single origin allowed for CORS, also the post-login redirect target
}

// StoreConfig points at the remote collection store. Admin credentials only
// ever come from the environment, never from the config file.
type StoreConfig struct {
	URL           string `yaml:"url"`
	AdminEmail    string `yaml:"-"`
	AdminPassword string `yaml:"-"`
}

type AuthConfig struct {
	BaseURL   string                    `yaml:"baseURL"`
	Secret    string                    `yaml:"-"` // from env, signs state and cache cookies
	Providers map[string]ProviderConfig `yaml:"-"`
}

// ProviderConfig holds one OAuth provider's client credentials.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
}

// DefaultConfigPath returns the path the config file is looked up at when
// no --config flag is given.
func DefaultConfigPath() string {
	if p := os.Getenv("BILLFOLD_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(".", "billfold.yml")
}

// LoadConfig reads the yaml config file (if present) and layers environment
// variables on top. A missing file is not an error: everything can come from
// the environment.
func (config *Config) LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		logger.Debug("Loaded config file", "path", path)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config.applyEnv()

	if config.Http.Port == "" {
		config.Http.Port = "3001"
	}
	if config.Http.AppOrigin == "" {
		config.Http.AppOrigin = "http://localhost:5173"
	}
	if config.Auth.BaseURL == "" {
		config.Auth.BaseURL = "http://localhost:" + config.Http.Port
	}
	if config.General.LogLevel != "" {
		logger.GetLogger().SetLogLevel(config.General.LogLevel)
	}

	return config, nil
}

func (config *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		config.Http.Port = v
	}
	if v := os.Getenv("APP_URL"); v != "" {
		config.Http.AppOrigin = v
	}
	if v := os.Getenv("POCKETBASE_URL"); v != "" {
		config.Store.URL = v
	}
	config.Store.AdminEmail = os.Getenv("POCKETBASE_ADMIN_EMAIL")
	config.Store.AdminPassword = os.Getenv("POCKETBASE_ADMIN_PASSWORD")

	if v := os.Getenv("AUTH_URL"); v != "" {
		config.Auth.BaseURL = v
	}
	config.Auth.Secret = os.Getenv("AUTH_SECRET")

	config.Auth.Providers = map[string]ProviderConfig{}
	for _, name := range []string{"google", "github"} {
		id := os.Getenv(envPrefix(name) + "_CLIENT_ID")
		secret := os.Getenv(envPrefix(name) + "_CLIENT_SECRET")
		if id != "" && secret != "" {
			config.Auth.Providers[name] = ProviderConfig{ClientID: id, ClientSecret: secret}
		}
	}
}

func envPrefix(provider string) string {
	switch provider {
	case "google":
		return "GOOGLE"
	case "github":
		return "GITHUB"
	}
	return ""
}

// ValidateForServe checks the settings the server cannot run without.
// Called at startup so missing secrets fail fast instead of on first use.
func (config *Config) ValidateForServe() error {
	if config.Store.URL == "" {
		return fmt.Errorf("store URL is not set (POCKETBASE_URL)")
	}
	if config.Store.AdminEmail == "" || config.Store.AdminPassword == "" {
		return fmt.Errorf("store admin credentials are not set (POCKETBASE_ADMIN_EMAIL / POCKETBASE_ADMIN_PASSWORD)")
	}
	if config.Auth.Secret == "" {
		return fmt.Errorf("auth secret is not set (AUTH_SECRET)")
	}
	return nil
}

// ValidateForSetup checks the settings the collection bootstrap needs.
func (config *Config) ValidateForSetup() error {
	if config.Store.URL == "" {
		return fmt.Errorf("store URL is not set (POCKETBASE_URL)")
	}
	if config.Store.AdminEmail == "" || config.Store.AdminPassword == "" {
		return fmt.Errorf("store admin credentials are not set (POCKETBASE_ADMIN_EMAIL / POCKETBASE_ADMIN_PASSWORD)")
	}
	return nil
}
