package config

import (
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	ProviderMemory   = "memory"
	ProviderFirebase = "firebase"
)

type Config struct {
	Public  Public
	private Private
}

type Public struct {
	Addr           string        `yaml:"addr"`
	LogLevel       string        `yaml:"log_level"`
	LogJSON        bool          `yaml:"log_json"`
	Provider       string        `yaml:"provider"`   // "memory" or "firebase"
	ProjectId      string        `yaml:"project_id"` // Firebase/Firestore project
	SessionTTL     time.Duration `yaml:"session_ttl"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type Private struct {
	ApiKey          string `yaml:"api_key"`          // Identity Toolkit web API key
	CredentialsFile string `yaml:"credentials_file"` // service account json
}

func (s *Config) ApiKey() string {
	return s.private.ApiKey
}

func (s *Config) CredentialsFile() string {
	return s.private.CredentialsFile
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}

	err = yaml.Unmarshal(configFile, output)
	if err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{public, private}
	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return cfg
}

func (s *Config) applyDefaults() {
	if s.Public.Addr == "" {
		s.Public.Addr = ":8080"
	}
	if s.Public.Provider == "" {
		s.Public.Provider = ProviderMemory
	}
	if s.Public.SessionTTL == 0 {
		s.Public.SessionTTL = 30 * time.Minute
	}
}

// Secrets can come from the environment instead of private.yaml, so the
// yaml file can be committed with placeholders.
func (s *Config) applyEnvOverrides() {
	if v := os.Getenv("FIREBASE_API_KEY"); v != "" {
		s.private.ApiKey = v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" {
		s.private.CredentialsFile = v
	}
	if v := os.Getenv("FIREBASE_PROJECT_ID"); v != "" {
		s.Public.ProjectId = v
	}
}
