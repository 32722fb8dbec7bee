// This file defines the configuration structure for the application.
package config

import (
	// use Viper for loading the config.yml file.
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port int `mapstructure:"port"`
	API  struct {
		// Base URL of the processing service, including a trailing slash,
		// e.g. "http://localhost:8080/api/v1/".
		Endpoint string `mapstructure:"endpoint"`
		// Base URL of the identity service.
		IdentityEndpoint string `mapstructure:"identity_endpoint"`
		// When true the client talks to the deterministic in-process mock
		// backend instead of the network.
		UseMockAPI bool `mapstructure:"use_mock_api"`
	} `mapstructure:"api"`
	Recording struct {
		// Hard cap on recording length, enforced by the 1s timer.
		MaxSeconds int `mapstructure:"max_seconds"`
		// Largest audio payload accepted for upload, checked before any
		// network call is made.
		MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
		// Command used to capture microphone audio; must write WAV bytes
		// to stdout until terminated.
		CaptureCommand []string `mapstructure:"capture_command"`
	} `mapstructure:"recording"`
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Processing struct {
		// How often the server-side pipeline polls for queued items, in seconds.
		Interval int `mapstructure:"interval"`
		// Secret used to sign issued bearer tokens.
		TokenSecret string `mapstructure:"token_secret"`
	} `mapstructure:"processing"`
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or "yaml"
	viper.AddConfigPath(".")      // looking for config in the current directory

	// --- Environment Variable Overrides ---
	// This tells Viper to look for environment variables with a "SPEAK2SEE_"
	// prefix. e.g., SPEAK2SEE_API_ENDPOINT overrides the `api.endpoint` key.
	viper.SetEnvPrefix("SPEAK2SEE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("port", 8080)
	viper.SetDefault("api.endpoint", "http://localhost:8080/api/v1/")
	viper.SetDefault("api.identity_endpoint", "http://localhost:8080/api/users/")
	viper.SetDefault("api.use_mock_api", false)
	viper.SetDefault("recording.max_seconds", 60)
	viper.SetDefault("recording.max_upload_bytes", 3*1024*1024)
	viper.SetDefault("recording.capture_command", []string{
		"arecord", "-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-t", "wav",
	})
	viper.SetDefault("database.path", "./speak2see.db")
	viper.SetDefault("processing.interval", 5)
	viper.SetDefault("processing.token_secret", "")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error and use defaults
		} else {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
