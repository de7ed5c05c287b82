package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	configData Config
	v          = viper.New()
)

// Config holds all configuration settings.
type Config struct {
	// Logging configuration
	Log struct {
		Level  string
		Format string
	}
	// TMK input configuration
	TMK struct {
		Format string
	}
	// External OAEP fallback
	OpenSSL struct {
		Enabled bool
		Path    string
		Timeout time.Duration
	}
	// Private key used by the TCP service
	RSA struct {
		KeyPath    string `mapstructure:"key_path"`
		Passphrase string
	}
	// Server configuration
	Server struct {
		Host string
		Port int
	}
}

// flagBindings maps configuration keys to the command line flags overriding them.
var flagBindings = map[string]string{
	"log.level":       "log-level",
	"log.format":      "log-format",
	"openssl.enabled": "openssl",
	"openssl.path":    "openssl-path",
	"openssl.timeout": "openssl-timeout",
	"rsa.key_path":    "key",
	"rsa.passphrase":  "passphrase",
	"server.host":     "host",
	"server.port":     "port",
}

// Initialize sets up the configuration system. cfgFile, when set, replaces the
// search paths. Flags present in flags override file and environment values.
func Initialize(cfgFile string, flags *pflag.FlagSet) error {
	v = viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		// Set config name and paths
		v.SetConfigName("config")        // name of config file (without extension)
		v.SetConfigType("yaml")          // config file type
		v.AddConfigPath(".")             // optionally look for config in working directory
		v.AddConfigPath("$HOME/.go_rki") // look for config in .go_rki directory in home
		v.AddConfigPath("/etc/go_rki/")  // path to look for the config file in
	}

	// Set default values
	setDefaults()

	// Environment variables
	v.SetEnvPrefix("GORKI") // prefix for env vars
	v.AutomaticEnv()        // read in environment variables that match
	v.SetEnvKeyReplacer(    // replace dots with underscores in env vars
		strings.NewReplacer(".", "_"),
	)

	if flags != nil {
		for key, name := range flagBindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return fmt.Errorf("error binding flag %s: %w", name, err)
				}
			}
		}
	}

	// Read in config file
	if err := v.ReadInConfig(); err != nil {
		// It's okay if we can't find a config file, we'll use defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal config into struct
	configData = Config{}
	if err := v.Unmarshal(&configData); err != nil {
		return fmt.Errorf("unable to decode into config struct: %w", err)
	}

	return nil
}

// setDefaults sets default values for all configuration options.
func setDefaults() {
	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "human")

	// TMK defaults
	v.SetDefault("tmk.format", "base64")

	// OpenSSL fallback defaults
	v.SetDefault("openssl.enabled", false)
	v.SetDefault("openssl.path", "openssl")
	v.SetDefault("openssl.timeout", 10*time.Second)

	// Key defaults
	v.SetDefault("rsa.key_path", "")
	v.SetDefault("rsa.passphrase", "")

	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 1600)
}

// Get returns the current configuration.
func Get() *Config {
	return &configData
}

// GetViper returns the viper instance.
func GetViper() *viper.Viper {
	return v
}
