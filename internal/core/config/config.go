package config

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`

	// Database holds the shipment store configuration.
	Database DatabaseConfig `mapstructure:",squash"`

	// Redis holds the carrier payload cache configuration.
	Redis RedisConfig `mapstructure:",squash"`

	// Carriers holds the carrier integration configuration.
	Carriers CarrierConfig `mapstructure:",squash"`

	// Proxy holds the outbound proxy configuration for scraping adapters.
	Proxy ProxyConfig `mapstructure:",squash"`
}

// DatabaseConfig holds the PostgreSQL connection details.
type DatabaseConfig struct {
	// URL is the postgres connection string.
	URL string `mapstructure:"DATABASE_URL" required:"true"`
}

// RedisConfig holds the cache connection details.
type RedisConfig struct {
	// URL is the redis connection string. Empty disables payload caching.
	URL string `mapstructure:"REDIS_URL"`
	// PayloadTTLSeconds is how long fetched carrier payloads stay cached.
	PayloadTTLSeconds int `mapstructure:"CARRIER_CACHE_TTL" default:"300"`
}

// CarrierConfig holds per-carrier integration settings.
type CarrierConfig struct {
	// OceanicURL is the base URL of the Oceanic Line tracking API.
	OceanicURL string `mapstructure:"CARRIER_OCEANIC_URL" required:"true"`
	// OceanicAccessKey is the API access key for Oceanic.
	OceanicAccessKey string `mapstructure:"CARRIER_OCEANIC_ACCESS_KEY" required:"true"`
	// OceanicAccessSecret is the API access secret for Oceanic.
	OceanicAccessSecret string `mapstructure:"CARRIER_OCEANIC_ACCESS_SECRET" required:"true"`
	// HarborlineURL is the Harborline portal tracking page URL.
	HarborlineURL string `mapstructure:"CARRIER_HARBORLINE_URL" required:"true"`
}

// OceanicConfig is the subset of carrier settings the Oceanic adapter needs.
type OceanicConfig struct {
	// URL is the base URL of the tracking API.
	URL string
	// AccessKey is the public key for API access.
	AccessKey string
	// AccessSecret is the secret key for API access.
	AccessSecret string
}

// Oceanic returns the Oceanic adapter configuration.
func (c CarrierConfig) Oceanic() OceanicConfig {
	return OceanicConfig{
		URL:          c.OceanicURL,
		AccessKey:    c.OceanicAccessKey,
		AccessSecret: c.OceanicAccessSecret,
	}
}

// ProxyConfig holds outbound proxy settings for scraping adapters.
type ProxyConfig struct {
	// Enabled toggles proxy use for browser automation.
	Enabled bool `mapstructure:"PROXY_ENABLED" default:"false"`
	// Hostname is the proxy server hostname.
	Hostname string `mapstructure:"PROXY_HOSTNAME"`
	// Port is the proxy server port.
	Port int `mapstructure:"PROXY_PORT"`
	// Username is the proxy auth username.
	Username string `mapstructure:"PROXY_USERNAME"`
	// Password is the proxy auth password.
	Password string `mapstructure:"PROXY_PASSWORD"`
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// processTags iterates over the struct fields, binds env keys, and sets
// default values in Viper.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			v.BindEnv(key)
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		required := field.Tag.Get("required")
		if required == "true" {
			value := val.Field(i)
			if isZero(value) {
				key := field.Tag.Get("mapstructure")
				return fmt.Errorf("missing required configuration: %s", key)
			}
		}
	}
	return nil
}

// isZero checks if a reflect.Value is the zero value for its type.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
