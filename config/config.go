package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	MongoDB MongoDBConfig
	Kafka   KafkaConfig
	JWT     JWTConfig
	Admin   AdminConfig
}

type ServerConfig struct {
	Port        string
	Environment string
	Version     string
}

type MongoDBConfig struct {
	URI         string
	Database    string
	MaxPoolSize uint64
	MinPoolSize uint64
	MaxRetries  int
	TLSCAFile   string
}

type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	ClientID      string
	Username      string
	Password      string
	SSL           bool
	SASLMechanism string
	AuditTopic    string
}

type JWTConfig struct {
	AccessSecret       string
	RefreshSecret      string
	AccessTokenExpiry  int // in minutes
	RefreshTokenExpiry int // in days
	Issuer             string
}

// AdminConfig holds the bootstrap administrator credentials. Both fields
// must be supplied externally; there is no built-in default password.
type AdminConfig struct {
	Email    string
	Password string
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	setDefaults()

	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/ecoportal")

	// Reading config file is optional
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config

	config.Server = ServerConfig{
		Port:        viper.GetString("server.port"),
		Environment: viper.GetString("server.environment"),
		Version:     viper.GetString("server.version"),
	}

	config.MongoDB = MongoDBConfig{
		URI:         viper.GetString("mongodb.uri"),
		Database:    viper.GetString("mongodb.database"),
		MaxPoolSize: viper.GetUint64("mongodb.max_pool_size"),
		MinPoolSize: viper.GetUint64("mongodb.min_pool_size"),
		MaxRetries:  viper.GetInt("mongodb.max_retries"),
		TLSCAFile:   viper.GetString("mongodb.tls_ca_file"),
	}

	config.Kafka = KafkaConfig{
		Enabled:       viper.GetBool("kafka.enabled"),
		Brokers:       viper.GetStringSlice("kafka.brokers"),
		ClientID:      viper.GetString("kafka.client_id"),
		Username:      viper.GetString("kafka.username"),
		Password:      viper.GetString("kafka.password"),
		SSL:           viper.GetBool("kafka.ssl"),
		SASLMechanism: viper.GetString("kafka.sasl_mechanism"),
		AuditTopic:    viper.GetString("kafka.topics.audit"),
	}

	config.JWT = JWTConfig{
		AccessSecret:       viper.GetString("jwt.access_secret"),
		RefreshSecret:      viper.GetString("jwt.refresh_secret"),
		AccessTokenExpiry:  viper.GetInt("jwt.access_token_expiry"),
		RefreshTokenExpiry: viper.GetInt("jwt.refresh_token_expiry"),
		Issuer:             viper.GetString("jwt.issuer"),
	}

	config.Admin = AdminConfig{
		Email:    viper.GetString("admin.email"),
		Password: viper.GetString("admin.password"),
	}

	if config.JWT.AccessSecret == "" || config.JWT.RefreshSecret == "" {
		return nil, fmt.Errorf("jwt.access_secret and jwt.refresh_secret must be configured")
	}
	if config.JWT.AccessSecret == config.JWT.RefreshSecret {
		return nil, fmt.Errorf("jwt.access_secret and jwt.refresh_secret must differ")
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.environment", "development")
	viper.SetDefault("server.version", "1.0.0")

	// MongoDB defaults
	viper.SetDefault("mongodb.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongodb.database", "ecoportal")
	viper.SetDefault("mongodb.max_pool_size", 100)
	viper.SetDefault("mongodb.min_pool_size", 10)
	viper.SetDefault("mongodb.max_retries", 5)
	viper.SetDefault("mongodb.tls_ca_file", "")

	// Kafka defaults
	viper.SetDefault("kafka.enabled", false)
	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.client_id", "ecoportal-api")
	viper.SetDefault("kafka.username", "")
	viper.SetDefault("kafka.password", "")
	viper.SetDefault("kafka.ssl", false)
	viper.SetDefault("kafka.sasl_mechanism", "plain")
	viper.SetDefault("kafka.topics.audit", "audit.events")

	// JWT defaults. Secrets intentionally have no default.
	viper.SetDefault("jwt.access_secret", "")
	viper.SetDefault("jwt.refresh_secret", "")
	viper.SetDefault("jwt.access_token_expiry", 15) // 15 minutes
	viper.SetDefault("jwt.refresh_token_expiry", 7) // 7 days
	viper.SetDefault("jwt.issuer", "ecoportal-api")

	// Bootstrap admin. No defaults: bootstrap is skipped when unset.
	viper.SetDefault("admin.email", "")
	viper.SetDefault("admin.password", "")
}
