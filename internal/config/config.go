package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort   string `mapstructure:"SERVER_PORT"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	JWTSecret    string `mapstructure:"JWT_SECRET"`
	ClientOrigin string `mapstructure:"CLIENT_ORIGIN"`

	// Distance provider. When the API key is empty the haversine provider is
	// wired instead, which keeps local runs and CI off the network.
	GoogleMapsAPIKey string `mapstructure:"GOOGLE_MAPS_API_KEY"`

	// Depot (distribution center) location used as the start of every route.
	DepotLatitude  float64 `mapstructure:"DEPOT_LATITUDE"`
	DepotLongitude float64 `mapstructure:"DEPOT_LONGITUDE"`

	// Time budget for one optimizer run and the number of optimizer runs
	// allowed to execute concurrently.
	OptimizerTimeoutSeconds int   `mapstructure:"OPTIMIZER_TIMEOUT_SECONDS"`
	OptimizerConcurrency    int64 `mapstructure:"OPTIMIZER_CONCURRENCY"`

	// Notification boundary (fire-and-forget email digests).
	NotifySender    string `mapstructure:"NOTIFY_SENDER"`
	NotifyRecipient string `mapstructure:"NOTIFY_RECIPIENT"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("OPTIMIZER_TIMEOUT_SECONDS", 30)
	viper.SetDefault("OPTIMIZER_CONCURRENCY", 2)

	err := viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No .env file found.")
		} else {
			return nil, err
		}
	}

	var cfg Config
	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
