package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`
	Redis struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	JWT struct {
		SecretKey               string `mapstructure:"secret_key"`
		Issuer                  string `mapstructure:"issuer"`
		AccessTokenMinutes      int    `mapstructure:"access_token_minutes"`
		RefreshTokenDays        int    `mapstructure:"refresh_token_days"`
		VerificationTokenHours  int    `mapstructure:"verification_token_hours"`
		PasswordResetTokenHours int    `mapstructure:"password_reset_token_hours"`
	} `mapstructure:"jwt"`
}

var AppConfig Config

func LoadConfig(path string) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	viper.AutomaticEnv()

	viper.SetDefault("jwt.access_token_minutes", 15)
	viper.SetDefault("jwt.refresh_token_days", 7)
	viper.SetDefault("jwt.verification_token_hours", 24)
	viper.SetDefault("jwt.password_reset_token_hours", 3)

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
}
