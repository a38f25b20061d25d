// Package config handles pre-database configuration, such as the location of
// the database.  This is used by both chipd and chipadmin.
package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultListenAddress        = ":8080"
	DefaultFallbackLevelMinutes = 20
	StandardRoundingUnit        = 1
	DefaultCacheSize            = 64
)

// Viper-based config loader.  Settings come from ~/.chipclock (YAML) and
// CHIPCLOCK_* environment variables, environment first.
func Init() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	viper.SetConfigType("yaml")
	viper.SetConfigName(".chipclock")
	viper.AddConfigPath(home)
	viper.SetEnvPrefix("chipclock")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	SetDefaults()
	err = viper.ReadInConfig() // ignore error if config file missing
	if err != nil {
		log.Printf("viper can't read config file: %v", err)
	}
	log.Printf("Using database URL: %s", viper.GetString("db_url"))
	log.Printf("Using listen address: %s", viper.GetString("listen_address"))
	log.Printf("Using SQL connector: %s", viper.GetString("sql_connector"))
}

func SetDefaults() {
	viper.SetDefault("db_url", "")
	viper.SetDefault("listen_address", DefaultListenAddress)
	viper.SetDefault("sql_connector", "pgx")
	viper.SetDefault("fallback_level_minutes", DefaultFallbackLevelMinutes)
	viper.SetDefault("default_rounding_unit", StandardRoundingUnit)
	viper.SetDefault("cache_size", DefaultCacheSize)
	viper.SetDefault("allowed_origins", []string{})
}

func DBURL() string {
	return viper.GetString("db_url")
}

func ListenAddress() string {
	return viper.GetString("listen_address")
}

// SQLConnector is one of "pgx", "connector" (Cloud SQL), or "fake" (in
// memory, nothing persists).
func SQLConnector() string {
	return viper.GetString("sql_connector")
}

// FallbackLevelMinutes is the level length used for tournaments with no
// structure.
func FallbackLevelMinutes() int {
	if m := viper.GetInt("fallback_level_minutes"); m > 0 {
		return m
	}
	return DefaultFallbackLevelMinutes
}

// DefaultRoundingUnit applies to payout structures that don't set their own.
func DefaultRoundingUnit() int64 {
	if u := viper.GetInt64("default_rounding_unit"); u > 0 {
		return u
	}
	return StandardRoundingUnit
}

func CacheSize() int {
	if n := viper.GetInt("cache_size"); n > 0 {
		return n
	}
	return DefaultCacheSize
}

func AllowedOrigins() []string {
	return viper.GetStringSlice("allowed_origins")
}

// Cloud SQL connector settings.

func DBUser() string                 { return viper.GetString("db_user") }
func DBPassword() string             { return viper.GetString("db_pass") }
func DBName() string                 { return viper.GetString("db_name") }
func InstanceConnectionName() string { return viper.GetString("instance_connection_name") }
func PrivateIP() bool                { return viper.GetBool("private_ip") }
