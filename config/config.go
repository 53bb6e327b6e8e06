package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config represents an alias to viper config
type Config = viper.Viper

var DeckprepConfig = New()

// New returns a new pointer to the config
func New() *Config {
	v := viper.New()
	v.SetDefault("port", 3000)
	v.SetDefault("build_date", "null")
	v.SetDefault("deployed_at", time.Now().UTC().Format(time.RFC3339))
	v.SetEnvPrefix("DECKPREP")
	v.AutomaticEnv()
	return v
}

func GetPort() int {
	return DeckprepConfig.GetInt("port")
}
