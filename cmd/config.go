package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName = ".questforge"
	envPrefix  = "QUESTFORGE"
)

// initConfig reads in the config file and ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix(envPrefix) // e.g. QUESTFORGE_USER
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
	}

	viper.SetDefault("data.dir", defaultDataDir())

	// Missing config file is fine; defaults and env cover everything.
	_ = viper.ReadInConfig()
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".questforge"
	}
	return filepath.Join(home, ".questforge")
}

// dataDir returns the directory holding the SQLite database.
func dataDir() string {
	return viper.GetString("data.dir")
}
