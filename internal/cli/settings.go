package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings is deskctl's configuration: ~/.quality-desk/deskctl.yaml
// overridden by DESKCTL_* environment variables.
type Settings struct {
	APIURL      string        `mapstructure:"api_url"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	CachePath   string        `mapstructure:"cache_path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	OpenAIKey   string        `mapstructure:"openai_api_key"`
	OpenAIModel string        `mapstructure:"openai_model"`
}

// LoadSettings reads file when given, else the default location. A missing
// default file is not an error.
func LoadSettings(file string) (Settings, error) {
	v := viper.New()
	v.SetEnvPrefix("DESKCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	home, _ := os.UserHomeDir()
	dir := filepath.Join(home, ".quality-desk")

	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("cache_path", filepath.Join(dir, "cache.db"))
	v.SetDefault("timeout", "15s")
	v.SetDefault("openai_model", "gpt-4o-mini")
	for _, k := range []string{"api_url", "username", "password", "cache_path", "timeout", "openai_api_key", "openai_model"} {
		_ = v.BindEnv(k)
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(dir)
		v.SetConfigName("deskctl")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if s.APIURL == "" {
		return Settings{}, errors.New("api_url is required")
	}
	return s, nil
}
