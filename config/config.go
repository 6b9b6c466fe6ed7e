package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode         string `mapstructure:"mode"`
	Repositories struct {
		Postgres struct {
			URL               string `mapstructure:"url"`
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Provider struct {
		Name           string `mapstructure:"name"`
		EmbeddingModel string `mapstructure:"embeddingModel"`
		ChatModel      string `mapstructure:"chatModel"`
		OpenAIKey      string `mapstructure:"openaiKey"`
		GeminiKey      string `mapstructure:"geminiKey"`
	} `mapstructure:"provider"`
	Catalog struct {
		CacheTTL time.Duration `mapstructure:"cacheTTL"`
	} `mapstructure:"catalog"`
	RAG struct {
		TopK           int `mapstructure:"topK"`
		EmbedBatchSize int `mapstructure:"embedBatchSize"`
	} `mapstructure:"rag"`
	Ingest struct {
		Workers       int     `mapstructure:"workers"`
		RatePerSecond float64 `mapstructure:"ratePerSecond"`
	} `mapstructure:"ingest"`
	Observability struct {
		Metrics struct {
			Enabled bool   `mapstructure:"enabled"`
			Port    string `mapstructure:"port"`
		} `mapstructure:"metrics"`
	} `mapstructure:"observability"`
}

// InitConfig loads config.yml from the usual locations, falling back to the
// embedded copy. An explicit path wins over the search paths.
func InitConfig(path string) (Config, error) {
	var config Config
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("config")
		v.AddConfigPath("$HOME/.travel-assistant")
		v.SetConfigName("config")
		v.SetConfigType("yml")
	}

	v.SetEnvPrefix("TRAVEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	err := v.ReadInConfig()
	if err != nil {
		if path != "" {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		v.SetConfigType("yml")
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return config, nil
}

// bindLegacyEnv keeps the variable names used by existing .env files working.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("repositories.postgres.url", "TRAVEL_REPOSITORIES_POSTGRES_URL", "DATABASE_URL", "SUPABASE_DB_URL")
	_ = v.BindEnv("provider.openaiKey", "TRAVEL_PROVIDER_OPENAIKEY", "OPENAI_API_KEY")
	_ = v.BindEnv("provider.geminiKey", "TRAVEL_PROVIDER_GEMINIKEY", "GOOGLE_GEMINI_API_KEY")
	_ = v.BindEnv("mode", "TRAVEL_MODE", "APP_ENV")
}
