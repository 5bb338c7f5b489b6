package config

import (
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

type Postgres struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (p Postgres) ConnStr() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s", p.Host, p.User, p.Password, p.DBName, p.Port, p.SSLMode)
}

type Nats struct {
	Enabled            bool   `mapstructure:"enabled"`
	Host               string `mapstructure:"host"`
	Port               string `mapstructure:"port"`
	Stream             string `mapstructure:"stream"`
	SuggestionsSubject string `mapstructure:"suggestionsSubject"`
}

func (n Nats) ConnStr() string {
	return fmt.Sprintf("nats://%s:%s", n.Host, n.Port)
}

type Server struct {
	Port           int           `mapstructure:"port"`
	Host           string        `mapstructure:"host"`
	AllowedOrigins []string      `mapstructure:"allowedOrigins"`
	RequestTimeout time.Duration `mapstructure:"requestTimeout"`
}

func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type Engine struct {
	DefaultRadius int    `mapstructure:"defaultRadius"`
	Timezone      string `mapstructure:"timezone"`
	PolicyFile    string `mapstructure:"policyFile"`
}

// Location resolves the configured timezone, falling back to the server's
// local zone when none is set.
func (e Engine) Location() (*time.Location, error) {
	if e.Timezone == "" {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "load timezone %q", e.Timezone)
	}

	return loc, nil
}

type Overpass struct {
	URL           string        `mapstructure:"url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Retries       int           `mapstructure:"retries"`
	RatePerSecond float64       `mapstructure:"ratePerSecond"`
}

type Weather struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
}

type LLM struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"apiKey"`
	ServerURL   string  `mapstructure:"serverURL"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"maxTokens"`
}

type ImageSearch struct {
	APIKey   string `mapstructure:"apiKey"`
	EngineID string `mapstructure:"engineID"`
}

func (i ImageSearch) Enabled() bool {
	return i.APIKey != "" && i.EngineID != ""
}

type History struct {
	Path string `mapstructure:"path"`
}

type Recorder struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queueSize"`
}

type Log struct {
	JSON bool `mapstructure:"json"`
}

type Config struct {
	Server      Server      `mapstructure:"server"`
	Engine      Engine      `mapstructure:"engine"`
	Overpass    Overpass    `mapstructure:"overpass"`
	Weather     Weather     `mapstructure:"weather"`
	LLM         LLM         `mapstructure:"llm"`
	ImageSearch ImageSearch `mapstructure:"imageSearch"`
	History     History     `mapstructure:"history"`
	Nats        Nats        `mapstructure:"nats"`
	Postgres    Postgres    `mapstructure:"postgres"`
	Recorder    Recorder    `mapstructure:"recorder"`
	Log         Log         `mapstructure:"log"`
}

const DefaultConfigFile = "./config/config.yaml"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowedOrigins", []string{"*"})
	v.SetDefault("server.requestTimeout", 20*time.Second)

	v.SetDefault("engine.defaultRadius", 300)
	v.SetDefault("engine.timezone", "")
	v.SetDefault("engine.policyFile", "")

	v.SetDefault("overpass.url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.timeout", 30*time.Second)
	v.SetDefault("overpass.retries", 3)
	v.SetDefault("overpass.ratePerSecond", 1.0)

	v.SetDefault("weather.enabled", true)
	v.SetDefault("weather.url", "https://api.open-meteo.com/v1/forecast")
	v.SetDefault("weather.timeout", 10*time.Second)
	v.SetDefault("weather.retries", 2)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4.1-mini")
	v.SetDefault("llm.temperature", 0.8)
	v.SetDefault("llm.maxTokens", 200)
	v.SetDefault("llm.apiKey", "")
	v.SetDefault("llm.serverURL", "")

	v.SetDefault("imageSearch.apiKey", "")
	v.SetDefault("imageSearch.engineID", "")

	v.SetDefault("history.path", "suggestion_history.db")

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.host", "localhost")
	v.SetDefault("nats.port", "4222")
	v.SetDefault("nats.stream", "SUGGESTIONS")
	v.SetDefault("nats.suggestionsSubject", "paragourmet.suggestions")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.database", "paragourmet")
	v.SetDefault("postgres.sslmode", "disable")

	v.SetDefault("log.json", false)

	v.SetDefault("recorder.workers", 2)
	v.SetDefault("recorder.queueSize", 100)
}

// Load reads path (YAML) and the environment. Env keys use "_" in place of
// ".", e.g. LLM_APIKEY overrides llm.apiKey. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	return &cfg, nil
}
