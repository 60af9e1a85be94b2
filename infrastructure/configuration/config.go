package configuration

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"vault/infrastructure/logger"

	"github.com/spf13/viper"
)

const (
	DefaultAPIURL     = "http://localhost:5000"
	DefaultPort       = 3000
	DefaultSessionTTL = 30 * time.Minute
	DefaultCookieName = "vault_session"
)

type Config struct {
	App     App     `mapstructure:"app"`
	Backend Backend `mapstructure:"backend"`
	Session Session `mapstructure:"session"`
	Cors    Cors    `mapstructure:"cors"`
}

type App struct {
	Port    int    `mapstructure:"port"`
	GinMode string `mapstructure:"ginMode"`
}

// Backend points at the summarization service.
type Backend struct {
	APIURL string `mapstructure:"apiURL"`
	// Timeout of zero means requests are never cut short.
	Timeout time.Duration `mapstructure:"timeout"`
}

type Session struct {
	TTL        time.Duration `mapstructure:"ttl"`
	CookieName string        `mapstructure:"cookieName"`
	Secure     bool          `mapstructure:"secure"`
}

type Cors struct {
	AllowOrigins []string `mapstructure:"allowOrigins"`
}

var C Config

func init() {
	if err := Reload(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to load configuration")
	}
}

// Reload re-reads configuration into C, picking up env files loaded after init.
func Reload() error {
	cfg, err := Load(getConfig(), ".", "../", "../../")
	C = cfg
	return err
}

// Load reads the named JSON config from the first matching path, then applies
// environment overrides and defaults. A missing file is not an error.
func Load(name string, paths ...string) (Config, error) {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("json")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AutomaticEnv()
	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			logger.GetLogger().WithField("config", name).Warn("Config file not found")
		} else {
			return defaults(), fmt.Errorf("read config %s: %w", name, err)
		}
	} else {
		logger.GetLogger().WithField("config", v.ConfigFileUsed()).Info("Config set up successfully")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return defaults(), fmt.Errorf("decode config: %w", err)
	}
	normalize(&cfg)
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", DefaultPort)
	v.SetDefault("app.ginMode", "release")
	v.SetDefault("backend.apiURL", DefaultAPIURL)
	v.SetDefault("backend.timeout", time.Duration(0))
	v.SetDefault("session.ttl", DefaultSessionTTL)
	v.SetDefault("session.cookieName", DefaultCookieName)
	v.SetDefault("session.secure", false)
	v.SetDefault("cors.allowOrigins", []string{"http://localhost:3000"})
}

// bindEnv maps flat environment names onto nested keys. The first name wins.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("app.port", "APP_PORT", "PORT")
	_ = v.BindEnv("app.ginMode", "GIN_MODE")
	_ = v.BindEnv("backend.apiURL", "API_URL")
	_ = v.BindEnv("backend.timeout", "BACKEND_TIMEOUT")
	_ = v.BindEnv("session.ttl", "SESSION_TTL")
	_ = v.BindEnv("session.cookieName", "SESSION_COOKIE_NAME")
	_ = v.BindEnv("session.secure", "SESSION_SECURE")
	_ = v.BindEnv("cors.allowOrigins", "CORS_ALLOW_ORIGINS")
}

func defaults() Config {
	cfg := Config{}
	normalize(&cfg)
	return cfg
}

func normalize(cfg *Config) {
	cfg.Backend.APIURL = strings.TrimRight(strings.TrimSpace(cfg.Backend.APIURL), "/")
	if cfg.Backend.APIURL == "" {
		cfg.Backend.APIURL = DefaultAPIURL
	}
	if cfg.Backend.Timeout < 0 {
		cfg.Backend.Timeout = 0
	}
	if cfg.App.Port <= 0 {
		cfg.App.Port = DefaultPort
	}
	if cfg.App.GinMode == "" {
		cfg.App.GinMode = "release"
	}
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = DefaultSessionTTL
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = DefaultCookieName
	}
	origins := cfg.Cors.AllowOrigins[:0]
	for _, o := range cfg.Cors.AllowOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	cfg.Cors.AllowOrigins = origins
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}
