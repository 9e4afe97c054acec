package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	ReadOnly       bool `yaml:"read_only"`       // maintenance mode: every mutation fails with StorageUnavailable
	AllowAnonymous bool `yaml:"allow_anonymous"` // anonymous actors may start threads and reply
	UseCaptcha     bool `yaml:"use_captcha"`

	DoublePostWindow time.Duration `yaml:"double_post_window" validate:"required"`
	ThreadsPerPage   int           `yaml:"threads_per_page"` // <= 0 means unlimited
	RepliesPerPage   int           `yaml:"replies_per_page"`
	SearchLimit      int           `yaml:"search_limit" validate:"required,gt=0"`
	MaxTitleLength   int           `yaml:"max_title_length" validate:"required,gt=0"`
	MaxTextLength    int           `yaml:"max_text_length" validate:"required,gt=0"`

	// Legacy behaviour keeps thread.last_post untouched when a reply is deleted.
	RecomputeLastPostOnReplyDelete bool `yaml:"recompute_last_post_on_reply_delete"`

	AutoLock AutoLock      `yaml:"autolock"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	Log      Log           `yaml:"log"`
	Http     Http          `yaml:"http"`
	JwtTTL   time.Duration `yaml:"jwt_ttl" validate:"required"`
}

type AutoLock struct {
	InactiveAfter time.Duration `yaml:"inactive_after"` // zero disables auto-locking
	Interval      time.Duration `yaml:"interval"`
}

type Log struct {
	Level string `yaml:"level"`
	Json  bool   `yaml:"json"`
}

type Http struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Https          bool     `yaml:"https"` // adds HSTS
}

type Pg struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"required"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname" validate:"required"`
}

type Redis struct {
	Addr     string `yaml:"addr"` // empty disables the record cache
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Private struct {
	Pg     Pg     `yaml:"pg"`
	Redis  Redis  `yaml:"redis"`
	JwtKey string `yaml:"jwt_key" validate:"required"`
}

func (s *Config) JwtKey() string {
	return s.Private.JwtKey
}

func (s *Config) JwtTTL() time.Duration {
	return s.Public.JwtTTL
}

// Defaults fills optional values that have a sensible non-zero default.
func (p *Public) Defaults() {
	if p.AutoLock.Interval == 0 {
		p.AutoLock.Interval = time.Hour
	}
	if p.CacheTTL == 0 {
		p.CacheTTL = 5 * time.Minute
	}
	if p.Log.Level == "" {
		p.Log.Level = "info"
	}
	if p.Http.Port == 0 {
		p.Http.Port = 8080
	}
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file: " + configPath)
	}

	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic(fmt.Sprintf("can't unmarshal config file %s: %v", configPath, err))
	}
}

func mustValidate(v interface{}) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(v); err != nil {
		panic(fmt.Sprintf("invalid config: %v", err))
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)
	public.Defaults()
	mustValidate(&public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)
	mustValidate(&private)

	return &Config{Public: public, Private: private}
}
