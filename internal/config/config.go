package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/DoyleJ11/raffle-slots/internal/slot"
)

type Config struct {
	Addr              string   `yaml:"addr"`
	DatabaseURL       string   `yaml:"database_url"`
	NATSURL           string   `yaml:"nats_url"`
	LogLevel          string   `yaml:"log_level"`
	LogDev            bool     `yaml:"log_dev"`
	CORSOrigins       []string `yaml:"cors_origins"`
	AdminUser         string   `yaml:"admin_user"`
	AdminPasswordHash string   `yaml:"admin_password_hash"`
	Slot              Slot     `yaml:"slot"`
}

// Slot configures the live tables.
type Slot struct {
	Timing slot.Timing `yaml:"timing"`
	Mode   slot.Mode   `yaml:"mode"`
}

func Default() Config {
	return Config{
		Addr:        ":8080",
		LogLevel:    "info",
		CORSOrigins: []string{"*"},
		Slot: Slot{
			Timing: slot.DefaultTiming(),
			Mode:   slot.DefaultMode(),
		},
	}
}

// LoadDotenv reads .env style files into the process environment. Missing
// files are not an error.
func LoadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load starts from the defaults, applies the YAML file at path (if any) and
// then environment overrides. getenv is usually os.Getenv.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return Config{}, err
	}

	setString(&cfg.Addr, getenv("ADDR"))
	setString(&cfg.DatabaseURL, getenv("DATABASE_URL"))
	setString(&cfg.NATSURL, getenv("NATS_URL"))
	setString(&cfg.LogLevel, getenv("LOG_LEVEL"))
	setString(&cfg.AdminUser, getenv("ADMIN_USER"))
	setString(&cfg.AdminPasswordHash, getenv("ADMIN_PASSWORD_HASH"))
	if v := getenv("LOG_DEV"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("LOG_DEV: %w", err)
		}
		cfg.LogDev = b
	}
	if v := getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadSlot reads only the slot section, for clients that never touch the
// database.
func LoadSlot(path string) (Slot, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return Slot{}, err
	}
	if err := cfg.Slot.Validate(); err != nil {
		return Slot{}, err
	}
	return cfg.Slot, nil
}

func loadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	return c.Slot.Validate()
}

func (s Slot) Validate() error {
	t := s.Timing
	if t.Tick <= 0 || t.RepeatEvery <= 0 {
		return errors.New("slot timing: tick and repeat_every must be positive")
	}
	if len(t.Stops) != slot.NumLanes {
		return fmt.Errorf("slot timing: want %d stops, got %d", slot.NumLanes, len(t.Stops))
	}
	return nil
}

// CreationEnabled reports whether raffle uploads can be authenticated.
func (c Config) CreationEnabled() bool {
	return c.AdminUser != "" && c.AdminPasswordHash != ""
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
