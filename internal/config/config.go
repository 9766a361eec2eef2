package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/hydrate/internal/notify"
	"github.com/sandeepkv93/hydrate/internal/storage"
)

const envPrefix = "HYDRATE_"

type Config struct {
	DataDir         string        `yaml:"data_dir"`
	DBPath          string        `yaml:"db_path"`
	Driver          string        `yaml:"driver"`
	LogLevel        string        `yaml:"log_level"`
	LogFile         string        `yaml:"log_file"`
	LogJSON         bool          `yaml:"log_json"`
	Notifications   notify.Mode   `yaml:"notifications"`
	ReminderMessage string        `yaml:"reminder_message"`
	SchedulerBuffer int           `yaml:"scheduler_buffer"`
	PersistTimeout  time.Duration `yaml:"persist_timeout"`
	MetricsAddr     string        `yaml:"metrics_addr"`
	StatsDays       int           `yaml:"stats_days"`
}

func Default() Config {
	return Config{
		DataDir:         defaultDataDir(),
		Driver:          storage.DriverCGO,
		LogLevel:        "info",
		Notifications:   notify.ModeDesktop,
		ReminderMessage: "Time to drink some water",
		SchedulerBuffer: 64,
		PersistTimeout:  5 * time.Second,
		StatsDays:       7,
	}
}

func defaultDataDir() string {
	if dir := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); dir != "" {
		return filepath.Join(dir, "hydrate")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hydrate"
	}
	return filepath.Join(home, ".local", "share", "hydrate")
}

// LoadOption adjusts how Load resolves the configuration.
type LoadOption func(*loadOptions)

type loadOptions struct {
	dataDir string
}

// WithDataDir pins the data directory. It decides where the default
// config.yaml is read from and wins over the file and HYDRATE_DATA_DIR.
func WithDataDir(dir string) LoadOption {
	return func(o *loadOptions) {
		o.dataDir = strings.TrimSpace(dir)
	}
}

// Load layers the configuration: defaults, then the YAML file, then .env,
// then HYDRATE_* variables. An explicit path must exist; the default
// <data dir>/config.yaml is optional.
func Load(path string, opts ...LoadOption) (Config, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	cfg := Default()
	if dir, ok := getEnvString(envPrefix + "DATA_DIR"); ok {
		cfg.DataDir = dir
	}
	if o.dataDir != "" {
		cfg.DataDir = o.dataDir
	}

	explicit := path != ""
	if !explicit {
		path = filepath.Join(cfg.DataDir, "config.yaml")
	}
	if err := mergeFile(&cfg, path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			err = nil
		}
		if err != nil {
			return Config{}, err
		}
	}

	cfg = FromEnv(cfg)
	if o.dataDir != "" {
		cfg.DataDir = o.dataDir
	}
	cfg = cfg.Resolved()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func mergeFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// FromEnv applies HYDRATE_* overrides. Unparseable values are ignored.
func FromEnv(base Config) Config {
	cfg := base
	if v, ok := getEnvString(envPrefix + "DATA_DIR"); ok {
		cfg.DataDir = v
	}
	if v, ok := getEnvString(envPrefix + "DB"); ok {
		cfg.DBPath = v
	}
	if v, ok := getEnvString(envPrefix + "DRIVER"); ok {
		cfg.Driver = v
	}
	if v, ok := getEnvString(envPrefix + "LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := getEnvString(envPrefix + "LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v, ok := getEnvBool(envPrefix + "LOG_JSON"); ok {
		cfg.LogJSON = v
	}
	if v, ok := getEnvString(envPrefix + "NOTIFICATIONS"); ok {
		cfg.Notifications = notificationMode(v)
	}
	if v, ok := getEnvString(envPrefix + "REMINDER_MESSAGE"); ok {
		cfg.ReminderMessage = v
	}
	if v, ok := getEnvInt(envPrefix + "SCHEDULER_BUFFER"); ok && v > 0 {
		cfg.SchedulerBuffer = v
	}
	if v, ok := getEnvDuration(envPrefix + "PERSIST_TIMEOUT"); ok && v >= 0 {
		cfg.PersistTimeout = v
	}
	if v, ok := getEnvString(envPrefix + "METRICS_ADDR"); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := getEnvInt(envPrefix + "STATS_DAYS"); ok && v > 0 {
		cfg.StatsDays = v
	}
	return cfg
}

// notificationMode also accepts boolean spellings: true means desktop and
// false means off.
func notificationMode(raw string) notify.Mode {
	if v, ok := parseBool(raw); ok {
		if v {
			return notify.ModeDesktop
		}
		return notify.ModeOff
	}
	return notify.Mode(strings.ToLower(strings.TrimSpace(raw)))
}

// Resolved fills paths derived from DataDir.
func (c Config) Resolved() Config {
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "hydrate.db")
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.DataDir, "hydrate.log")
	}
	return c
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("config: data dir is required")
	}
	if !storage.ValidDriver(c.Driver) {
		return fmt.Errorf("config: unsupported driver %q (want %s or %s)", c.Driver, storage.DriverCGO, storage.DriverPureGo)
	}
	if !c.Notifications.IsValid() {
		return fmt.Errorf("config: unsupported notifications mode %q", c.Notifications)
	}
	if c.SchedulerBuffer <= 0 {
		return errors.New("config: scheduler buffer must be positive")
	}
	if c.StatsDays <= 0 {
		return errors.New("config: stats days must be positive")
	}
	return nil
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return "", false
	}
	return raw, true
}

func getEnvInt(name string) (int, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvDuration(name string) (time.Duration, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return 0, false
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return false, false
	}
	return parseBool(raw)
}

func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
