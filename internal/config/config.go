package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	// EnvConfigFile names an optional TOML file merged over the defaults.
	EnvConfigFile = "CROPFOLDER_CONFIG"
	// DefaultOutputDirectory is the subfolder of the target folder receiving crops.
	DefaultOutputDirectory = "cropped"
)

// ErrConfiguration marks startup problems that must stop the process.
var ErrConfiguration = errors.New("configuration error")

// DefaultImageExtensions lists the extensions scanned when nothing else is configured.
var DefaultImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

type Config struct {
	TargetFolder    string
	Host            string
	Port            int
	OutputDirectory string
	LogDirectory    string
	JPEGQuality     int
	WebPQuality     int
	ImageExtensions []string
	OpenBrowser     bool
	ShutdownTimeout time.Duration
}

// fileConfig is the layout of the TOML file. Absent keys stay zero and leave
// the defaults alone.
type fileConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	OutputDirectory string   `toml:"output_dir"`
	LogDirectory    string   `toml:"log_dir"`
	JPEGQuality     int      `toml:"jpeg_quality"`
	WebPQuality     int      `toml:"webp_quality"`
	ImageExtensions []string `toml:"image_extensions"`
	OpenBrowser     *bool    `toml:"open_browser"`
	ShutdownTimeout string   `toml:"shutdown_timeout"`
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() *Config {
	return &Config{
		Host:            "localhost",
		Port:            3000,
		OutputDirectory: DefaultOutputDirectory,
		JPEGQuality:     90,
		WebPQuality:     90,
		ImageExtensions: append([]string(nil), DefaultImageExtensions...),
		OpenBrowser:     true,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Load builds the configuration from defaults, a .env file, an optional TOML
// file and environment variables, in that order.
func Load() (*Config, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.loadEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read config %s: %v", ErrConfiguration, path, err)
	}

	var file fileConfig
	if err := toml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("%w: parse config %s: %v", ErrConfiguration, path, err)
	}

	if err := file.apply(c); err != nil {
		return fmt.Errorf("%w: config %s: %v", ErrConfiguration, path, err)
	}
	return nil
}

// apply copies every key present in the file onto c.
func (f *fileConfig) apply(c *Config) error {
	if f.Host != "" {
		c.Host = f.Host
	}
	if f.Port != 0 {
		c.Port = f.Port
	}
	if f.OutputDirectory != "" {
		c.OutputDirectory = f.OutputDirectory
	}
	if f.LogDirectory != "" {
		c.LogDirectory = f.LogDirectory
	}
	if f.JPEGQuality != 0 {
		c.JPEGQuality = f.JPEGQuality
	}
	if f.WebPQuality != 0 {
		c.WebPQuality = f.WebPQuality
	}
	if len(f.ImageExtensions) > 0 {
		c.ImageExtensions = normalizeExtensions(f.ImageExtensions)
	}
	if f.OpenBrowser != nil {
		c.OpenBrowser = *f.OpenBrowser
	}
	if f.ShutdownTimeout != "" {
		d, err := time.ParseDuration(f.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("shutdown_timeout: %v", err)
		}
		c.ShutdownTimeout = d
	}
	return nil
}

func (c *Config) loadEnv() {
	c.Host = getEnv("HOST", c.Host)
	c.Port = getEnvAsInt("PORT", c.Port)
	c.OutputDirectory = getEnv("OUTPUT_DIR", c.OutputDirectory)
	c.LogDirectory = getEnv("LOG_DIR", c.LogDirectory)
	c.JPEGQuality = getEnvAsInt("JPEG_QUALITY", c.JPEGQuality)
	c.WebPQuality = getEnvAsInt("WEBP_QUALITY", c.WebPQuality)
	c.OpenBrowser = getEnvAsBool("OPEN_BROWSER", c.OpenBrowser)
	c.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)

	if value := os.Getenv("IMAGE_EXTENSIONS"); value != "" {
		c.ImageExtensions = normalizeExtensions(strings.Split(value, ","))
	}
}

// Validate checks the settings and the target folder.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrConfiguration, c.Port)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("%w: jpeg quality must be between 1 and 100", ErrConfiguration)
	}
	if c.WebPQuality < 1 || c.WebPQuality > 100 {
		return fmt.Errorf("%w: webp quality must be between 1 and 100", ErrConfiguration)
	}
	if len(c.ImageExtensions) == 0 {
		return fmt.Errorf("%w: no image extensions configured", ErrConfiguration)
	}
	if c.OutputDirectory == "" || strings.ContainsAny(c.OutputDirectory, `/\`) {
		return fmt.Errorf("%w: output directory must be a plain folder name", ErrConfiguration)
	}

	if c.TargetFolder == "" {
		return fmt.Errorf("%w: no target folder given", ErrConfiguration)
	}
	info, err := os.Stat(c.TargetFolder)
	if err != nil {
		return fmt.Errorf("%w: %s does not exist", ErrConfiguration, c.TargetFolder)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrConfiguration, c.TargetFolder)
	}
	return nil
}

// Address returns the host:port the HTTP server listens on.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// URL returns the browser address of the UI.
func (c *Config) URL() string {
	return fmt.Sprintf("http://%s", c.Address())
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
