// internal/config/config.go
//
// This package handles configuration and the .coursecreator directory structure.
// Every project that runs the course creator gets a .coursecreator/ folder in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// ProjectDirName is the name of the directory we create in each project
	ProjectDirName = ".coursecreator"

	DefaultGatewayURL     = "http://localhost:5000"
	DefaultUploadTimeout  = 30 * time.Second
	DefaultContentTimeout = 60 * time.Second
	// DefaultMaxUploadBytes mirrors the 50 MB cap the generation backend enforces.
	DefaultMaxUploadBytes int64 = 50 << 20
	DefaultDevHost              = "127.0.0.1"
	DefaultDevPort              = 5055
)

const defaultProjectConfigYAML = `# course creator project configuration
version: 1

gateway:
  base_url: http://localhost:5000
  upload_timeout: 30s
  content_timeout: 60s

wizard:
  # Adds the Examine review step between Learning Path and Outcome for course exports.
  include_examine: true

uploads:
  max_bytes: 52428800

audio:
  # Command used to play lesson speech, e.g. mpg123 or afplay. Leave empty to only save clips.
  player: ""

export:
  download_dir: ""

devgateway:
  host: 127.0.0.1
  port: 5055
`

// GatewayConfig points the client at the remote content-generation API.
type GatewayConfig struct {
	BaseURL        string   `yaml:"base_url"`
	UploadTimeout  Duration `yaml:"upload_timeout"`
	ContentTimeout Duration `yaml:"content_timeout"`
}

// WizardConfig shapes the step topology.
type WizardConfig struct {
	IncludeExamine *bool `yaml:"include_examine,omitempty"`
}

// UploadConfig bounds local source files before they are sent.
type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

// AudioConfig selects how lesson speech is played.
type AudioConfig struct {
	Player string `yaml:"player"`
}

// ExportConfig controls where generated documents are downloaded.
type ExportConfig struct {
	DownloadDir string `yaml:"download_dir"`
}

// DevGatewayConfig configures the offline stand-in API.
type DevGatewayConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ProjectConfig models .coursecreator/config.yaml.
type ProjectConfig struct {
	Version    int              `yaml:"version"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Wizard     WizardConfig     `yaml:"wizard"`
	Uploads    UploadConfig     `yaml:"uploads"`
	Audio      AudioConfig      `yaml:"audio"`
	Export     ExportConfig     `yaml:"export"`
	DevGateway DevGatewayConfig `yaml:"devgateway"`
}

// Config holds the runtime configuration for the course creator.
type Config struct {
	// ProjectDir is the directory the user launched the wizard from
	ProjectDir string

	// DataDir is ProjectDir/.coursecreator
	DataDir string

	Project ProjectConfig
}

// Duration is a time.Duration that reads and writes Go duration strings in YAML.
type Duration time.Duration

// UnmarshalYAML accepts "30s" style strings or a bare number of seconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*d = 0
		return nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q", raw)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration back as a Go duration string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// InitDir creates the .coursecreator directory structure in the given project directory.
//
// Structure created:
// .coursecreator/
// ├── logs/        <- session log
// ├── downloads/   <- exported PowerPoint / PDF files
// ├── audio/       <- lesson speech clips
// └── config.yaml
func InitDir(projectDir string) error {
	dataDir := filepath.Join(projectDir, ProjectDirName)
	dirs := []string{
		filepath.Join(dataDir, "logs"),
		filepath.Join(dataDir, "downloads"),
		filepath.Join(dataDir, "audio"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(dataDir, "config.yaml"))
}

// NewConfig creates a new Config populated from .env, config.yaml and the environment.
func NewConfig(projectDir string) (*Config, error) {
	// A missing .env is normal; only the process environment applies then.
	_ = godotenv.Load(filepath.Join(projectDir, ".env"))

	cfg := &Config{
		ProjectDir: projectDir,
		DataDir:    filepath.Join(projectDir, ProjectDirName),
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// LogPath returns the session log file path
func (c *Config) LogPath() string {
	return filepath.Join(c.LogsDir(), "session.log")
}

// AudioDir returns where speech clips are written
func (c *Config) AudioDir() string {
	return filepath.Join(c.DataDir, "audio")
}

// DownloadDir returns where exported documents are saved
func (c *Config) DownloadDir() string {
	if dir := strings.TrimSpace(c.Project.Export.DownloadDir); dir != "" {
		return dir
	}
	return filepath.Join(c.DataDir, "downloads")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.DataDir, "config.yaml")
}

// GatewayURL returns the base origin of the content-generation API.
func (c *Config) GatewayURL() string {
	return c.Project.Gateway.BaseURL
}

// UploadTimeout bounds the upload/generation call.
func (c *Config) UploadTimeout() time.Duration {
	return c.Project.Gateway.UploadTimeout.Std()
}

// ContentTimeout bounds every other content call.
func (c *Config) ContentTimeout() time.Duration {
	return c.Project.Gateway.ContentTimeout.Std()
}

// IncludeExamine reports whether course exports get the Examine review step.
func (c *Config) IncludeExamine() bool {
	if c.Project.Wizard.IncludeExamine == nil {
		return true
	}
	return *c.Project.Wizard.IncludeExamine
}

// MaxUploadBytes returns the per-file size cap.
func (c *Config) MaxUploadBytes() int64 {
	return c.Project.Uploads.MaxBytes
}

// AudioPlayer returns the configured playback command, if any.
func (c *Config) AudioPlayer() string {
	return c.Project.Audio.Player
}

// DevGatewayAddress returns host:port for the offline gateway.
func (c *Config) DevGatewayAddress() string {
	return net.JoinHostPort(c.Project.DevGateway.Host, strconv.Itoa(c.Project.DevGateway.Port))
}

// SetGatewayURL points the client at a different origin for this run only.
func (c *Config) SetGatewayURL(raw string) error {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if err := validateBaseURL(raw); err != nil {
		return fmt.Errorf("config: gateway.base_url: %w", err)
	}
	c.Project.Gateway.BaseURL = raw
	return nil
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	parsed.applyDefaults()
	parsed.applyEnvOverrides()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Gateway: GatewayConfig{
			BaseURL:        DefaultGatewayURL,
			UploadTimeout:  Duration(DefaultUploadTimeout),
			ContentTimeout: Duration(DefaultContentTimeout),
		},
		Uploads:    UploadConfig{MaxBytes: DefaultMaxUploadBytes},
		DevGateway: DevGatewayConfig{Host: DefaultDevHost, Port: DefaultDevPort},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Gateway.BaseURL) == "" {
		pc.Gateway.BaseURL = DefaultGatewayURL
	}
	if pc.Gateway.UploadTimeout <= 0 {
		pc.Gateway.UploadTimeout = Duration(DefaultUploadTimeout)
	}
	if pc.Gateway.ContentTimeout <= 0 {
		pc.Gateway.ContentTimeout = Duration(DefaultContentTimeout)
	}
	if pc.Uploads.MaxBytes <= 0 {
		pc.Uploads.MaxBytes = DefaultMaxUploadBytes
	}
	if strings.TrimSpace(pc.DevGateway.Host) == "" {
		pc.DevGateway.Host = DefaultDevHost
	}
	if pc.DevGateway.Port == 0 {
		pc.DevGateway.Port = DefaultDevPort
	}
}

func (pc *ProjectConfig) applyEnvOverrides() {
	if value := strings.TrimSpace(os.Getenv("COURSE_CREATOR_GATEWAY_URL")); value != "" {
		pc.Gateway.BaseURL = value
	}
	if value := strings.TrimSpace(os.Getenv("COURSE_CREATOR_UPLOAD_TIMEOUT")); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			pc.Gateway.UploadTimeout = Duration(d)
		}
	}
	if value := strings.TrimSpace(os.Getenv("COURSE_CREATOR_CONTENT_TIMEOUT")); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			pc.Gateway.ContentTimeout = Duration(d)
		}
	}
	if value := strings.TrimSpace(os.Getenv("COURSE_CREATOR_INCLUDE_EXAMINE")); value != "" {
		if include, err := strconv.ParseBool(value); err == nil {
			pc.Wizard.IncludeExamine = &include
		}
	}
	if value := strings.TrimSpace(os.Getenv("COURSE_CREATOR_AUDIO_PLAYER")); value != "" {
		pc.Audio.Player = value
	}
	if value := strings.TrimSpace(os.Getenv("COURSE_CREATOR_DEV_PORT")); value != "" {
		if port, err := strconv.Atoi(value); err == nil {
			pc.DevGateway.Port = port
		}
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Gateway.BaseURL = strings.TrimRight(strings.TrimSpace(pc.Gateway.BaseURL), "/")
	pc.Audio.Player = strings.TrimSpace(pc.Audio.Player)
	pc.Export.DownloadDir = resolvePath(base, pc.Export.DownloadDir)
	pc.DevGateway.Host = strings.TrimSpace(pc.DevGateway.Host)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if err := validateBaseURL(pc.Gateway.BaseURL); err != nil {
		return fmt.Errorf("gateway.base_url: %w", err)
	}
	if pc.Gateway.UploadTimeout <= 0 {
		return fmt.Errorf("gateway.upload_timeout must be positive")
	}
	if pc.Gateway.ContentTimeout <= 0 {
		return fmt.Errorf("gateway.content_timeout must be positive")
	}
	if pc.Uploads.MaxBytes <= 0 {
		return fmt.Errorf("uploads.max_bytes must be positive")
	}
	if pc.DevGateway.Port < 0 || pc.DevGateway.Port > 65535 {
		return fmt.Errorf("devgateway.port must be between 0 and 65535")
	}
	return nil
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if parsed.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
