package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadProjectConfigDefaultsWhenMissing(t *testing.T) {
	projectDir := t.TempDir()
	dataDir := filepath.Join(projectDir, ProjectDirName)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		t.Fatal(err)
	}
	c := &Config{ProjectDir: projectDir, DataDir: dataDir, Project: defaultProjectConfig()}
	if err := c.loadProjectConfig(); err != nil {
		t.Fatalf("loadProjectConfig returned error: %v", err)
	}
	if c.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Project.Version)
	}
	if c.GatewayURL() != DefaultGatewayURL {
		t.Fatalf("expected default gateway %q, got %q", DefaultGatewayURL, c.GatewayURL())
	}
	if c.UploadTimeout() != 30*time.Second {
		t.Fatalf("expected 30s upload timeout, got %s", c.UploadTimeout())
	}
	if !c.IncludeExamine() {
		t.Fatalf("expected examine step to be enabled by default")
	}
	if c.MaxUploadBytes() != 50<<20 {
		t.Fatalf("unexpected max upload bytes %d", c.MaxUploadBytes())
	}
	if c.DownloadDir() != filepath.Join(dataDir, "downloads") {
		t.Fatalf("unexpected download dir %s", c.DownloadDir())
	}
}

func TestLoadProjectConfigParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	dataDir := filepath.Join(projectDir, ProjectDirName)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
gateway:
  base_url: https://courses.example.com/
  upload_timeout: 45s
  content_timeout: 90
wizard:
  include_examine: false
audio:
  player: "  mpg123 "
export:
  download_dir: exports
`)
	if err := os.WriteFile(filepath.Join(dataDir, "config.yaml"), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}
	c := &Config{ProjectDir: projectDir, DataDir: dataDir, Project: defaultProjectConfig()}
	if err := c.loadProjectConfig(); err != nil {
		t.Fatalf("loadProjectConfig returned error: %v", err)
	}
	if c.GatewayURL() != "https://courses.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %s", c.GatewayURL())
	}
	if c.UploadTimeout() != 45*time.Second {
		t.Fatalf("wrong upload timeout: %s", c.UploadTimeout())
	}
	if c.ContentTimeout() != 90*time.Second {
		t.Fatalf("wrong content timeout: %s", c.ContentTimeout())
	}
	if c.IncludeExamine() {
		t.Fatalf("expected examine step disabled")
	}
	if c.AudioPlayer() != "mpg123" {
		t.Fatalf("expected trimmed player, got %q", c.AudioPlayer())
	}
	if !strings.HasPrefix(c.DownloadDir(), projectDir) {
		t.Fatalf("expected download dir resolved against project, got %s", c.DownloadDir())
	}
}

func TestLoadProjectConfigValidation(t *testing.T) {
	projectDir := t.TempDir()
	dataDir := filepath.Join(projectDir, ProjectDirName)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
gateway:
  base_url: ftp://courses.example.com
`)
	if err := os.WriteFile(filepath.Join(dataDir, "config.yaml"), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}
	c := &Config{ProjectDir: projectDir, DataDir: dataDir, Project: defaultProjectConfig()}
	if err := c.loadProjectConfig(); err == nil {
		t.Fatalf("expected validation error but got none")
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitDir(projectDir); err != nil {
		t.Fatalf("InitDir: %v", err)
	}
	t.Setenv("COURSE_CREATOR_GATEWAY_URL", "http://10.0.0.5:8000")
	t.Setenv("COURSE_CREATOR_UPLOAD_TIMEOUT", "5s")
	t.Setenv("COURSE_CREATOR_DEV_PORT", "6060")

	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if c.GatewayURL() != "http://10.0.0.5:8000" {
		t.Fatalf("env gateway not applied: %s", c.GatewayURL())
	}
	if c.UploadTimeout() != 5*time.Second {
		t.Fatalf("env upload timeout not applied: %s", c.UploadTimeout())
	}
	if c.DevGatewayAddress() != "127.0.0.1:6060" {
		t.Fatalf("unexpected dev address %s", c.DevGatewayAddress())
	}
}

func TestInitDirCreatesLayout(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitDir(projectDir); err != nil {
		t.Fatalf("InitDir: %v", err)
	}
	for _, sub := range []string{"logs", "downloads", "audio", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(projectDir, ProjectDirName, sub)); err != nil {
			t.Fatalf("expected %s to exist: %v", sub, err)
		}
	}
	// A second call must leave an edited config alone.
	path := filepath.Join(projectDir, ProjectDirName, "config.yaml")
	if err := os.WriteFile(path, []byte("version: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := InitDir(projectDir); err != nil {
		t.Fatalf("InitDir second call: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "version: 2\n" {
		t.Fatalf("config overwritten: %q", data)
	}
}

func TestSetGatewayURLRejectsGarbage(t *testing.T) {
	c := &Config{Project: defaultProjectConfig()}
	if err := c.SetGatewayURL("not a url"); err == nil {
		t.Fatalf("expected error")
	}
	if err := c.SetGatewayURL("http://127.0.0.1:5055/"); err != nil {
		t.Fatalf("SetGatewayURL: %v", err)
	}
	if c.GatewayURL() != "http://127.0.0.1:5055" {
		t.Fatalf("got %s", c.GatewayURL())
	}
}
