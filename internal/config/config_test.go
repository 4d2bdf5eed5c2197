package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
nats:
  url: "nats://localhost:4222"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port = %d; want 8080", cfg.Server.Port)
	}
	if cfg.NATS.ImageSubject != "camera.image" {
		t.Errorf("image subject = %q; want camera.image", cfg.NATS.ImageSubject)
	}
	if cfg.NATS.CameraCommandSubject != "camera.command" {
		t.Errorf("camera command subject = %q", cfg.NATS.CameraCommandSubject)
	}
	if cfg.NATS.LockerCommandSubject != "locker.command" {
		t.Errorf("locker command subject = %q", cfg.NATS.LockerCommandSubject)
	}
	if cfg.Vision.Tolerance != 0.5 {
		t.Errorf("tolerance = %v; want 0.5", cfg.Vision.Tolerance)
	}
	if cfg.Approval.Timeout != 5*time.Minute {
		t.Errorf("approval timeout = %v; want 5m", cfg.Approval.Timeout)
	}
	if cfg.Approval.SweepInterval != 30*time.Second {
		t.Errorf("sweep interval = %v; want 30s", cfg.Approval.SweepInterval)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %q/%q", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoad_ParsesValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
vision:
  tolerance: 0.35
approval:
  timeout: 10m
  sweep_interval: 5s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server port = %d; want 9090", cfg.Server.Port)
	}
	if cfg.Vision.Tolerance != 0.35 {
		t.Errorf("tolerance = %v; want 0.35", cfg.Vision.Tolerance)
	}
	if cfg.Approval.Timeout != 10*time.Minute {
		t.Errorf("approval timeout = %v; want 10m", cfg.Approval.Timeout)
	}
	if cfg.Approval.SweepInterval != 5*time.Second {
		t.Errorf("sweep interval = %v; want 5s", cfg.Approval.SweepInterval)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SE_NATS_URL", "nats://override:4222")
	t.Setenv("SE_TOLERANCE", "0.6")

	path := writeConfig(t, `
nats:
  url: "nats://file:4222"
vision:
  tolerance: 0.4
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NATS.URL != "nats://override:4222" {
		t.Errorf("nats url = %q; env override lost", cfg.NATS.URL)
	}
	if cfg.Vision.Tolerance != 0.6 {
		t.Errorf("tolerance = %v; env override lost", cfg.Vision.Tolerance)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, Name: "secure_entry", User: "app", Password: "secret"}
	want := "postgres://app:secret@db:5432/secure_entry?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q; want %q", got, want)
	}
}
