package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadValidFullConfigAndResolveRelativePaths(t *testing.T) {
	tmp := t.TempDir()
	outputDir := filepath.Join(tmp, "scans")
	if err := os.Mkdir(outputDir, 0o755); err != nil {
		t.Fatalf("mkdir output dir: %v", err)
	}

	cfgPath := filepath.Join(tmp, "config.yaml")
	cfgYAML := `
connexion:
  transport: serial
  address: /dev/ttyUSB0
  baud_rate: 115200
scan:
  doc_source: main
  resolution: 300
  output_dir: scans
runtime:
  pedantic: false
  debug: false
`
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Scan.OutputDir != outputDir {
		t.Fatalf("expected resolved output dir %q, got %q", outputDir, cfg.Scan.OutputDir)
	}
}

func TestLoadWithModeProbeOnlyAllowsMinimalConfig(t *testing.T) {
	cfgPath := writeConfig(t, `
connexion:
  transport: serial
  address: /dev/ttyUSB0
`)

	cfg, err := LoadWithMode(cfgPath, ValidationProbeOnly)
	if err != nil {
		t.Fatalf("LoadWithMode returned error: %v", err)
	}
	if cfg.Connexion.Address != "/dev/ttyUSB0" {
		t.Fatalf("expected address to round-trip, got %q", cfg.Connexion.Address)
	}
}

func TestLoadFailsWithoutTransport(t *testing.T) {
	cfgPath := writeConfig(t, `
connexion:
  address: /dev/ttyUSB0
`)

	_, err := LoadWithMode(cfgPath, ValidationProbeOnly)
	if err == nil || !strings.Contains(err.Error(), "config.connexion.transport is required") {
		t.Fatalf("expected missing transport error, got %v", err)
	}
}

func TestLoadFailsOnUnknownTransport(t *testing.T) {
	cfgPath := writeConfig(t, `
connexion:
  transport: usb
  address: /dev/ttyUSB0
`)

	_, err := LoadWithMode(cfgPath, ValidationProbeOnly)
	if err == nil || !strings.Contains(err.Error(), "must be serial or tcp") {
		t.Fatalf("expected unknown transport error, got %v", err)
	}
}

func TestLoadFullFailsWithoutBaudRateForSerial(t *testing.T) {
	cfgPath := writeConfig(t, `
connexion:
  transport: serial
  address: /dev/ttyUSB0
`)

	_, err := Load(cfgPath)
	if err == nil || !strings.Contains(err.Error(), "config.connexion.baud_rate is required") {
		t.Fatalf("expected missing baud rate error, got %v", err)
	}
}

func TestLoadFullFailsOnMissingOutputDir(t *testing.T) {
	cfgPath := writeConfig(t, `
connexion:
  transport: serial
  address: /dev/ttyUSB0
  baud_rate: 9600
scan:
  output_dir: does-not-exist
`)

	_, err := Load(cfgPath)
	if err == nil || !strings.Contains(err.Error(), "config.scan.output_dir") {
		t.Fatalf("expected missing output dir error, got %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath
}
