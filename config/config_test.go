package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Test target defaults
	if cfg.Target.XLEN != 32 {
		t.Errorf("Expected XLEN=32, got %d", cfg.Target.XLEN)
	}
	if cfg.Target.DataBase != "0x2000" {
		t.Errorf("Expected DataBase=0x2000, got %s", cfg.Target.DataBase)
	}
	if cfg.Target.Extensions != "M,Zicsr,Zifencei" {
		t.Errorf("Expected Extensions=M,Zicsr,Zifencei, got %s", cfg.Target.Extensions)
	}

	// Test display defaults
	if cfg.Display.BytesPerLine != 16 {
		t.Errorf("Expected BytesPerLine=16, got %d", cfg.Display.BytesPerLine)
	}
	if cfg.Display.NumberFormat != "hex" {
		t.Errorf("Expected NumberFormat=hex, got %s", cfg.Display.NumberFormat)
	}

	// Test server defaults
	if cfg.Server.ListenAddr != "127.0.0.1:8080" {
		t.Errorf("Expected ListenAddr=127.0.0.1:8080, got %s", cfg.Server.ListenAddr)
	}
	if !cfg.Server.EnableWebSocket {
		t.Error("Expected EnableWebSocket=true")
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Expected Level=info, got %s", cfg.Logging.Level)
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()

	// Verify path is not empty
	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}

	// Verify path ends with config.toml
	if filepath.Base(path) != "config.toml" {
		t.Errorf("Expected path to end with config.toml, got %s", path)
	}

	// Platform-specific checks
	switch runtime.GOOS {
	case "windows":
		// Should contain rvasm
		if !filepath.IsAbs(path) && path != "config.toml" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}

	case "darwin", "linux":
		// Should be in .config/rvasm or be fallback
		dir := filepath.Dir(path)
		if filepath.Base(dir) != "rvasm" && path != "config.toml" {
			t.Errorf("Expected path in rvasm directory or fallback, got %s", path)
		}
	}
}

func TestGetLogPath(t *testing.T) {
	path := GetLogPath()

	// Verify path is not empty
	if path == "" {
		t.Error("GetLogPath returned empty string")
	}

	// Platform-specific checks
	switch runtime.GOOS {
	case "windows":
		// Should contain rvasm\logs or be fallback
		if !filepath.IsAbs(path) && path != "logs" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}

	case "darwin", "linux":
		// Should be in .local/share/rvasm/logs or be fallback
		if filepath.Base(path) != "logs" {
			t.Errorf("Expected path to end with logs, got %s", path)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	// Create a temporary directory for testing
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	// Create a config with custom values
	cfg := DefaultConfig()
	cfg.Target.XLEN = 64
	cfg.Target.AllowNumericCSR = true
	cfg.Display.ColorOutput = false
	cfg.Server.ListenAddr = "0.0.0.0:9090"

	// Save config
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	// Verify file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	// Load config
	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify values match
	if loaded.Target.XLEN != 64 {
		t.Errorf("Expected XLEN=64, got %d", loaded.Target.XLEN)
	}
	if !loaded.Target.AllowNumericCSR {
		t.Error("Expected AllowNumericCSR=true")
	}
	if loaded.Display.ColorOutput {
		t.Error("Expected ColorOutput=false")
	}
	if loaded.Server.ListenAddr != "0.0.0.0:9090" {
		t.Errorf("Expected ListenAddr=0.0.0.0:9090, got %s", loaded.Server.ListenAddr)
	}
}

func TestLoadNonExistent(t *testing.T) {
	// Try to load from a non-existent file
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	// Should return default config without error
	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom should not error on non-existent file: %v", err)
	}

	// Verify we got default config
	if cfg.Target.XLEN != 32 {
		t.Error("Expected default config when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	// Create a temporary file with invalid TOML
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[target]
xlen = "not a number"  # Invalid: should be int
`
	if err := os.WriteFile(configPath, []byte(invalidTOML), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	// Should return error
	_, err := LoadFrom(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid TOML")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	// Create a temporary directory
	tempDir := t.TempDir()

	// Try to save to a path with non-existent subdirectories
	configPath := filepath.Join(tempDir, "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}

	// Verify directories were created
	dir := filepath.Dir(configPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("Parent directories were not created")
	}
}
