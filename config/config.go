package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config represents the assembler's persistent configuration
type Config struct {
	// Target settings
	Target struct {
		XLEN            int    `toml:"xlen"` // 32 or 64
		TextBase        string `toml:"text_base"`
		DataBase        string `toml:"data_base"`
		Extensions      string `toml:"extensions"` // comma-separated: "M,Zicsr,Zifencei"
		AllowNumericCSR bool   `toml:"allow_numeric_csr"`
	} `toml:"target"`

	// Catalog settings
	Catalog struct {
		InstructionsPath string `toml:"instructions_path"` // empty: use the embedded default
		PseudoPath       string `toml:"pseudo_path"`
	} `toml:"catalog"`

	// Display settings
	Display struct {
		ColorOutput    bool   `toml:"color_output"`
		BytesPerLine   int    `toml:"bytes_per_line"`
		NumberFormat   string `toml:"number_format"` // hex, dec, both
		ShowEncoding   bool   `toml:"show_encoding"`
		ListingContext int    `toml:"listing_context"`
	} `toml:"display"`

	// Server settings, for the assemble/decode API
	Server struct {
		ListenAddr      string `toml:"listen_addr"`
		EnableWebSocket bool   `toml:"enable_websocket"`
		MaxRequestBytes int    `toml:"max_request_bytes"`
	} `toml:"server"`

	// Logging settings
	Logging struct {
		OutputFile string `toml:"output_file"`
		Level      string `toml:"level"` // debug, info, warn, error
		JSON       bool   `toml:"json"`
	} `toml:"logging"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Target defaults
	cfg.Target.XLEN = 32
	cfg.Target.TextBase = "0x0"
	cfg.Target.DataBase = "0x2000"
	cfg.Target.Extensions = "M,Zicsr,Zifencei"
	cfg.Target.AllowNumericCSR = false

	// Catalog defaults
	cfg.Catalog.InstructionsPath = ""
	cfg.Catalog.PseudoPath = ""

	// Display defaults
	cfg.Display.ColorOutput = true
	cfg.Display.BytesPerLine = 16
	cfg.Display.NumberFormat = "hex"
	cfg.Display.ShowEncoding = true
	cfg.Display.ListingContext = 5

	// Server defaults
	cfg.Server.ListenAddr = "127.0.0.1:8080"
	cfg.Server.EnableWebSocket = true
	cfg.Server.MaxRequestBytes = 1 << 20

	// Logging defaults
	cfg.Logging.OutputFile = "rvasm.log"
	cfg.Logging.Level = "info"
	cfg.Logging.JSON = false

	return cfg
}

// GetConfigPath returns the platform-specific config file path
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		// Windows: %APPDATA%\rvasm\config.toml
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "rvasm")

	case "darwin", "linux":
		// macOS/Linux: ~/.config/rvasm/config.toml
		homeDir, err := os.UserHomeDir()
		if err != nil {
			// Fallback to current directory
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "rvasm")

	default:
		// Unknown platform: use current directory
		return "config.toml"
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0750); err != nil {
		// If we can't create the directory, fall back to current directory
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// GetLogPath returns the platform-specific log directory path
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		// Windows: %APPDATA%\rvasm\logs
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "rvasm", "logs")

	case "darwin", "linux":
		// macOS/Linux: ~/.local/share/rvasm/logs
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "rvasm", "logs")

	default:
		return "logs"
	}

	// Ensure directory exists
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// Load loads configuration from the default config file
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read and parse config file
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create file
	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	// Encode to TOML
	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
