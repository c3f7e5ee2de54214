// Package config loads usbuart settings from JSON or YAML files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"usbuart/core"
	"usbuart/pkg"
	"usbuart/protocol"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Format is a configuration file encoding
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// Config is the complete usbuart configuration
type Config struct {
	Firmware core.Config `json:"firmware" yaml:"firmware"`
	Host     HostConfig  `json:"host" yaml:"host"`
}

// HostConfig holds settings for the host tools
type HostConfig struct {
	Device        string `json:"device" yaml:"device"`
	Baud          int    `json:"baud" yaml:"baud"`
	ReadTimeoutMs int    `json:"read_timeout_ms" yaml:"read_timeout_ms"`
	Mode          string `json:"mode" yaml:"mode"` // line or message
	LogLevel      string `json:"log_level" yaml:"log_level"`
	LogFormat     string `json:"log_format" yaml:"log_format"` // text or json
}

// Default returns the default configuration
func Default() *Config {
	cfg := &Config{Firmware: core.DefaultConfig()}
	applyDefaults(cfg)
	return cfg
}

// Load parses data in the given format, applies defaults and validates
func Load(data []byte, format Format) (*Config, error) {
	var cfg Config

	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads a configuration file, choosing the format by extension
// (.yaml / .yml for YAML, anything else JSON)
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Load(data, FormatFor(path))
	if err != nil {
		pkg.LogWarn(pkg.ComponentConfig, "rejected config file", "path", path, "err", err)
		return nil, err
	}
	pkg.LogInfo(pkg.ComponentConfig, "loaded config file", "path", path,
		"mode", cfg.Host.Mode, "messages", cfg.Firmware.Messages)
	return cfg, nil
}

// FormatFor returns the format implied by the file extension of path
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// applyDefaults fills in missing configuration values
func applyDefaults(cfg *Config) {
	messages := cfg.Firmware.Messages
	cfg.Firmware = cfg.Firmware.WithDefaults()
	cfg.Firmware.Messages = messages

	if cfg.Host.Baud == 0 {
		cfg.Host.Baud = 115200 // ignored by CDC ACM
	}
	if cfg.Host.ReadTimeoutMs == 0 {
		cfg.Host.ReadTimeoutMs = 100
	}
	if cfg.Host.Mode == "" {
		cfg.Host.Mode = "line"
	}
	if cfg.Host.LogLevel == "" {
		cfg.Host.LogLevel = "warn"
	}
	if cfg.Host.LogFormat == "" {
		cfg.Host.LogFormat = "text"
	}
}

// Validate checks the configuration for values the adapter cannot honor
func Validate(cfg *Config) error {
	fw := cfg.Firmware
	if fw.RxBufferSize < core.MaxPacketSize {
		return fmt.Errorf("%w: rx_buffer_size %d is smaller than a USB packet (%d)",
			ErrInvalidConfig, fw.RxBufferSize, core.MaxPacketSize)
	}
	if fw.TxBufferSize < 2 {
		return fmt.Errorf("%w: tx_buffer_size %d cannot hold a line", ErrInvalidConfig, fw.TxBufferSize)
	}
	if fw.TxMaxReject > 255 {
		return fmt.Errorf("%w: tx_max_reject %d exceeds 255", ErrInvalidConfig, fw.TxMaxReject)
	}
	if fw.Messages {
		if fw.MsgFirstByte == fw.MsgLastByte {
			return fmt.Errorf("%w: msg_first_byte and msg_last_byte are both 0x%02x",
				ErrInvalidConfig, fw.MsgFirstByte)
		}
		if fw.TxBufferSize < protocol.MessageStructureLength+1 {
			return fmt.Errorf("%w: tx_buffer_size %d cannot hold a message", ErrInvalidConfig, fw.TxBufferSize)
		}
	}
	switch cfg.Host.Mode {
	case "line":
	case "message", "msg":
		if !fw.Messages {
			return fmt.Errorf("%w: mode %q needs firmware messages enabled", ErrInvalidConfig, cfg.Host.Mode)
		}
	default:
		return fmt.Errorf("%w: mode %q (want line or message)", ErrInvalidConfig, cfg.Host.Mode)
	}
	return nil
}
