package gps

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Output mode names accepted in configuration.
const (
	OutputSerial    = "serial"
	OutputTCPServer = "tcp-server"
	OutputStream    = "stream"
	OutputFile      = "file"
)

// Config holds all startup options for the emulator.
type Config struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Altitude  float64 `yaml:"altitude"`
	Speed     float64 `yaml:"speed"`
	Course    float64 `yaml:"course"`

	Output string       `yaml:"output"` // serial | tcp-server | stream | file
	Serial SerialConfig `yaml:"serial"`
	Server ServerConfig `yaml:"server"`
	Stream StreamConfig `yaml:"stream"`
	File   FileConfig   `yaml:"file"`

	SatelliteSeed int64         `yaml:"satellite_seed"`
	Rate          time.Duration `yaml:"-"`

	LogLevel      string `yaml:"log_level"`
	LogFilePath   string `yaml:"log_file_path"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`
}

type SerialConfig struct {
	Port     string `yaml:"port"`      // e.g. /dev/ttyUSB0, COM1
	BaudRate int    `yaml:"baud_rate"` // NMEA default 4800
}

type ServerConfig struct {
	Listen string `yaml:"listen"`
}

type StreamConfig struct {
	Addr  string `yaml:"addr"`
	Proto string `yaml:"proto"` // tcp | udp
}

type FileConfig struct {
	Path   string `yaml:"path"`
	Filter int    `yaml:"filter"` // 0 = all, 1-8 = GGA/GLL/RMC/GSA/GSV/HDT/VTG/ZDA
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Latitude:  57.70011131502446, // Gothenburg
		Longitude: 11.988278521104876,
		Altitude:  42.0,
		Speed:     2.0,
		Course:    260.0,
		Output:    OutputTCPServer,
		Serial: SerialConfig{
			Port:     "/dev/ttyS0",
			BaudRate: 4800,
		},
		Server: ServerConfig{Listen: ":10110"},
		Stream: StreamConfig{
			Addr:  "127.0.0.1:10110",
			Proto: "tcp",
		},
		File: FileConfig{
			Path:   "emulator_data.log",
			Filter: 0,
		},
		SatelliteSeed: 1,
		Rate:          time.Second,
		LogLevel:      "INFO",
		LogMaxAgeDays: 7,
	}
}

// UnmarshalYAML decodes the rate key by hand: YAML has no duration
// scalar, so "rate: 1s" arrives as a string.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type plain Config
	aux := struct {
		plain `yaml:",inline"`
		Rate  string `yaml:"rate"`
	}{plain: plain(*c)}
	if err := value.Decode(&aux); err != nil {
		return err
	}
	*c = Config(aux.plain)
	if aux.Rate != "" {
		d, err := time.ParseDuration(aux.Rate)
		if err != nil {
			return fmt.Errorf("invalid rate %q: %w", aux.Rate, err)
		}
		c.Rate = d
	}
	return nil
}

// Load reads a YAML config file over the defaults and validates it.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate checks every range the unit state and transports depend on.
func (c *Config) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return ErrInvalidLatitude
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return ErrInvalidLongitude
	}
	if c.Altitude < -40 || c.Altitude > 9000 {
		return ErrInvalidAltitude
	}
	if c.Speed < 0 || c.Speed > 999 {
		return ErrInvalidSpeed
	}
	if c.Course < 0 || c.Course >= 360 {
		return ErrInvalidCourse
	}
	switch c.Output {
	case OutputSerial, OutputTCPServer, OutputStream, OutputFile:
	default:
		return ErrInvalidOutput
	}
	if c.Serial.BaudRate <= 0 {
		return ErrInvalidBaudRate
	}
	if c.Stream.Proto != "tcp" && c.Stream.Proto != "udp" {
		return ErrInvalidProtocol
	}
	if c.File.Filter < 0 || c.File.Filter > 8 {
		return ErrInvalidFilter
	}
	if c.Rate <= 0 {
		c.Rate = time.Second
	}
	return nil
}

// GetLogLevel maps the configured level name onto a logrus level.
func (c *Config) GetLogLevel() log.Level {
	switch c.LogLevel {
	case "DEBUG":
		return log.DebugLevel
	case "INFO":
		return log.InfoLevel
	case "WARN":
		return log.WarnLevel
	case "ERROR":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
