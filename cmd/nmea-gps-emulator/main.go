package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"nmea-gps-emulator/gps"
	"nmea-gps-emulator/nmea"
	"nmea-gps-emulator/transport"
)

// Version information - populated at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	defaults := gps.DefaultConfig()
	flags := defaults
	var configPath string
	var showVersion bool

	flag.BoolVar(&showVersion, "version", false, "Show version information and exit")
	flag.StringVar(&configPath, "config", "", "Path to YAML config file (flags override file values)")
	flag.Float64Var(&flags.Latitude, "lat", defaults.Latitude, "Initial latitude (decimal degrees)")
	flag.Float64Var(&flags.Longitude, "lon", defaults.Longitude, "Initial longitude (decimal degrees)")
	flag.Float64Var(&flags.Altitude, "altitude", defaults.Altitude, "Initial altitude in meters (-40 to 9000)")
	flag.Float64Var(&flags.Speed, "speed", defaults.Speed, "Initial speed in knots (0-999)")
	flag.Float64Var(&flags.Course, "course", defaults.Course, "Initial course in degrees (0-359)")
	flag.StringVar(&flags.Output, "output", defaults.Output, "Output mode: serial, tcp-server, stream or file")
	flag.StringVar(&flags.Serial.Port, "serial", defaults.Serial.Port, "Serial port device (e.g. /dev/ttyUSB0, COM1)")
	flag.IntVar(&flags.Serial.BaudRate, "baud", defaults.Serial.BaudRate, "Serial baud rate")
	flag.StringVar(&flags.Server.Listen, "listen", defaults.Server.Listen, "TCP server listen address")
	flag.StringVar(&flags.Stream.Addr, "addr", defaults.Stream.Addr, "Stream destination host:port")
	flag.StringVar(&flags.Stream.Proto, "proto", defaults.Stream.Proto, "Stream protocol: tcp or udp")
	flag.StringVar(&flags.File.Path, "file", defaults.File.Path, "NMEA log file path")
	flag.IntVar(&flags.File.Filter, "filter", defaults.File.Filter, "File log filter: 0 = all, 1-8 = GGA/GLL/RMC/GSA/GSV/HDT/VTG/ZDA")
	flag.Int64Var(&flags.SatelliteSeed, "seed", defaults.SatelliteSeed, "Seed for the fabricated satellite data")
	flag.DurationVar(&flags.Rate, "rate", defaults.Rate, "Sentence batch output rate")
	flag.StringVar(&flags.LogLevel, "log-level", defaults.LogLevel, "Log level: DEBUG, INFO, WARN or ERROR")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nNMEA 0183 GPS Emulator\n")
		fmt.Fprintf(os.Stderr, "Emulates a moving GNSS receiver streaming NMEA sentences once per second.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		if Version != "dev" {
			fmt.Printf("v%s\n", Version)
		} else {
			fmt.Printf("%s\n", Commit)
		}
		os.Exit(0)
	}

	cfg := flags
	if configPath != "" {
		fileCfg, err := gps.Load(configPath)
		if err != nil {
			log.Fatalf("Failed to load config %s: %v", configPath, err)
		}
		// Explicitly set flags win over file values.
		applyFlagOverrides(&fileCfg, flags)
		cfg = fileCfg
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	configureLogging(cfg)

	unit, err := gps.NewUnitState(cfg.Latitude, cfg.Longitude, cfg.Altitude, cfg.Speed, cfg.Course, time.Now())
	if err != nil {
		log.Fatalf("Invalid initial state: %v", err)
	}

	dispatcher, err := buildDispatcher(cfg)
	if err != nil {
		log.Fatalf("Failed to open output: %v", err)
	}

	encoder := nmea.NewEncoder(cfg.SatelliteSeed)
	scheduler := gps.NewScheduler(unit, encoder, dispatcher, cfg.Rate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("Starting emulation at %.6f, %.6f (%.1f m, %.1f kn, %.1f deg)",
		cfg.Latitude, cfg.Longitude, cfg.Altitude, cfg.Speed, cfg.Course)

	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	<-scheduler.Done()
	if err := scheduler.Err(); err != nil {
		log.Fatalf("Transport failure: %v", err)
	}
	log.Info("Emulator stopped")
}

// buildDispatcher selects the transport once at startup; the set is
// closed, there is no runtime switching.
func buildDispatcher(cfg gps.Config) (gps.Dispatcher, error) {
	switch cfg.Output {
	case gps.OutputSerial:
		return transport.NewSerial(cfg.Serial.Port, cfg.Serial.BaudRate)
	case gps.OutputTCPServer:
		return transport.NewTCPServer(cfg.Server.Listen)
	case gps.OutputStream:
		return transport.NewStream(cfg.Stream.Proto, cfg.Stream.Addr)
	case gps.OutputFile:
		filter, err := transport.NewFilterSpec(cfg.File.Filter)
		if err != nil {
			return nil, err
		}
		return transport.NewFileLog(cfg.File.Path, filter)
	default:
		return nil, gps.ErrInvalidOutput
	}
}

func applyFlagOverrides(cfg *gps.Config, flags gps.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lat":
			cfg.Latitude = flags.Latitude
		case "lon":
			cfg.Longitude = flags.Longitude
		case "altitude":
			cfg.Altitude = flags.Altitude
		case "speed":
			cfg.Speed = flags.Speed
		case "course":
			cfg.Course = flags.Course
		case "output":
			cfg.Output = flags.Output
		case "serial":
			cfg.Serial.Port = flags.Serial.Port
		case "baud":
			cfg.Serial.BaudRate = flags.Serial.BaudRate
		case "listen":
			cfg.Server.Listen = flags.Server.Listen
		case "addr":
			cfg.Stream.Addr = flags.Stream.Addr
		case "proto":
			cfg.Stream.Proto = flags.Stream.Proto
		case "file":
			cfg.File.Path = flags.File.Path
		case "filter":
			cfg.File.Filter = flags.File.Filter
		case "seed":
			cfg.SatelliteSeed = flags.SatelliteSeed
		case "rate":
			cfg.Rate = flags.Rate
		case "log-level":
			cfg.LogLevel = flags.LogLevel
		}
	})
}

func configureLogging(cfg gps.Config) {
	log.SetLevel(cfg.GetLogLevel())
	log.SetFormatter(&log.TextFormatter{ForceColors: true, FullTimestamp: false})
	log.SetOutput(os.Stderr)

	if cfg.LogFilePath == "" {
		return
	}
	logDir := filepath.Dir(cfg.LogFilePath)
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
			log.Fatalf("Failed to create log directory: %v", err)
		}
	}
	rotating := &lumberjack.Logger{
		Filename:   cfg.LogFilePath,
		MaxSize:    100,
		MaxBackups: 10,
		MaxAge:     cfg.LogMaxAgeDays,
		Compress:   true,
	}
	fileFmt := &log.TextFormatter{DisableColors: true, FullTimestamp: true}
	log.AddHook(lfshook.NewHook(lfshook.WriterMap{
		log.PanicLevel: rotating,
		log.FatalLevel: rotating,
		log.ErrorLevel: rotating,
		log.WarnLevel:  rotating,
		log.InfoLevel:  rotating,
		log.DebugLevel: rotating,
	}, fileFmt))
}
