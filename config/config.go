// Package config loads the process configuration. Sources are layered,
// lowest first: built-in defaults, a TOML file, a .env file, MCPOT_*
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gstoney/mcpot/logging"
)

const (
	FileName  = "mcpot.toml"
	EnvPrefix = "MCPOT"
)

type Config struct {
	Port          int    `toml:"port" mapstructure:"port"`
	MOTD          string `toml:"motd" mapstructure:"motd"`
	MaxPlayers    int    `toml:"max_players" mapstructure:"max_players"`
	OnlinePlayers int    `toml:"online_players" mapstructure:"online_players"`
	FileName      string `toml:"file_name" mapstructure:"file_name"`
	OutputDir     string `toml:"output_dir" mapstructure:"output_dir"`
	Formats       string `toml:"formats" mapstructure:"formats"`
	MaxPacketLen  int32  `toml:"max_packet_len" mapstructure:"max_packet_len"`

	Log    LogConfig    `toml:"log" mapstructure:"log"`
	Beats  BeatsConfig  `toml:"beats" mapstructure:"beats"`
	MQTT   MQTTConfig   `toml:"mqtt" mapstructure:"mqtt"`
	API    APIConfig    `toml:"api" mapstructure:"api"`
	Sensor SensorConfig `toml:"sensor" mapstructure:"sensor"`
}

type LogConfig struct {
	Level  string `toml:"level" mapstructure:"level"`
	Format string `toml:"format" mapstructure:"format"`
	File   string `toml:"file" mapstructure:"file"`
}

func (c LogConfig) Logging() logging.Config {
	return logging.Config{Level: c.Level, Format: c.Format, File: c.File}
}

type BeatsConfig struct {
	Endpoint string `toml:"endpoint" mapstructure:"endpoint"`
}

type MQTTConfig struct {
	Broker   string `toml:"broker" mapstructure:"broker"`
	Topic    string `toml:"topic" mapstructure:"topic"`
	ClientID string `toml:"client_id" mapstructure:"client_id"`
}

type APIConfig struct {
	Addr   string `toml:"addr" mapstructure:"addr"` // empty disables the API
	Recent int    `toml:"recent" mapstructure:"recent"`
}

type SensorConfig struct {
	Name string `toml:"name" mapstructure:"name"`
	AWS  bool   `toml:"aws" mapstructure:"aws"`
}

func Default() *Config {
	lc := logging.DefaultConfig()
	return &Config{
		Port:          25565,
		MOTD:          "A Minecraft Server",
		MaxPlayers:    20,
		OnlinePlayers: 0,
		FileName:      "logins",
		OutputDir:     "out",
		Formats:       "json",
		MaxPacketLen:  1 << 21,
		Log: LogConfig{
			Level:  lc.Level,
			Format: lc.Format,
		},
		MQTT: MQTTConfig{
			Topic: "mcpot/logins",
		},
		API: APIConfig{
			Recent: 100,
		},
	}
}

// Options says where Load looks.
type Options struct {
	File    string // explicit config file; must exist when set
	EnvFile string // .env file; a missing file is ignored
	Flags   *pflag.FlagSet
}

// Find returns the first config file present in the working directory
// or the XDG config directories, or "" if there is none.
func Find() string {
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}
	if p, err := xdg.SearchConfigFile("mcpot/" + FileName); err == nil {
		return p
	}
	return ""
}

// Load builds the configuration. It does not validate it.
func Load(opts Options) (*Config, error) {
	cfg := Default()

	path := opts.File
	if path == "" {
		path = Find()
	}
	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		for _, key := range md.Undecoded() {
			log.Warn().Str("key", key.String()).Str("file", path).Msg("unknown config key")
		}
		log.Debug().Str("file", path).Msg("using config file")
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Every key needs a default so that Unmarshal consults the
	// environment for it.
	for key, val := range flatten(cfg) {
		v.SetDefault(key, val)
		if opts.Flags == nil {
			continue
		}
		if f := opts.Flags.Lookup(FlagName(key)); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// flatten lists every leaf key with its current value.
func flatten(c *Config) map[string]interface{} {
	return map[string]interface{}{
		"port":           c.Port,
		"motd":           c.MOTD,
		"max_players":    c.MaxPlayers,
		"online_players": c.OnlinePlayers,
		"file_name":      c.FileName,
		"output_dir":     c.OutputDir,
		"formats":        c.Formats,
		"max_packet_len": c.MaxPacketLen,
		"log.level":      c.Log.Level,
		"log.format":     c.Log.Format,
		"log.file":       c.Log.File,
		"beats.endpoint": c.Beats.Endpoint,
		"mqtt.broker":    c.MQTT.Broker,
		"mqtt.topic":     c.MQTT.Topic,
		"mqtt.client_id": c.MQTT.ClientID,
		"api.addr":       c.API.Addr,
		"api.recent":     c.API.Recent,
		"sensor.name":    c.Sensor.Name,
		"sensor.aws":     c.Sensor.AWS,
	}
}

// FlagName maps a config key to its command-line flag, e.g. log.level
// to --log-level.
func FlagName(key string) string {
	return strings.NewReplacer(".", "-", "_", "-").Replace(key)
}

// RegisterFlags adds a flag for every config key to flags. The defaults
// shown are the built-in ones; only flags given on the command line
// take effect.
func RegisterFlags(flags *pflag.FlagSet) {
	d := Default()

	flags.IntP(FlagName("port"), "p", d.Port, "port to listen on")
	flags.StringP(FlagName("motd"), "m", d.MOTD, "message of the day")
	flags.Int(FlagName("max_players"), d.MaxPlayers, "max amount of players on the server")
	flags.Int(FlagName("online_players"), d.OnlinePlayers, "online player count")
	flags.String(FlagName("file_name"), d.FileName, "output file name, without extension")
	flags.String(FlagName("output_dir"), d.OutputDir, "directory for output files")
	flags.StringP(FlagName("formats"), "f", d.Formats, "comma-separated list of formats (json, csv, sqlite, beats, mqtt)")
	flags.Int32(FlagName("max_packet_len"), d.MaxPacketLen, "largest packet accepted, in bytes")
	flags.String(FlagName("log.level"), d.Log.Level, "trace, debug, info, warn or error")
	flags.String(FlagName("log.format"), d.Log.Format, "console or json")
	flags.String(FlagName("log.file"), d.Log.File, "also append JSON logs to this file")
	flags.String(FlagName("beats.endpoint"), d.Beats.Endpoint, "logstash beats input, host:port")
	flags.String(FlagName("mqtt.broker"), d.MQTT.Broker, "MQTT broker URL, e.g. tcp://localhost:1883")
	flags.String(FlagName("mqtt.topic"), d.MQTT.Topic, "MQTT topic for login events")
	flags.String(FlagName("mqtt.client_id"), d.MQTT.ClientID, "MQTT client id")
	flags.String(FlagName("api.addr"), d.API.Addr, "HTTP API listen address, empty to disable")
	flags.Int(FlagName("api.recent"), d.API.Recent, "number of recent logins kept for the API")
	flags.String(FlagName("sensor.name"), d.Sensor.Name, "name recorded with every login")
	flags.Bool(FlagName("sensor.aws"), d.Sensor.AWS, "look up the sensor identity from EC2 instance metadata")
}
