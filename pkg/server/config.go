package server

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the process-wide immutable configuration assembled at startup.
// It is built from CLI flags, optionally overridden by a YAML file, and
// finally overridden by LIMBOGATE_* environment variables.
type Config struct {
	WorldDir     string  `yaml:"world_dir"`
	Address      string  `yaml:"address"`
	Port         int     `yaml:"port"`
	SpawnX       float64 `yaml:"spawn_x"`
	SpawnY       float64 `yaml:"spawn_y"`
	SpawnZ       float64 `yaml:"spawn_z"`
	BorderRadius float64 `yaml:"border_radius"`
	MOTD         string  `yaml:"motd"`
	MaxPlayers   int     `yaml:"max_players"`
	TickRate     int     `yaml:"tick_rate"`
	LANDiscovery bool    `yaml:"lan_discovery"`
	MetricsAddr  string  `yaml:"metrics_addr"`
}

// DefaultConfig returns the server's out-of-the-box configuration.
func DefaultConfig() Config {
	return Config{
		Address:      "[::]",
		Port:         25565,
		SpawnX:       0,
		SpawnY:       64,
		SpawnZ:       0,
		BorderRadius: 100,
		MOTD:         "A limbo server",
		MaxPlayers:   20,
		TickRate:     20,
	}
}

// ParseConfig builds a Config from CLI args: flags, a positional map_dir,
// an optional --config YAML file, then LIMBOGATE_* environment overrides.
func ParseConfig(args []string) (Config, error) {
	cfg := DefaultConfig()

	fs := flag.NewFlagSet("limbogate", flag.ContinueOnError)
	address := fs.String("addr", cfg.Address, "bind address")
	port := fs.Int("port", cfg.Port, "bind port")
	spawnX := fs.Float64("spawn-x", cfg.SpawnX, "spawn x coordinate")
	spawnY := fs.Float64("spawn-y", cfg.SpawnY, "spawn y coordinate")
	spawnZ := fs.Float64("spawn-z", cfg.SpawnZ, "spawn z coordinate")
	borderRadius := fs.Float64("border-radius", cfg.BorderRadius, "world border radius around spawn")
	motd := fs.String("motd", cfg.MOTD, "server MOTD shown on the status ping")
	maxPlayers := fs.Int("max-players", cfg.MaxPlayers, "maximum concurrent connections")
	tickRate := fs.Int("tick-rate", cfg.TickRate, "server tick rate in Hz")
	lanDiscovery := fs.Bool("lan-discovery", cfg.LANDiscovery, "broadcast LAN discovery datagrams")
	metricsAddr := fs.String("metrics-addr", cfg.MetricsAddr, "address to serve Prometheus metrics on (empty disables)")
	configPath := fs.String("config", "", "optional YAML config file overriding the flag defaults")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.Address = *address
	cfg.Port = *port
	cfg.SpawnX = *spawnX
	cfg.SpawnY = *spawnY
	cfg.SpawnZ = *spawnZ
	cfg.BorderRadius = *borderRadius
	cfg.MOTD = *motd
	cfg.MaxPlayers = *maxPlayers
	cfg.TickRate = *tickRate
	cfg.LANDiscovery = *lanDiscovery
	cfg.MetricsAddr = *metricsAddr

	if fs.NArg() > 0 {
		cfg.WorldDir = fs.Arg(0)
	}

	if *configPath != "" {
		if err := cfg.mergeYAMLFile(*configPath); err != nil {
			return Config{}, fmt.Errorf("load config file: %w", err)
		}
	}

	cfg.mergeEnv()

	if cfg.WorldDir == "" {
		return Config{}, fmt.Errorf("server: map_dir is required")
	}
	return cfg, nil
}

// mergeYAMLFile overrides cfg's fields with whatever the YAML document at
// path sets. A field absent from the document is left untouched.
func (c *Config) mergeYAMLFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// mergeEnv applies LIMBOGATE_* environment variables, the final override
// layer above flags and an optional YAML file.
func (c *Config) mergeEnv() {
	if v := os.Getenv("LIMBOGATE_WORLD_DIR"); v != "" {
		c.WorldDir = v
	}
	if v := os.Getenv("LIMBOGATE_ADDR"); v != "" {
		c.Address = v
	}
	if v := os.Getenv("LIMBOGATE_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Port = n
		}
	}
	if v := os.Getenv("LIMBOGATE_SPAWN_X"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.SpawnX = f
		}
	}
	if v := os.Getenv("LIMBOGATE_SPAWN_Y"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.SpawnY = f
		}
	}
	if v := os.Getenv("LIMBOGATE_SPAWN_Z"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.SpawnZ = f
		}
	}
	if v := os.Getenv("LIMBOGATE_BORDER_RADIUS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.BorderRadius = f
		}
	}
	if v := os.Getenv("LIMBOGATE_MOTD"); v != "" {
		c.MOTD = v
	}
	if v := os.Getenv("LIMBOGATE_MAX_PLAYERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxPlayers = n
		}
	}
	if v := os.Getenv("LIMBOGATE_METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}
}

// ListenAddress is the net.Listen-ready "host:port" string for cfg.
func (c Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}
