// Package config composes compiled-in defaults, an optional YAML file and
// command-line flags into one Config, highest priority last (§6's
// "configuration" interface, expanded per SPEC_FULL.md's ambient stack).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable named in spec.md §6 plus the replication and
// cluster timeouts from §5.
type Config struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	DatabaseCount  int    `yaml:"databaseCount"`

	PersistenceMode string        `yaml:"persistenceMode"` // "rdb" or "aof"
	RDBPath         string        `yaml:"rdbPath"`
	RDBCompression  bool          `yaml:"rdbCompression"`
	RDBSaveInterval time.Duration `yaml:"rdbSaveInterval"`

	AOFPath        string        `yaml:"aofPath"`
	AOFFsync       string        `yaml:"aofFsync"` // "always", "everysec", "no"
	AOFRewriteSize int64         `yaml:"aofRewriteSize"`

	ClusterEnabled bool   `yaml:"clusterEnabled"`
	NodeID         string `yaml:"nodeId"`
	NodeRole       string `yaml:"nodeRole"` // "master" or "slave"
	MasterHost     string `yaml:"masterHost"`
	MasterPort     int    `yaml:"masterPort"`
	MasterID       string `yaml:"masterId"`
	SlaveNodes     []string `yaml:"slaveNodes"`

	HeartbeatInterval  time.Duration `yaml:"heartbeatInterval"`
	NodeStatusInterval time.Duration `yaml:"nodeStatusInterval"`
	NodeTimeout        time.Duration `yaml:"nodeTimeout"`

	SyncInterval       time.Duration `yaml:"syncInterval"`
	SyncConnectTimeout time.Duration `yaml:"syncConnectTimeout"`
	SyncReadTimeout    time.Duration `yaml:"syncReadTimeout"`

	MetricsAddr string `yaml:"metricsAddr"`
	LogLevel    string `yaml:"logLevel"`
}

// Default returns the compiled-in defaults, mirroring the shape of the
// teacher's server.DefaultConfig.
func Default() *Config {
	return &Config{
		Host:          "127.0.0.1",
		Port:          6379,
		DatabaseCount: 16,

		PersistenceMode: "rdb",
		RDBPath:         "dump.rdb",
		RDBCompression:  true,
		RDBSaveInterval: 60 * time.Second,

		AOFPath:        "appendonly.log",
		AOFFsync:       "everysec",
		AOFRewriteSize: 64 * 1024 * 1024,

		ClusterEnabled: false,
		NodeID:         "node1",
		NodeRole:       "master",
		MasterPort:     6379,
		MasterID:       "master",

		HeartbeatInterval:  5 * time.Second,
		NodeStatusInterval: 10 * time.Second,
		NodeTimeout:        30 * time.Second,

		SyncInterval:       5 * time.Second,
		SyncConnectTimeout: 5000 * time.Millisecond,
		SyncReadTimeout:    60000 * time.Millisecond,

		MetricsAddr: ":9121",
		LogLevel:    "info",
	}
}

// Load builds a Config by layering, in order: defaults, an optional YAML
// file at path (skipped silently if empty or missing), then the already
// parsed flags. Flags take precedence over the file, which takes precedence
// over defaults.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := mergeYAMLFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if flags != nil {
		applyFlags(cfg, flags)
	}

	return cfg, nil
}

func mergeYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyFlags(cfg *Config, flags *pflag.FlagSet) {
	if v, err := flags.GetString("host"); err == nil && flags.Changed("host") {
		cfg.Host = v
	}
	if v, err := flags.GetInt("port"); err == nil && flags.Changed("port") {
		cfg.Port = v
	}
	if v, err := flags.GetInt("database-count"); err == nil && flags.Changed("database-count") {
		cfg.DatabaseCount = v
	}
	if v, err := flags.GetString("persistence-mode"); err == nil && flags.Changed("persistence-mode") {
		cfg.PersistenceMode = v
	}
	if v, err := flags.GetBool("rdb-compression"); err == nil && flags.Changed("rdb-compression") {
		cfg.RDBCompression = v
	}
	if v, err := flags.GetString("aof-fsync"); err == nil && flags.Changed("aof-fsync") {
		cfg.AOFFsync = v
	}
	if v, err := flags.GetBool("cluster-enabled"); err == nil && flags.Changed("cluster-enabled") {
		cfg.ClusterEnabled = v
	}
	if v, err := flags.GetString("node-id"); err == nil && flags.Changed("node-id") {
		cfg.NodeID = v
	}
	if v, err := flags.GetString("node-role"); err == nil && flags.Changed("node-role") {
		cfg.NodeRole = v
	}
	if v, err := flags.GetString("master-host"); err == nil && flags.Changed("master-host") {
		cfg.MasterHost = v
	}
	if v, err := flags.GetInt("master-port"); err == nil && flags.Changed("master-port") {
		cfg.MasterPort = v
	}
	if v, err := flags.GetString("master-id"); err == nil && flags.Changed("master-id") {
		cfg.MasterID = v
	}
	if v, err := flags.GetStringSlice("slave-nodes"); err == nil && flags.Changed("slave-nodes") {
		cfg.SlaveNodes = v
	}
}

// RegisterFlags adds every overridable flag to flags, mirroring the
// teacher's flat Config fields as cobra/pflag flags instead of the
// `flag` package it would otherwise reach for.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("host", "", "bind host")
	flags.Int("port", 0, "command port")
	flags.Int("database-count", 0, "number of shards")
	flags.String("persistence-mode", "", "rdb or aof")
	flags.Bool("rdb-compression", false, "gzip-compress snapshot files")
	flags.String("aof-fsync", "", "always, everysec or no")
	flags.Bool("cluster-enabled", false, "enable cluster gossip")
	flags.String("node-id", "", "cluster node id")
	flags.String("node-role", "", "master or slave")
	flags.String("master-host", "", "replication master host (slave only)")
	flags.Int("master-port", 0, "replication master command port (slave only)")
	flags.String("master-id", "", "replication master node id (slave only)")
	flags.StringSlice("slave-nodes", nil, "comma-list of id:host:port cluster peers")
}
