package lib

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/units"
)

/* This file implements logic for 'user controlled' global configuration of the tree, its storage, its RPC facade, and its metrics */

const (
	// FILE NAMES in the 'data directory'
	ConfigFilePath = "config.json" // the file path for the node configuration
)

// Config is the structure of the user configuration options for a mssmt node
type Config struct {
	MainConfig    // logging and key-width options spanning over all modules
	StoreConfig   // persistence options
	RPCConfig     // http API options
	MetricsConfig // telemetry options
}

// DefaultConfig() returns a Config with developer set options
func DefaultConfig() Config {
	return Config{
		MainConfig:    DefaultMainConfig(),
		StoreConfig:   DefaultStoreConfig(),
		RPCConfig:     DefaultRPCConfig(),
		MetricsConfig: DefaultMetricsConfig(),
	}
}

// MAIN CONFIG BELOW

type MainConfig struct {
	LogLevel    string `json:"logLevel"`    // any level includes the levels above it: debug < info < warning < error
	KeyBitWidth int    `json:"keyBitWidth"` // the depth of the tree in bits; 256 for a SHA-256 keyed tree
}

// DefaultMainConfig() sets log level to 'info' and the key width to 256 bits
func DefaultMainConfig() MainConfig {
	return MainConfig{
		LogLevel:    "info",
		KeyBitWidth: 256,
	}
}

// GetLogLevel() parses the log string in the config file into a LogLevel Enum
func (m *MainConfig) GetLogLevel() int32 {
	switch {
	case strings.Contains(strings.ToLower(m.LogLevel), "deb"):
		return DebugLevel
	case strings.Contains(strings.ToLower(m.LogLevel), "inf"):
		return InfoLevel
	case strings.Contains(strings.ToLower(m.LogLevel), "war"):
		return WarnLevel
	case strings.Contains(strings.ToLower(m.LogLevel), "err"):
		return ErrorLevel
	default:
		return DebugLevel
	}
}

// RPC CONFIG BELOW

// RPCConfig holds the options for the HTTP facade exposing Get/Insert/Delete/Proof/Verify
type RPCConfig struct {
	RPCPort  string `json:"rpcPort"`  // the port where the rpc server is hosted
	RPCUrl   string `json:"rpcURL"`   // the url where the rpc server is hosted
	TimeoutS int    `json:"timeoutS"` // the rpc request timeout in seconds
}

// DefaultRPCConfig() serves the rpc on localhost:50002 with a 3 second timeout
func DefaultRPCConfig() RPCConfig {
	return RPCConfig{
		RPCPort:  "50002",
		RPCUrl:   "http://localhost:50002",
		TimeoutS: 3,
	}
}

// STORE CONFIG BELOW

// StoreConfig is the user configuration for the optional badger-backed durability layer
// NOTE: the tree itself is a pure, in-memory value (see mssmt.Tree) - this config only
// governs the CLI/RPC convenience layer that snapshots leaves between process runs
type StoreConfig struct {
	DataDirPath string `json:"dataDirPath"` // path of the designated folder where the application stores its data
	DBName      string `json:"dbName"`      // name of the database
	InMemory    bool   `json:"inMemory"`    // non-disk database, only for testing
}

// DefaultDataDirPath() is $USERHOME/.mssmt
func DefaultDataDirPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	return filepath.Join(home, ".mssmt")
}

// DefaultStoreConfig() returns the developer recommended store configuration
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		DataDirPath: DefaultDataDirPath(),
		DBName:      "mssmt",
		InMemory:    false,
	}
}

// MaxBatchBytes() is the number of encoded record bytes PutBatch lets accumulate in one write batch before flushing it
func (s StoreConfig) MaxBatchBytes() uint64 { return uint64(64 * units.MB) }

// METRICS CONFIG BELOW

// MetricsConfig represents the configuration for the Prometheus metrics server
type MetricsConfig struct {
	Enabled           bool   `json:"enabled"`           // if the metrics are enabled
	PrometheusAddress string `json:"prometheusAddress"` // the address of the server
}

// DefaultMetricsConfig() returns the default metrics configuration
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:           true,
		PrometheusAddress: "0.0.0.0:9090",
	}
}

// WriteToFile() saves the Config object to a JSON file
func (c Config) WriteToFile(filepath string) error {
	jsonBytes, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, jsonBytes, os.ModePerm)
}

// NewConfigFromFile() populates a Config object from a JSON file, filling any blanks with defaults
func NewConfigFromFile(filepath string) (Config, error) {
	fileBytes, err := os.ReadFile(filepath)
	if err != nil {
		return Config{}, err
	}
	c := DefaultConfig()
	if err = json.Unmarshal(fileBytes, &c); err != nil {
		return Config{}, err
	}
	return c, nil
}
