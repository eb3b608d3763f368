package lib

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	expected := Config{
		MainConfig:    DefaultMainConfig(),
		StoreConfig:   DefaultStoreConfig(),
		RPCConfig:     DefaultRPCConfig(),
		MetricsConfig: DefaultMetricsConfig(),
	}
	require.Equal(t, expected, DefaultConfig())
}

func TestFileConfig(t *testing.T) {
	filePath := "./test_config.json"
	config := DefaultConfig()
	require.NoError(t, config.WriteToFile(filePath))
	defer os.RemoveAll(filePath)
	got, err := NewConfigFromFile(filePath)
	require.NoError(t, err)
	require.Equal(t, config, got)
}
