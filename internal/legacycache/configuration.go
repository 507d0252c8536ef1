package legacycache

import (
	"strings"

	pathutils "github.com/rodial/cachemig/internal/utils/path"
)

const (
	defaultDataRootPathConstant          = "data"
	dataRootConfigurationKeyConstant     = ".data_root"
	debugLoggingConfigurationKeyConstant = ".debug"
)

var configurationHomeExpander = pathutils.NewHomeExpander()

// CommandConfiguration captures persisted configuration for the cache migration command.
type CommandConfiguration struct {
	DataRootPath       string `mapstructure:"data_root"`
	EnableDebugLogging bool   `mapstructure:"debug"`
}

// DefaultCommandConfiguration returns baseline configuration values for cache migration.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		DataRootPath:       defaultDataRootPathConstant,
		EnableDebugLogging: false,
	}
}

// DefaultConfigurationValues exposes configuration defaults keyed beneath the provided prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	return map[string]any{
		configurationKeyPrefix + dataRootConfigurationKeyConstant:     defaultDataRootPathConstant,
		configurationKeyPrefix + debugLoggingConfigurationKeyConstant: false,
	}
}

// Sanitize trims configured values and expands user home shortcuts.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.DataRootPath = configurationHomeExpander.Expand(strings.TrimSpace(configuration.DataRootPath))
	return sanitized
}
