package utils_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rodial/cachemig/internal/utils"
)

const (
	testEnvironmentPrefixConstant      = "TESTCACHEMIG"
	testCommonSectionKeyConstant       = "common"
	testLogLevelKeyConstant            = testCommonSectionKeyConstant + ".log_level"
	testLogLevelEnvironmentKeyConstant = testEnvironmentPrefixConstant + "_COMMON_LOG_LEVEL"
	testDefaultLogLevelConstant        = "info"
	testConfiguredLogLevelConstant     = "debug"
	testOverriddenLogLevelConstant     = "error"
	testFileLogLevelConstant           = "warn"
	testEmbeddedLogLevelConstant       = "debug"
	testConfigFileNameConstant         = "config.yaml"
	testConfigContentTemplateConstant  = "common:\n  log_level: %s\n"
	testConfigurationNameConstant      = "config"
	testConfigurationTypeConstant      = "yaml"
)

type configurationFixture struct {
	Common configurationCommonFixture `mapstructure:"common"`
}

type configurationCommonFixture struct {
	LogLevel string `mapstructure:"log_level"`
}

func TestConfigurationLoaderLoadConfiguration(testInstance *testing.T) {
	testCases := []struct {
		name                string
		embeddedLogLevel    string
		defaultLogLevel     string
		fileLogLevel        string
		environmentLogLevel string
		expectedLogLevel    string
	}{
		{
			name:             "defaults_apply_when_nothing_else_configured",
			defaultLogLevel:  testDefaultLogLevelConstant,
			expectedLogLevel: testDefaultLogLevelConstant,
		},
		{
			name:             "embedded_configuration_overrides_defaults",
			defaultLogLevel:  testDefaultLogLevelConstant,
			embeddedLogLevel: testEmbeddedLogLevelConstant,
			expectedLogLevel: testEmbeddedLogLevelConstant,
		},
		{
			name:             "config_file_overrides_embedded_configuration",
			defaultLogLevel:  testDefaultLogLevelConstant,
			embeddedLogLevel: testEmbeddedLogLevelConstant,
			fileLogLevel:     testFileLogLevelConstant,
			expectedLogLevel: testFileLogLevelConstant,
		},
		{
			name:                "environment_overrides_config_file",
			defaultLogLevel:     testDefaultLogLevelConstant,
			fileLogLevel:        testConfiguredLogLevelConstant,
			environmentLogLevel: testOverriddenLogLevelConstant,
			expectedLogLevel:    testOverriddenLogLevelConstant,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testCase := testCase
		subtestName := fmt.Sprintf("%d_%s", testCaseIndex, testCase.name)
		testInstance.Run(subtestName, func(subtest *testing.T) {
			configurationDirectory := subtest.TempDir()

			configurationFilePath := ""
			if len(testCase.fileLogLevel) > 0 {
				configurationFilePath = filepath.Join(configurationDirectory, testConfigFileNameConstant)
				configurationContent := fmt.Sprintf(testConfigContentTemplateConstant, testCase.fileLogLevel)
				require.NoError(subtest, os.WriteFile(configurationFilePath, []byte(configurationContent), 0o644))
			}

			if len(testCase.environmentLogLevel) > 0 {
				subtest.Setenv(testLogLevelEnvironmentKeyConstant, testCase.environmentLogLevel)
			}

			loader := utils.NewConfigurationLoader(
				testConfigurationNameConstant,
				testConfigurationTypeConstant,
				testEnvironmentPrefixConstant,
				[]string{configurationDirectory},
			)

			if len(testCase.embeddedLogLevel) > 0 {
				embeddedContent := fmt.Sprintf(testConfigContentTemplateConstant, testCase.embeddedLogLevel)
				loader.SetEmbeddedConfiguration([]byte(embeddedContent))
			}

			defaultValues := map[string]any{
				testLogLevelKeyConstant: testCase.defaultLogLevel,
			}

			var loadedFixture configurationFixture
			loadedMetadata, loadError := loader.LoadConfiguration(configurationFilePath, defaultValues, &loadedFixture)
			require.NoError(subtest, loadError)
			require.Equal(subtest, testCase.expectedLogLevel, loadedFixture.Common.LogLevel)

			if len(configurationFilePath) > 0 {
				require.Equal(subtest, configurationFilePath, loadedMetadata.ConfigFileUsed)
			}
		})
	}
}
