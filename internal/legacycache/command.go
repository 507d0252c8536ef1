package legacycache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rodial/cachemig/internal/utils"
)

const (
	commandUseConstant                   = "cache-migrate"
	commandShortDescriptionConstant      = "Relocate legacy cache directories to the current layout"
	commandLongDescriptionConstant       = "cache-migrate moves cached images and videos from the deprecated temp directory into tmp, coordinating concurrent runners through an exclusive lock file and skipping work that a previous run already completed."
	dataRootFlagNameConstant             = "data-root"
	dataRootFlagUsageConstant            = "Data directory containing the cache layout"
	migrationFailedErrorTemplateConstant = "legacy cache migration failed: %w"
	migrationStartingMessageConstant     = "Legacy cache migration starting"
	migrationFinishedMessageConstant     = "Legacy cache migration finished"
	migrationSkippedMessageConstant      = "Legacy cache migration skipped"
	logFieldDataRootConstant             = "data_root"
	logFieldReasonConstant               = "reason"
	logFieldConfigFileConstant           = "config_file"
)

// MigrationExecutor abstracts the migration service for command-level tests.
type MigrationExecutor interface {
	Execute(executionContext context.Context, options MigrationOptions) (MigrationResult, error)
}

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ServiceProvider constructs a migration executor from dependencies.
type ServiceProvider func(dependencies ServiceDependencies) MigrationExecutor

type commandOptions struct {
	debugLoggingEnabled bool
	dataRootPath        string
}

// CommandBuilder assembles the cache-migrate Cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	WorkingDirectory      string
	ServiceProvider       ServiceProvider
	ConfigurationProvider func() CommandConfiguration
}

// Build constructs the cache-migrate command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runMigration,
	}

	command.Flags().String(dataRootFlagNameConstant, "", dataRootFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) runMigration(command *cobra.Command, arguments []string) error {
	options := builder.parseOptions(command)

	logger := builder.resolveLogger(options.debugLoggingEnabled)
	builder.logStartDiagnostics(logger, command, options)

	service := builder.resolveService(ServiceDependencies{Logger: logger})

	result, migrationError := service.Execute(command.Context(), MigrationOptions{DataRootPath: options.dataRootPath})
	if migrationError != nil {
		return fmt.Errorf(migrationFailedErrorTemplateConstant, migrationError)
	}

	builder.logOutcome(logger, options.dataRootPath, result)

	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) commandOptions {
	configuration := builder.resolveConfiguration()

	debugEnabled := configuration.EnableDebugLogging
	if command != nil {
		contextAccessor := utils.NewCommandContextAccessor()
		if logLevel, available := contextAccessor.LogLevel(command.Context()); available {
			if strings.EqualFold(logLevel, string(utils.LogLevelDebug)) {
				debugEnabled = true
			}
		}
	}

	dataRootPath := configuration.DataRootPath
	if command != nil && command.Flags().Changed(dataRootFlagNameConstant) {
		flagValue, _ := command.Flags().GetString(dataRootFlagNameConstant)
		dataRootPath = configurationHomeExpander.Expand(strings.TrimSpace(flagValue))
	}
	if len(dataRootPath) == 0 {
		dataRootPath = defaultDataRootPathConstant
	}
	dataRootPath = builder.resolveAgainstWorkingDirectory(dataRootPath)

	return commandOptions{
		debugLoggingEnabled: debugEnabled,
		dataRootPath:        dataRootPath,
	}
}

func (builder *CommandBuilder) logStartDiagnostics(logger *zap.Logger, command *cobra.Command, options commandOptions) {
	if logger == nil || command == nil {
		return
	}

	diagnosticFields := []zap.Field{zap.String(logFieldDataRootConstant, options.dataRootPath)}

	contextAccessor := utils.NewCommandContextAccessor()
	if configurationFilePath, available := contextAccessor.ConfigurationFilePath(command.Context()); available && len(configurationFilePath) > 0 {
		diagnosticFields = append(diagnosticFields, zap.String(logFieldConfigFileConstant, configurationFilePath))
	}

	logger.Debug(migrationStartingMessageConstant, diagnosticFields...)
}

func (builder *CommandBuilder) resolveAgainstWorkingDirectory(dataRootPath string) string {
	if filepath.IsAbs(dataRootPath) {
		return filepath.Clean(dataRootPath)
	}

	workingDirectory := builder.WorkingDirectory
	if len(workingDirectory) == 0 {
		if detectedDirectory, workingDirectoryError := os.Getwd(); workingDirectoryError == nil {
			workingDirectory = detectedDirectory
		}
	}
	if len(workingDirectory) == 0 {
		return filepath.Clean(dataRootPath)
	}

	return filepath.Join(workingDirectory, dataRootPath)
}

func (builder *CommandBuilder) resolveLogger(enableDebug bool) *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if enableDebug {
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.DebugLevel))
	}
	return logger
}

func (builder *CommandBuilder) resolveService(dependencies ServiceDependencies) MigrationExecutor {
	if builder.ServiceProvider != nil {
		return builder.ServiceProvider(dependencies)
	}
	return NewService(dependencies)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}

	provided := builder.ConfigurationProvider()
	return provided.Sanitize()
}

func (builder *CommandBuilder) logOutcome(logger *zap.Logger, dataRootPath string, result MigrationResult) {
	if logger == nil {
		return
	}

	if !result.Migrated {
		logger.Info(
			migrationSkippedMessageConstant,
			zap.String(logFieldDataRootConstant, dataRootPath),
			zap.String(logFieldReasonConstant, string(result.Reason)),
		)
		return
	}

	logger.Info(
		migrationFinishedMessageConstant,
		zap.String(logFieldDataRootConstant, dataRootPath),
		zap.Int(logFieldMovedConstant, result.Moved),
		zap.Int(logFieldSkippedConstant, result.Skipped),
		zap.Int(logFieldErrorsConstant, result.Errors),
	)
}
