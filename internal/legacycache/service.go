package legacycache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rodial/cachemig/internal/lockfile"
)

const (
	legacyRootDirectoryNameConstant            = "temp"
	currentRootDirectoryNameConstant           = "tmp"
	lockDirectoryNameConstant                  = ".locks"
	lockFileNameConstant                       = "legacy_cache_dirs_v1.lock"
	doneMarkerFileNameConstant                 = "legacy_cache_dirs_v1.done"
	imageSubdirectoryNameConstant              = "image"
	videoSubdirectoryNameConstant              = "video"
	defaultLockWaitTimeoutConstant             = 30 * time.Second
	defaultLockPollIntervalConstant            = 200 * time.Millisecond
	cacheDirectoryPermissionsConstant          = 0o755
	doneMarkerPermissionsConstant              = 0o644
	dataRootRequiredMessageConstant            = "data root path must be provided"
	lockDirectoryCreationErrorTemplateConstant = "unable to create lock directory %s: %w"
	currentRootCreationErrorTemplateConstant   = "unable to create cache directory %s: %w"
	legacyDirectoryListErrorTemplateConstant   = "unable to list legacy cache directory %s: %w"
	doneMarkerWriteErrorTemplateConstant       = "unable to write completion marker %s: %w"
	migrationSummaryMessageConstant            = "Legacy cache migration complete"
	fileMoveFailedMessageConstant              = "Legacy cache file move failed"
	directoryCleanupFailedMessageConstant      = "Legacy cache directory cleanup failed"
	logFieldMovedConstant                      = "moved"
	logFieldSkippedConstant                    = "skipped"
	logFieldErrorsConstant                     = "errors"
	logFieldSourcePathConstant                 = "source_path"
	logFieldDirectoryPathConstant              = "directory_path"
)

// cacheSubdirectoryNames fixes the migration order of the known cache
// subdirectories so counting and logging stay deterministic.
var cacheSubdirectoryNames = []string{imageSubdirectoryNameConstant, videoSubdirectoryNameConstant}

var errDataRootRequired = errors.New(dataRootRequiredMessageConstant)

// SkipReason explains why a migration invocation performed no work.
type SkipReason string

// Skip reasons reported through MigrationResult.
const (
	SkipReasonNoLegacyDirectory     SkipReason = "no_legacy_dir"
	SkipReasonAlreadyDone           SkipReason = "already_done"
	SkipReasonWaitedForOtherProcess SkipReason = "waited_for_other_process"
	SkipReasonLockTimeout           SkipReason = "lock_timeout"
)

// ServiceDependencies describes collaborators for the migration service.
type ServiceDependencies struct {
	Logger *zap.Logger
}

// MigrationOptions configures a single migration invocation. Zero timeout
// values fall back to the 30 second lock wait and 200 millisecond poll
// interval used in production.
type MigrationOptions struct {
	DataRootPath     string
	LockWaitTimeout  time.Duration
	LockPollInterval time.Duration
}

// MigrationResult captures the observable outcome of one invocation. When
// Migrated is false the Reason field explains the skip; otherwise the three
// counters describe the per-file results.
type MigrationResult struct {
	Migrated bool
	Reason   SkipReason
	Moved    int
	Skipped  int
	Errors   int
}

// Service performs the one-time legacy cache directory migration.
type Service struct {
	logger *zap.Logger
}

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) *Service {
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger}
}

// Execute migrates the legacy cache layout beneath the configured data root.
// Expected no-op conditions (missing legacy directory, prior completion, lock
// contention, lock wait timeout) are reported through the result's Reason and
// never as errors. Per-file move failures are counted, not propagated; only
// infrastructure failures around the lock directory, the lock itself, or
// directory enumeration surface as errors.
func (service *Service) Execute(executionContext context.Context, options MigrationOptions) (MigrationResult, error) {
	dataRootPath := strings.TrimSpace(options.DataRootPath)
	if len(dataRootPath) == 0 {
		return MigrationResult{}, errDataRootRequired
	}

	legacyRootPath := filepath.Join(dataRootPath, legacyRootDirectoryNameConstant)
	currentRootPath := filepath.Join(dataRootPath, currentRootDirectoryNameConstant)
	lockDirectoryPath := filepath.Join(dataRootPath, lockDirectoryNameConstant)
	lockFilePath := filepath.Join(lockDirectoryPath, lockFileNameConstant)
	doneMarkerPath := filepath.Join(lockDirectoryPath, doneMarkerFileNameConstant)

	if !directoryExists(legacyRootPath) {
		return MigrationResult{Reason: SkipReasonNoLegacyDirectory}, nil
	}

	if lockDirectoryError := os.MkdirAll(lockDirectoryPath, cacheDirectoryPermissionsConstant); lockDirectoryError != nil {
		return MigrationResult{}, fmt.Errorf(lockDirectoryCreationErrorTemplateConstant, lockDirectoryPath, lockDirectoryError)
	}

	// The done marker outranks the lock: completed work is never redone even
	// when a stale lock file is still present.
	if pathExists(doneMarkerPath) {
		return MigrationResult{Reason: SkipReasonAlreadyDone}, nil
	}

	migrationLock := lockfile.New(lockFilePath)
	lockAcquired, lockError := migrationLock.TryAcquire()
	if lockError != nil {
		return MigrationResult{}, lockError
	}
	if !lockAcquired {
		return service.awaitOtherMigrator(executionContext, doneMarkerPath, options)
	}
	defer migrationLock.Release()

	return service.runLockedMigration(legacyRootPath, currentRootPath, doneMarkerPath)
}

// awaitOtherMigrator polls the done marker while another runner holds the
// lock. The lock is never forced: when the deadline elapses the caller is
// told to come back later instead of risking a second concurrent migration.
func (service *Service) awaitOtherMigrator(executionContext context.Context, doneMarkerPath string, options MigrationOptions) (MigrationResult, error) {
	waitTimeout := options.LockWaitTimeout
	if waitTimeout <= 0 {
		waitTimeout = defaultLockWaitTimeoutConstant
	}
	pollInterval := options.LockPollInterval
	if pollInterval <= 0 {
		pollInterval = defaultLockPollIntervalConstant
	}

	waitDeadline := time.Now().Add(waitTimeout)
	for time.Now().Before(waitDeadline) {
		if pathExists(doneMarkerPath) {
			return MigrationResult{Reason: SkipReasonWaitedForOtherProcess}, nil
		}

		select {
		case <-executionContext.Done():
			return MigrationResult{}, executionContext.Err()
		case <-time.After(pollInterval):
		}
	}

	return MigrationResult{Reason: SkipReasonLockTimeout}, nil
}

func (service *Service) runLockedMigration(legacyRootPath string, currentRootPath string, doneMarkerPath string) (MigrationResult, error) {
	if currentRootError := os.MkdirAll(currentRootPath, cacheDirectoryPermissionsConstant); currentRootError != nil {
		return MigrationResult{}, fmt.Errorf(currentRootCreationErrorTemplateConstant, currentRootPath, currentRootError)
	}

	result := MigrationResult{Migrated: true}

	for _, subdirectoryName := range cacheSubdirectoryNames {
		sourceDirectoryPath := filepath.Join(legacyRootPath, subdirectoryName)
		if !directoryExists(sourceDirectoryPath) {
			continue
		}

		targetDirectoryPath := filepath.Join(currentRootPath, subdirectoryName)
		if targetDirectoryError := os.MkdirAll(targetDirectoryPath, cacheDirectoryPermissionsConstant); targetDirectoryError != nil {
			return MigrationResult{}, fmt.Errorf(currentRootCreationErrorTemplateConstant, targetDirectoryPath, targetDirectoryError)
		}

		directoryEntries, listError := os.ReadDir(sourceDirectoryPath)
		if listError != nil {
			return MigrationResult{}, fmt.Errorf(legacyDirectoryListErrorTemplateConstant, sourceDirectoryPath, listError)
		}

		for _, directoryEntry := range directoryEntries {
			if !directoryEntry.Type().IsRegular() {
				continue
			}

			sourceFilePath := filepath.Join(sourceDirectoryPath, directoryEntry.Name())
			targetFilePath := filepath.Join(targetDirectoryPath, directoryEntry.Name())

			if pathExists(targetFilePath) {
				result.Skipped++
				continue
			}

			if moveError := os.Rename(sourceFilePath, targetFilePath); moveError != nil {
				result.Errors++
				service.logger.Debug(
					fileMoveFailedMessageConstant,
					zap.String(logFieldSourcePathConstant, sourceFilePath),
					zap.Error(moveError),
				)
				continue
			}

			result.Moved++
		}
	}

	service.removeEmptyLegacyDirectories(legacyRootPath)

	// The marker is the single commit point: skipping it after a pass with
	// errors keeps the failed files eligible for a later retry.
	if result.Errors == 0 {
		doneMarkerContent := strconv.FormatInt(time.Now().Unix(), 10)
		if markerWriteError := os.WriteFile(doneMarkerPath, []byte(doneMarkerContent), doneMarkerPermissionsConstant); markerWriteError != nil {
			return MigrationResult{}, fmt.Errorf(doneMarkerWriteErrorTemplateConstant, doneMarkerPath, markerWriteError)
		}
	}

	if result.Moved > 0 || result.Skipped > 0 || result.Errors > 0 {
		service.logger.Info(
			migrationSummaryMessageConstant,
			zap.Int(logFieldMovedConstant, result.Moved),
			zap.Int(logFieldSkippedConstant, result.Skipped),
			zap.Int(logFieldErrorsConstant, result.Errors),
		)
	}

	return result, nil
}

func (service *Service) removeEmptyLegacyDirectories(legacyRootPath string) {
	for _, subdirectoryName := range cacheSubdirectoryNames {
		service.removeDirectoryIfEmpty(filepath.Join(legacyRootPath, subdirectoryName))
	}
	service.removeDirectoryIfEmpty(legacyRootPath)
}

func (service *Service) removeDirectoryIfEmpty(directoryPath string) {
	directoryEntries, listError := os.ReadDir(directoryPath)
	if listError != nil || len(directoryEntries) > 0 {
		return
	}

	if removeError := os.Remove(directoryPath); removeError != nil {
		service.logger.Debug(
			directoryCleanupFailedMessageConstant,
			zap.String(logFieldDirectoryPathConstant, directoryPath),
			zap.Error(removeError),
		)
	}
}

func directoryExists(candidatePath string) bool {
	pathInformation, statError := os.Stat(candidatePath)
	return statError == nil && pathInformation.IsDir()
}

func pathExists(candidatePath string) bool {
	_, statError := os.Lstat(candidatePath)
	return statError == nil
}
