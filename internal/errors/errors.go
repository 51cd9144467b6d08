package errors

import (
	"errors"
	"fmt"
	"time"
)

// Configuration errors indicate a missing or malformed encryptor configuration.
var (
	// ErrConfigInvalid indicates the configuration file could not be parsed or failed validation.
	ErrConfigInvalid = errors.New("encryptor configuration is invalid")

	// ErrMissingSecret indicates no encryption key was configured.
	ErrMissingSecret = errors.New("encryption key is not configured")

	// ErrProjectNotFound indicates no package.json could be located for the project.
	ErrProjectNotFound = errors.New("project package.json not found")
)

// Pipeline errors indicate a failure while protecting an application package.
var (
	// ErrPipelineStep indicates a build-time transform failed and the pipeline was aborted.
	ErrPipelineStep = errors.New("protection step failed")

	// ErrCompilationFailed indicates the external compiler did not produce an artifact.
	ErrCompilationFailed = errors.New("script compilation failed")

	// ErrBundleFailed indicates the bundler could not flatten an entry script.
	ErrBundleFailed = errors.New("script bundling failed")

	// ErrDependencySync indicates a runtime module could not be copied or installed.
	ErrDependencySync = errors.New("runtime dependency sync failed")

	// ErrEntryNotFound indicates the package.json main entry does not exist in the container.
	ErrEntryNotFound = errors.New("entry script not found")
)

// Cryptographic errors indicate failures during encryption or decryption operations.
var (
	// ErrEncryptFailed indicates a buffer could not be encrypted.
	ErrEncryptFailed = errors.New("failed to encrypt data")

	// ErrDecryptFailed indicates an envelope could not be decrypted. It is deliberately
	// the only error returned for short input, bad padding and a wrong key alike.
	ErrDecryptFailed = errors.New("failed to decrypt data")
)

// Integrity errors indicate the protected package does not match its manifest.
var (
	// ErrIntegrityMismatch indicates the container fingerprint differs from the manifest.
	ErrIntegrityMismatch = errors.New("integrity verification failed")

	// ErrManifestInvalid indicates the integrity manifest is missing or malformed.
	ErrManifestInvalid = errors.New("integrity manifest is invalid")
)

// Resource errors indicate issues resolving virtual resources at runtime.
var (
	// ErrResourceNotFound indicates the requested path is not in the resource bundle.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrInvalidArchive indicates the archive structure is invalid.
	ErrInvalidArchive = errors.New("invalid archive structure")
)

// Audit errors.
var (
	// ErrNoHistory indicates no audit log exists for the project.
	ErrNoHistory = errors.New("no build history found")
)

// StepError records which pipeline stage failed and how long the run had been going.
type StepError struct {
	Stage   string
	Elapsed time.Duration
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed after %s: %v", e.Stage, e.Elapsed.Round(time.Millisecond), e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Is reports ErrPipelineStep for every StepError so callers can match the category
// without knowing the underlying cause.
func (e *StepError) Is(target error) bool {
	return target == ErrPipelineStep
}
