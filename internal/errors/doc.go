// Package errors provides typed error values for asarlock.
//
// Sentinel errors let callers handle specific conditions with errors.Is()
// instead of string matching.
//
// # Error Categories
//
//   - Configuration errors: ErrConfigInvalid, ErrMissingSecret
//   - Pipeline errors: ErrPipelineStep, ErrCompilationFailed, ErrDependencySync
//   - Crypto errors: ErrEncryptFailed, ErrDecryptFailed
//   - Integrity errors: ErrIntegrityMismatch, ErrManifestInvalid
//   - Resource errors: ErrResourceNotFound
//
// Build-time failures are reported as *StepError, which carries the stage
// name and elapsed time and matches ErrPipelineStep as well as its cause:
//
//	_, err := workflows.Protect(ctx, opts)
//	if errors.Is(err, kerrors.ErrCompilationFailed) {
//	    // the compiler subprocess failed
//	}
//
// Wrap errors with additional context:
//
//	return fmt.Errorf("reading bundle %s: %w", path, errors.ErrDecryptFailed)
package errors
