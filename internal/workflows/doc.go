// Package workflows provides the high-level operations behind each asarlock
// command.
//
// Workflows coordinate the lower packages (configs, asar, bundle, secrets,
// compiler, integrity, audit) and stay free of CLI concerns. The cmd package
// parses flags, calls one workflow and formats its result.
//
// # Available Workflows
//
//   - Protect: runs the protection pipeline on a packaged app
//   - Verify: checks a packaged container against its integrity manifest
//   - Unpack: decrypts a renderer bundle for inspection
//   - History: reads the build audit log
//   - Doctor: checks that a project is ready to be protected
//
// # Protect Pipeline
//
// Protect is an explicit state machine. Each step either moves it to the
// next Stage or aborts the run:
//
//	Start -> ConfigLoaded -> Extracted -> DependenciesSynced -> EntryReplaced
//	-> InterimRepacked -> AssetsRelocated -> MainCompiled -> PreloadsCompiled
//	-> AssetsPackedAndEncrypted -> FinalRepacked -> Stamped -> Cleaned -> Done
//
// The only rollback is removing the scratch directory, which happens on every
// path. A failure after InterimRepacked leaves the container with its
// compiler entry in place; the packager must be rerun.
//
// The container, bundler and compiler sit behind the Container, Bundler and
// Compiler interfaces so the pipeline can be driven with fakes.
//
// # Error Handling
//
// Workflows return sentinels from internal/errors, so the CLI can pick
// messages and exit codes with errors.Is:
//
//	_, err := workflows.Protect(ctx, opts)
//	if errors.Is(err, kerrors.ErrCompilationFailed) {
//	    // the packaged executable could not compile a script
//	}
//
// Protect failures are *errors.StepError values, which match
// ErrPipelineStep and unwrap to the cause.
package workflows
