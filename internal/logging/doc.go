// Package logger provides leveled, coloured logging for asarlock commands
// and the packages they drive.
//
// # Verbosity Levels
//
//   - --verbose: Shows info and warning messages
//   - --debug: Shows all messages including debug details
//
// Without flags, only critical warnings and errors are shown.
//
// # Log Methods
//
//	Logger.Infof()       // Shown with --verbose or --debug
//	Logger.Debugf()      // Shown only with --debug
//	Logger.Warnf()       // Shown with --verbose or --debug
//	Logger.WarnfAlways() // Always shown (critical warnings)
//	Logger.Errorf()      // Always shown
//
// The pipeline and the resolver take a Logger value explicitly; there is no
// package-level logger outside of cmd/.
package logger
