// Package audit records protect and verify runs in a project-level log.
//
// The log is JSON Lines at .asarlock/audit.jsonl in the project root. Each
// entry carries the UTC timestamp, the OS user and host, the operation, and
// the app name, version, platform, output directory, fingerprint and elapsed
// time when they apply.
//
//	entry := audit.NewEntry("protect")
//	defer func() { audit.Log(projectDir, entry) }()
//
// Logging is best-effort: a failed write never fails the command.
package audit
