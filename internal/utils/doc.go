// Package utils provides shared helpers for the asarlock commands.
//
// # Filesystem
//
//   - FindProjectRoot: walks up to the nearest package.json
//   - CopyFile, CopyDir, MoveDir: tree manipulation for the scratch directory
//
// # Project
//
//   - ReadPackageInfo, PackageField: package.json reads via gjson
//
// # Terminal and I/O
//
//   - ReadSecret: prompts for the key without echo
//   - ReadStdin: reads a piped key
package utils
