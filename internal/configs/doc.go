// Package configs loads the encryptor configuration and tracks the project
// the current command operates on.
//
// The configuration is read from the first of these files found in the
// project root:
//
//   - encryptor.toml
//   - encryptor.yaml / encryptor.yml
//   - encryptor.json / encryptor.jsonc (comments and trailing commas allowed)
//
// Every omitted field is filled with its default:
//
//	protocol          = "myclient"
//	privileges        = standard, secure, bypassCSP, allowServiceWorkers,
//	                    supportFetchAPI, corsEnabled, stream
//	noRegisterSchemes = false
//	verifyAsar        = false
//	preload           = ["preload.js"]
//	renderer          = { input = ["renderer"], output = "resources/renderer.pak" }
//
// preload may be a single string or a list in every format. The key may be
// supplied through ASARLOCK_KEY instead of the file, which keeps it out of
// version control; the environment wins when both are set.
//
// The build and the protected app load the configuration independently.
// WriteRuntimeConfig serializes the effective config next to the main script
// so both sides agree on the key.
package configs
