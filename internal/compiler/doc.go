// Package compiler turns entry scripts into opaque bytenode artifacts.
//
// Two steps run per script:
//
//  1. ESBuild flattens the script and its relative imports into one
//     CommonJS file. Packages from node_modules stay external so they are
//     resolved at runtime from the app's own node_modules.
//  2. Bytenode compiles that file to V8 bytecode by running the target
//     application's executable on a generated compiler.js. The packaged app
//     must already have its entry replaced with require(process.argv[1]) so
//     the executable runs the compiler script instead of the app.
//
// After compilation the original script is replaced by Loader, which pulls
// in the .jsc artifact at runtime.
package compiler
