package compiler

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	kerrors "github.com/PolarWolf314/asarlock/internal/errors"
	logger "github.com/PolarWolf314/asarlock/internal/logging"
)

// CompilerScriptName is written next to the input while compiling.
const CompilerScriptName = "compiler.js"

// Bytenode compiles scripts by running the target app's executable.
type Bytenode struct {
	// Env is appended to the current environment of the subprocess.
	Env    []string
	Logger logger.Logger
}

// Compile produces output from input using the executable at execPath.
// compiler.js is removed on every path.
func (c Bytenode) Compile(ctx context.Context, input, output, execPath string) error {
	compilerPath := filepath.Join(filepath.Dir(input), CompilerScriptName)
	if err := os.WriteFile(compilerPath, CompilerScript(input, output), 0644); err != nil {
		return fmt.Errorf("%w: writing %s: %v", kerrors.ErrCompilationFailed, CompilerScriptName, err)
	}
	defer os.Remove(compilerPath)

	cmd := exec.CommandContext(ctx, execPath, compilerPath)
	cmd.Dir = filepath.Dir(input)
	cmd.Env = append(os.Environ(), c.Env...)

	c.Logger.Debugf("running %s %s", execPath, compilerPath)
	out, err := cmd.CombinedOutput()
	if len(out) > 0 {
		c.Logger.Debugf("compiler output: %s", strings.TrimSpace(string(out)))
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", kerrors.ErrCompilationFailed, filepath.Base(input), err)
	}

	if info, err := os.Stat(output); err != nil || info.Size() == 0 {
		return fmt.Errorf("%w: %s produced no artifact", kerrors.ErrCompilationFailed, filepath.Base(input))
	}
	return nil
}

// CompilerScript returns the compiler.js source for input and output.
func CompilerScript(input, output string) []byte {
	return []byte(strings.Join([]string{
		"'use strict';",
		"const bytenode = require('bytenode');",
		"require('v8').setFlagsFromString('--no-lazy');",
		fmt.Sprintf("bytenode.compileFile(%s, %s);", jsString(input), jsString(output)),
		"process.exit();",
	}, "\n"))
}

// Loader returns the script that replaces a compiled source. It loads the
// sibling artifact named jscName.
func Loader(jscName string) []byte {
	return []byte(strings.Join([]string{
		`"use strict";require('bytenode');`,
		`require('v8').setFlagsFromString('--no-lazy');`,
		fmt.Sprintf("require('./%s');", jscName),
	}, "\n") + "\n")
}

// ArtifactName is the .jsc name for a script, e.g. main.js -> main-c.jsc.
func ArtifactName(script string) string {
	base := filepath.Base(script)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "-c.jsc"
}

// jsString quotes p as a single-quoted JS string with forward slashes.
func jsString(p string) string {
	p = filepath.ToSlash(p)
	p = strings.ReplaceAll(p, `\`, `\\`)
	p = strings.ReplaceAll(p, `'`, `\'`)
	return "'" + p + "'"
}
