package workflows

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PolarWolf314/asarlock/internal/audit"
	"github.com/PolarWolf314/asarlock/internal/bundle"
	"github.com/PolarWolf314/asarlock/internal/compiler"
	"github.com/PolarWolf314/asarlock/internal/configs"
	kerrors "github.com/PolarWolf314/asarlock/internal/errors"
	"github.com/PolarWolf314/asarlock/internal/integrity"
	logger "github.com/PolarWolf314/asarlock/internal/logging"
	"github.com/PolarWolf314/asarlock/internal/secrets"
	"github.com/PolarWolf314/asarlock/internal/utils"
	"github.com/blang/semver/v4"
	"github.com/dustin/go-humanize"
	"github.com/facebookgo/atomicfile"
	"github.com/google/uuid"
)

const (
	// RenderDirName is reserved in the extracted app for renderer assets
	// while they are being bundled.
	RenderDirName = "render"

	ContainerName = "app.asar"
	ManifestName  = "app.json"

	// compilerEntry replaces main in the interim container so the app
	// executable runs whatever script it is given.
	compilerEntry = "require(process.argv[1])"
)

// ProtectOptions configures the protect workflow.
type ProtectOptions struct {
	Pack PackContext

	// Config is loaded from Pack.ProjectDir when nil.
	Config *configs.EncryptorConfig

	// ExecPath overrides the packaged executable used for compilation.
	ExecPath string

	Container Container
	Bundler   Bundler
	Compiler  Compiler
	Installer Installer

	BeforeRepack Hook

	// OnStage is called after each stage is reached.
	OnStage func(Stage)

	Logger logger.Logger
}

// ProtectResult contains the outcome of a protect run.
type ProtectResult struct {
	Name        string
	Version     string
	Fingerprint string

	ContainerPath string
	ManifestPath  string
	BundlePath    string
	BundleSize    int64

	// Compiled lists compiled scripts relative to the app root.
	Compiled []string
	Modules  *ModuleSync

	Elapsed time.Duration
}

// protector carries the state of one protect run.
type protector struct {
	opts  ProtectOptions
	log   logger.Logger
	start time.Time
	stage Stage

	cfg        *configs.EncryptorConfig
	project    *utils.PackageInfo
	projectDir string
	scratch    string
	appDir     string
	asarPath   string
	execPath   string
	mainPath   string
	mainBackup string

	result *ProtectResult
}

// Protect runs the protection pipeline on a packaged application.
//
// The container at <app>/resources/app.asar is extracted into a scratch
// directory next to the app, the runtime modules are synced into it, the
// main and preload scripts are compiled to bytenode artifacts with the app's
// own executable, the renderer assets are zipped and encrypted into the
// renderer output, and the container is repacked and stamped with an
// integrity manifest. The scratch directory is removed on every path.
//
// Failures are returned as *errors.StepError naming the step that failed.
func Protect(ctx context.Context, opts ProtectOptions) (*ProtectResult, error) {
	if opts.Container == nil {
		opts.Container = AsarContainer{}
	}
	if opts.Bundler == nil {
		opts.Bundler = compiler.ESBuild{Logger: opts.Logger}
	}
	if opts.Compiler == nil {
		opts.Compiler = compiler.Bytenode{Logger: opts.Logger}
	}

	p := &protector{
		opts:   opts,
		log:    opts.Logger,
		start:  time.Now(),
		appDir: opts.Pack.AppDir(),
		result: &ProtectResult{},
	}
	p.asarPath = filepath.Join(p.appDir, "resources", ContainerName)
	p.scratch = filepath.Join(filepath.Dir(filepath.Clean(opts.Pack.AppOutDir)), ".asarlock-"+uuid.NewString())
	defer p.removeScratch()

	entry := audit.NewEntry("protect")
	entry.Platform = opts.Pack.platform()
	entry.Output = p.appDir
	defer func() {
		entry.App = p.result.Name
		entry.Version = p.result.Version
		entry.MD5 = p.result.Fingerprint
		entry.Since(p.start)
		audit.Log(p.projectDir, entry)
	}()

	steps := []struct {
		stage Stage
		run   func(context.Context) error
	}{
		{StageConfigLoaded, p.loadConfig},
		{StageExtracted, p.extract},
		{StageDependenciesSynced, p.syncDependencies},
		{StageEntryReplaced, p.replaceEntry},
		{StageInterimRepacked, p.interimRepack},
		{StageAssetsRelocated, p.relocateAssets},
		{StageMainCompiled, p.compileMain},
		{StagePreloadsCompiled, p.compilePreloads},
		{StageAssetsEncrypted, p.encryptAssets},
		{StageFinalRepacked, p.finalRepack},
		{StageStamped, p.stamp},
		{StageCleaned, p.clean},
	}

	for _, s := range steps {
		if err := p.step(ctx, s.stage, s.run); err != nil {
			entry.Fail(err)
			return nil, err
		}
	}

	p.result.Elapsed = time.Since(p.start)
	p.advance(StageDone)
	p.log.Infof("protected %s in %s", p.result.Name, p.result.Elapsed.Round(time.Millisecond))
	return p.result, nil
}

func (p *protector) step(ctx context.Context, next Stage, run func(context.Context) error) error {
	err := ctx.Err()
	if err == nil {
		err = run(ctx)
	}
	if err != nil {
		return p.fail(next, err)
	}
	p.advance(next)
	return nil
}

func (p *protector) fail(next Stage, err error) error {
	stepErr := &kerrors.StepError{Stage: next.Step(), Elapsed: time.Since(p.start), Err: err}
	p.log.Errorf("%v", stepErr)
	return stepErr
}

func (p *protector) advance(s Stage) {
	p.stage = s
	p.log.Debugf("stage %s reached after %s", s, time.Since(p.start).Round(time.Millisecond))
	if p.opts.OnStage != nil {
		p.opts.OnStage(s)
	}
}

func (p *protector) removeScratch() {
	if err := os.RemoveAll(p.scratch); err != nil {
		p.log.WarnfAlways("failed to remove scratch directory %s: %v", p.scratch, err)
	}
}

func (p *protector) loadConfig(ctx context.Context) error {
	projectDir := p.opts.Pack.ProjectDir
	if projectDir == "" {
		projectDir = "."
	}
	settings, err := configs.LoadProjectSettings(projectDir)
	if err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrProjectNotFound, err)
	}
	p.projectDir = settings.ProjectPath

	cfg := p.opts.Config
	if cfg == nil {
		loaded, err := configs.Load(p.projectDir)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	p.cfg = cfg

	info, err := utils.ReadPackageInfo(filepath.Join(p.projectDir, "package.json"))
	if err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrProjectNotFound, err)
	}
	if info.Name == "" {
		info.Name = settings.ProjectName
	}
	if _, err := semver.Parse(info.Version); err != nil {
		p.log.WarnfAlways("package version %q is not valid semver: %v", info.Version, err)
	}
	p.project = info
	p.result.Name = info.Name
	p.result.Version = info.Version
	return nil
}

func (p *protector) extract(ctx context.Context) error {
	if _, err := os.Stat(p.asarPath); err != nil {
		return err
	}
	p.log.Infof("extracting %s", p.asarPath)
	return p.opts.Container.Extract(p.asarPath, p.scratch)
}

func (p *protector) syncDependencies(ctx context.Context) error {
	synced, err := SyncModules(ctx, ModuleSyncOptions{
		ProjectDir: p.projectDir,
		AppDir:     p.scratch,
		Modules:    p.cfg.RuntimeModules(),
		Installer:  p.opts.Installer,
		Logger:     p.log,
	})
	if err != nil {
		return err
	}
	p.result.Modules = synced
	return nil
}

func (p *protector) replaceEntry(ctx context.Context) error {
	appPkg, err := utils.ReadPackageInfo(filepath.Join(p.scratch, "package.json"))
	if err != nil {
		return err
	}
	main := appPkg.Main
	if main == "" {
		main = "index.js"
	}
	p.mainPath = filepath.Join(p.scratch, filepath.FromSlash(main))
	if _, err := os.Stat(p.mainPath); err != nil {
		return fmt.Errorf("%w: %s", kerrors.ErrEntryNotFound, main)
	}

	p.execPath = p.opts.ExecPath
	if p.execPath == "" {
		p.execPath = p.opts.Pack.ExecPath(appPkg.Name)
	}

	p.mainBackup = p.mainPath + ".tmp"
	if err := os.Rename(p.mainPath, p.mainBackup); err != nil {
		return err
	}
	return os.WriteFile(p.mainPath, []byte(compilerEntry), 0644)
}

func (p *protector) interimRepack(ctx context.Context) error {
	if err := p.opts.Container.Pack(p.scratch, p.asarPath); err != nil {
		return err
	}
	return os.Rename(p.mainBackup, p.mainPath)
}

func (p *protector) relocateAssets(ctx context.Context) error {
	renderDir := filepath.Join(p.scratch, RenderDirName)
	if utils.Exists(renderDir) {
		return fmt.Errorf("the app already contains %q, which is reserved for renderer assets", RenderDirName)
	}
	if err := os.MkdirAll(renderDir, 0755); err != nil {
		return err
	}

	for _, in := range p.cfg.Renderer.Input {
		src := filepath.Join(p.scratch, filepath.FromSlash(in))
		if _, err := os.Stat(src); err != nil {
			return fmt.Errorf("renderer input %s: %w", in, err)
		}
		if err := utils.MoveDir(src, filepath.Join(renderDir, filepath.FromSlash(in))); err != nil {
			return fmt.Errorf("moving renderer input %s: %w", in, err)
		}
	}
	return nil
}

func (p *protector) compileMain(ctx context.Context) error {
	mainDir := filepath.Dir(p.mainPath)
	runtimeConfig, err := configs.WriteRuntimeConfig(mainDir, p.cfg)
	if err != nil {
		return err
	}
	// The config is inlined by the bundler and must not ship as a file.
	defer os.Remove(runtimeConfig)

	if err := p.injectPrelude(); err != nil {
		return err
	}
	return p.compileScript(ctx, p.mainPath)
}

// injectPrelude prepends the config loader and the optional runtime prelude
// to the main script.
func (p *protector) injectPrelude() error {
	source, err := os.ReadFile(p.mainPath)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\"use strict\";var __encryptorConfig = require('./%s');__encryptorConfig = __encryptorConfig.default || __encryptorConfig;\n", configs.RuntimeConfigName)
	if prelude := p.cfg.Runtime.Prelude; prelude != "" {
		data, err := os.ReadFile(filepath.Join(p.projectDir, filepath.FromSlash(prelude)))
		if err != nil {
			return fmt.Errorf("reading runtime prelude: %w", err)
		}
		b.Write(data)
		b.WriteString("\n")
	}
	b.Write(source)

	return os.WriteFile(p.mainPath, []byte(b.String()), 0644)
}

func (p *protector) compilePreloads(ctx context.Context) error {
	mainDir := filepath.Dir(p.mainPath)
	for _, preload := range p.cfg.Preload {
		script := filepath.Join(mainDir, filepath.FromSlash(preload))
		if !utils.Exists(script) {
			p.log.Debugf("preload %s not found, skipping", preload)
			continue
		}
		if err := p.compileScript(ctx, script); err != nil {
			return err
		}
	}
	return nil
}

// compileScript bundles script, compiles the bundle next to it and replaces
// the script with the loader.
func (p *protector) compileScript(ctx context.Context, script string) error {
	dir := filepath.Dir(script)
	base := filepath.Base(script)
	bundled := filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".bundle.js")
	defer os.Remove(bundled)

	if err := p.opts.Bundler.Bundle(ctx, script, bundled); err != nil {
		return err
	}

	jscName := compiler.ArtifactName(script)
	if err := p.opts.Compiler.Compile(ctx, bundled, filepath.Join(dir, jscName), p.execPath); err != nil {
		if !errors.Is(err, kerrors.ErrCompilationFailed) {
			err = fmt.Errorf("%w: %v", kerrors.ErrCompilationFailed, err)
		}
		return err
	}

	if err := os.WriteFile(script, compiler.Loader(jscName), 0644); err != nil {
		return err
	}

	rel, _ := filepath.Rel(p.scratch, script)
	p.result.Compiled = append(p.result.Compiled, filepath.ToSlash(rel))
	p.log.Infof("compiled %s", filepath.ToSlash(rel))
	return nil
}

func (p *protector) encryptAssets(ctx context.Context) error {
	pruned, err := PruneEmptyDirs(p.scratch, []string{RenderDirName, "node_modules"})
	if err != nil {
		return fmt.Errorf("pruning empty directories: %w", err)
	}
	p.log.Debugf("pruned %d empty directories", pruned)

	renderDir := filepath.Join(p.scratch, RenderDirName)
	packed, err := bundle.Pack(renderDir)
	if err != nil {
		return err
	}
	envelope, err := secrets.Encrypt(packed, p.cfg.Key)
	if err != nil {
		return err
	}

	out := filepath.Join(p.appDir, filepath.FromSlash(p.cfg.Renderer.Output))
	if err := writeAtomic(out, envelope); err != nil {
		return err
	}
	p.result.BundlePath = out
	p.result.BundleSize = int64(len(envelope))
	p.log.Infof("wrote %s (%s)", out, humanize.Bytes(uint64(len(envelope))))

	return os.RemoveAll(renderDir)
}

func (p *protector) finalRepack(ctx context.Context) error {
	if p.opts.BeforeRepack != nil {
		if err := p.opts.BeforeRepack(ctx, HookContext{ScratchDir: p.scratch}); err != nil {
			return fmt.Errorf("before repack hook: %w", err)
		}
	}
	if err := p.opts.Container.Pack(p.scratch, p.asarPath); err != nil {
		return err
	}
	p.result.ContainerPath = p.asarPath
	return nil
}

func (p *protector) stamp(ctx context.Context) error {
	sum, err := integrity.Fingerprint(ctx, p.asarPath, p.cfg.Key)
	if err != nil {
		return err
	}

	manifest := filepath.Join(filepath.Dir(p.asarPath), ManifestName)
	if err := integrity.WriteManifest(manifest, integrity.Manifest{
		Name:    p.project.Name,
		Version: p.project.Version,
		MD5:     sum,
	}); err != nil {
		return err
	}
	p.result.Fingerprint = sum
	p.result.ManifestPath = manifest
	return nil
}

func (p *protector) clean(ctx context.Context) error {
	return os.RemoveAll(p.scratch)
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := atomicfile.New(path, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Abort()
		return err
	}
	return f.Close()
}
