// Package controller provides the bridge between the UI and the icon passes
package controller

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kacebover/iconkit/archive"
	"github.com/kacebover/iconkit/config"
	"github.com/kacebover/iconkit/raster"
	"github.com/rs/zerolog/log"
)

// ErrBusy is returned when an operation is started while another one runs.
var ErrBusy = errors.New("another operation is already running")

// LogLevel represents log message severity
type LogLevel int

const (
	LogInfo LogLevel = iota
	LogWarning
	LogError
	LogDebug
)

func (l LogLevel) String() string {
	switch l {
	case LogWarning:
		return "WARN"
	case LogError:
		return "ERROR"
	case LogDebug:
		return "DEBUG"
	default:
		return "INFO"
	}
}

// Operation names a pass the controller can run.
type Operation string

const (
	OpGenerate Operation = "generate"
	OpResize   Operation = "resize"
	OpEnhance  Operation = "enhance"
	OpThicken  Operation = "thicken"
	OpVerify   Operation = "verify"
	OpPack     Operation = "pack"
)

// State is the controller's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateFailed
)

// Result is the outcome of one operation. Only the fields matching the
// operation are set.
type Result struct {
	Operation Operation
	Targets   []raster.TargetResult
	Report    *archive.Report
	Pack      *archive.PackResult
	Err       error
	Duration  time.Duration
}

// Failed reports whether the operation or any of its targets failed.
// Missing targets are not failures.
func (r *Result) Failed() bool {
	if r.Err != nil {
		return true
	}
	for _, t := range r.Targets {
		if t.Err != nil && !errors.Is(t.Err, raster.ErrSourceNotFound) {
			return true
		}
	}
	return false
}

// IconController runs icon and archive operations in the background and
// reports through callbacks for UI updates
type IconController struct {
	config     *config.Config
	configPath string

	// Callbacks
	onLogMessage  func(LogLevel, string)
	onStateChange func(State)
	onComplete    func(*Result)

	// State
	mu         sync.RWMutex
	running    bool
	current    Operation
	lastResult *Result
	wg         sync.WaitGroup
}

// NewIconController loads the config at configPath (the user config file
// when empty) and returns an idle controller.
func NewIconController(configPath string) (*IconController, error) {
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return &IconController{config: cfg, configPath: configPath}, nil
}

// SetOnLogMessage sets the callback for log messages
func (ic *IconController) SetOnLogMessage(callback func(LogLevel, string)) {
	ic.onLogMessage = callback
}

// SetOnStateChange sets the callback for state changes
func (ic *IconController) SetOnStateChange(callback func(State)) {
	ic.onStateChange = callback
}

// SetOnComplete sets the callback for operation completion
func (ic *IconController) SetOnComplete(callback func(*Result)) {
	ic.onComplete = callback
}

// GetConfig returns a copy of the current configuration
func (ic *IconController) GetConfig() *config.Config {
	ic.mu.RLock()
	defer ic.mu.RUnlock()
	return ic.config.Clone()
}

// UpdateConfig validates, stores and saves configuration
func (ic *IconController) UpdateConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ic.mu.Lock()
	ic.config = cfg.Clone()
	ic.mu.Unlock()
	return config.Save(ic.configPath, cfg)
}

// SetIconDir points the controller at another icon directory and remembers it.
func (ic *IconController) SetIconDir(dir string) error {
	cfg := ic.GetConfig()
	cfg.IconDir = dir
	cfg.AddRecentDir(dir)
	return ic.UpdateConfig(cfg)
}

// Icons returns the icon files of the configured sizes that exist.
func (ic *IconController) Icons() []raster.Target {
	cfg := ic.GetConfig()
	var icons []raster.Target
	for _, t := range raster.IconTargets(cfg.IconDir, cfg.Sizes) {
		if info, err := os.Stat(t.Path); err == nil && !info.IsDir() {
			icons = append(icons, t)
		}
	}
	return icons
}

// Generate draws every configured icon size.
func (ic *IconController) Generate() error {
	cfg := ic.GetConfig()
	return ic.start(OpGenerate, func() *Result {
		style, err := cfg.IconStyle()
		if err != nil {
			return &Result{Err: err}
		}
		targets, err := raster.GenerateIcons(cfg.IconDir, cfg.Sizes, style)
		if err == nil && cfg.WriteICO {
			err = raster.WriteICO(filepath.Join(cfg.IconDir, raster.FaviconName), raster.ResultImages(targets))
		}
		return &Result{Targets: targets, Err: err}
	})
}

// Resize resamples src (the configured source when empty) to every size.
func (ic *IconController) Resize(src string) error {
	cfg := ic.GetConfig()
	if src == "" {
		src = cfg.SourceImage
	}
	return ic.start(OpResize, func() *Result {
		targets, err := raster.ResizeIcons(src, cfg.IconDir, cfg.Sizes, cfg.Resize)
		return &Result{Targets: targets, Err: err}
	})
}

// Enhance runs the named profile (the configured one when empty) over the icons.
func (ic *IconController) Enhance(profileName string) error {
	cfg := ic.GetConfig()
	if profileName != "" {
		cfg.Enhance = profileName
	}
	profile, err := cfg.EnhanceProfile()
	if err != nil {
		return err
	}
	return ic.start(OpEnhance, func() *Result {
		return &Result{Targets: raster.EnhanceTargets(raster.IconTargets(cfg.IconDir, cfg.Sizes), profile)}
	})
}

// Thicken thickens the icons; passes < 0 uses the per-size configuration.
func (ic *IconController) Thicken(passes int) error {
	cfg := ic.GetConfig()
	passesFor := cfg.PassesFor
	if passes >= 0 {
		passesFor = func(int) int { return passes }
	}
	return ic.start(OpThicken, func() *Result {
		return &Result{Targets: raster.ThickenTargets(raster.IconTargets(cfg.IconDir, cfg.Sizes), passesFor)}
	})
}

// Verify inspects an extension archive.
func (ic *IconController) Verify(path, password string) error {
	opts := ic.GetConfig().Verify
	opts.Password = password
	return ic.start(OpVerify, func() *Result {
		report, err := archive.Verify(path, opts)
		return &Result{Report: report, Err: err}
	})
}

// Pack zips an extension directory.
func (ic *IconController) Pack(dir, output, password string) error {
	cfg := ic.GetConfig()
	opts := archive.PackOptions{
		Password: password,
		Exclude:  cfg.PackExclude,
		OnProgress: func(current, total int, entry string) {
			ic.log(LogDebug, fmt.Sprintf("Adding %s (%d/%d)", entry, current, total))
		},
	}
	return ic.start(OpPack, func() *Result {
		res, err := archive.Pack(dir, output, opts)
		return &Result{Pack: res, Err: err}
	})
}

// start runs fn in the background unless another operation is running.
func (ic *IconController) start(op Operation, fn func() *Result) error {
	ic.mu.Lock()
	if ic.running {
		ic.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrBusy, ic.current)
	}
	ic.running = true
	ic.current = op
	ic.wg.Add(1)
	ic.mu.Unlock()

	ic.log(LogInfo, "Starting "+string(op))
	if ic.onStateChange != nil {
		ic.onStateChange(StateRunning)
	}

	go func() {
		defer ic.wg.Done()

		started := time.Now()
		result := fn()
		result.Operation = op
		result.Duration = time.Since(started)

		ic.logResult(result)

		ic.mu.Lock()
		ic.running = false
		ic.current = ""
		ic.lastResult = result
		ic.mu.Unlock()

		state := StateCompleted
		if result.Failed() {
			state = StateFailed
		}
		if ic.onStateChange != nil {
			ic.onStateChange(state)
		}
		if ic.onComplete != nil {
			ic.onComplete(result)
		}
	}()

	return nil
}

func (ic *IconController) logResult(r *Result) {
	for _, t := range r.Targets {
		switch {
		case t.Err == nil:
			ic.log(LogInfo, fmt.Sprintf("%s: %s", r.Operation, t.Path))
		case errors.Is(t.Err, raster.ErrSourceNotFound):
			ic.log(LogWarning, "Not found: "+t.Path)
		default:
			ic.log(LogError, fmt.Sprintf("Failed to process %s: %v", t.Path, t.Err))
		}
	}
	if r.Pack != nil {
		ic.log(LogInfo, fmt.Sprintf("Packed %d files into %s", len(r.Pack.Entries), r.Pack.OutputPath))
	}
	if r.Err != nil {
		ic.log(LogError, fmt.Sprintf("%s failed: %v", r.Operation, r.Err))
		return
	}
	ic.log(LogInfo, fmt.Sprintf("%s finished in %s", r.Operation, r.Duration.Round(time.Millisecond)))
}

// IsRunning returns whether an operation is in progress
func (ic *IconController) IsRunning() bool {
	ic.mu.RLock()
	defer ic.mu.RUnlock()
	return ic.running
}

// LastResult returns the result of the most recent finished operation
func (ic *IconController) LastResult() *Result {
	ic.mu.RLock()
	defer ic.mu.RUnlock()
	return ic.lastResult
}

// Wait blocks until the running operation, if any, has finished.
func (ic *IconController) Wait() {
	ic.wg.Wait()
}

// log emits a log message
func (ic *IconController) log(level LogLevel, message string) {
	switch level {
	case LogError:
		log.Error().Msg(message)
	case LogWarning:
		log.Warn().Msg(message)
	default:
		log.Debug().Msg(message)
	}
	if ic.onLogMessage != nil {
		ic.onLogMessage(level, message)
	}
}
