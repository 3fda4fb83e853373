package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kacebover/iconkit/archive"
	"github.com/kacebover/iconkit/config"
	"github.com/kacebover/iconkit/raster"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	setupLogging(stderr, false)

	if len(args) == 0 {
		printMainHelp(stdout)
		return exitUsage
	}

	switch args[0] {
	case "generate":
		return runGenerateCommand(args[1:], stdout, stderr)
	case "resize":
		return runResizeCommand(args[1:], stdout, stderr)
	case "enhance":
		return runEnhanceCommand(args[1:], stdout, stderr)
	case "thicken":
		return runThickenCommand(args[1:], stdout, stderr)
	case "verify":
		return runVerifyCommand(args[1:], stdout, stderr)
	case "pack":
		return runPackCommand(args[1:], stdout, stderr)
	case "help", "--help", "-h":
		printMainHelp(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "❌ Unknown command: %s\n\n", args[0])
		printMainHelp(stderr)
		return exitUsage
	}
}

func printMainHelp(w io.Writer) {
	fmt.Fprintln(w, "🎨 iconkit - Extension Icon Toolkit")
	fmt.Fprintln(w, "===================================")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  generate   Draw the grid-and-stones icon at every size")
	fmt.Fprintln(w, "  resize     Resize a source image to every icon size")
	fmt.Fprintln(w, "  enhance    Snap icon lines to pure black and white")
	fmt.Fprintln(w, "  thicken    Make icon lines heavier")
	fmt.Fprintln(w, "  verify     Print manifest and script versions of an extension zip")
	fmt.Fprintln(w, "  pack       Zip an extension directory (optionally encrypted)")
	fmt.Fprintln(w, "  help       Show this help")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  iconkit generate -dir public/icons -ico")
	fmt.Fprintln(w, "  iconkit resize -src logo.png -sizes 16,32,48,128")
	fmt.Fprintln(w, "  iconkit enhance -profile super")
	fmt.Fprintln(w, "  iconkit verify dist/extension.zip")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'iconkit <command> -h' for command options.")
}

// setupLogging sends diagnostics to stderr: warnings by default, everything
// with -verbose.
func setupLogging(stderr io.Writer, verbose bool) {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: stderr, NoColor: true}).With().Timestamp().Logger()
}

// sizeList is a comma separated list of icon sizes ("16,48,128").
type sizeList []int

func (s *sizeList) String() string {
	parts := make([]string, len(*s))
	for i, v := range *s {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func (s *sizeList) Set(value string) error {
	var sizes []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid icon size %q", part)
		}
		sizes = append(sizes, n)
	}
	if len(sizes) == 0 {
		return errors.New("at least one icon size is required")
	}
	*s = sizes
	return nil
}

// commonFlags are shared by every icon command.
type commonFlags struct {
	configPath string
	dir        string
	sizes      sizeList
	verbose    bool
}

func newFlagSet(name string, stderr io.Writer, common *commonFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&common.configPath, "config", "", "Path to the config file (default: user config dir)")
	fs.StringVar(&common.dir, "dir", "", "Icon directory (overrides config)")
	fs.Var(&common.sizes, "sizes", "Comma separated icon sizes (overrides config)")
	fs.BoolVar(&common.verbose, "verbose", false, "Verbose diagnostics on stderr")
	return fs
}

// parseFlags parses args and returns an exit code when the command should stop.
// Flags may follow positional arguments; everything after "--" is positional.
func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return exitOK, true
			}
			return exitUsage, true
		}
		rest := fs.Args()
		consumed := args[:len(args)-len(rest)]
		if len(consumed) > 0 && consumed[len(consumed)-1] == "--" {
			positional = append(positional, rest...)
			break
		}
		if len(rest) == 0 {
			break
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
	// Reparse so fs.Args() returns the collected positionals.
	if err := fs.Parse(append([]string{"--"}, positional...)); err != nil {
		return exitUsage, true
	}
	return exitOK, false
}

// loadConfig reads the config file and applies the shared flag overrides.
func loadConfig(common *commonFlags, stderr io.Writer) (*config.Config, bool) {
	setupLogging(stderr, common.verbose)

	path := common.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(stderr, "❌ Error: %v\n", err)
		return nil, false
	}
	if common.dir != "" {
		cfg.IconDir = common.dir
	}
	if len(common.sizes) > 0 {
		cfg.Sizes = common.sizes
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "❌ Error: %v\n", err)
		return nil, false
	}
	log.Debug().Str("config", path).Str("dir", cfg.IconDir).Ints("sizes", cfg.Sizes).Msg("configuration loaded")
	return cfg, true
}

// ═══════════════════════════════════════════════════════════════════════════
// ICON COMMANDS
// ═══════════════════════════════════════════════════════════════════════════

func runGenerateCommand(args []string, stdout, stderr io.Writer) int {
	var common commonFlags
	fs := newFlagSet("generate", stderr, &common)
	writeICO := fs.Bool("ico", false, "Also bundle every size into favicon.ico")

	fs.Usage = func() {
		fmt.Fprintln(stdout, "🎨 Generate Icons")
		fmt.Fprintln(stdout, "=================")
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Draws a 3x3 grid with five stones and writes icon<N>.png per size.")
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Usage:")
		fmt.Fprintln(stdout, "  iconkit generate [options]")
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Options:")
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		fs.SetOutput(stderr)
	}

	if code, stop := parseFlags(fs, args); stop {
		return code
	}
	cfg, ok := loadConfig(&common, stderr)
	if !ok {
		return exitError
	}

	style, err := cfg.IconStyle()
	if err != nil {
		fmt.Fprintf(stderr, "❌ Error: %v\n", err)
		return exitError
	}

	results, err := raster.GenerateIcons(cfg.IconDir, cfg.Sizes, style)
	if err != nil {
		fmt.Fprintf(stderr, "❌ Error: %v\n", err)
		return exitError
	}
	failed := printResults(stdout, results, "Generated")

	if *writeICO || cfg.WriteICO {
		if !bundleICO(stdout, cfg.IconDir, results) {
			failed++
		}
	}
	return exitCode(failed)
}

func runResizeCommand(args []string, stdout, stderr io.Writer) int {
	var common commonFlags
	fs := newFlagSet("resize", stderr, &common)
	src := fs.String("src", "", "Source image (overrides config)")
	writeICO := fs.Bool("ico", false, "Also bundle every size into favicon.ico")

	fs.Usage = func() {
		fmt.Fprintln(stdout, "📐 Resize Icons")
		fmt.Fprintln(stdout, "===============")
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Resamples one source image to every icon size. Small sizes get an")
		fmt.Fprintln(stdout, "extra contrast boost and an unsharp mask.")
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Usage:")
		fmt.Fprintln(stdout, "  iconkit resize -src <image> [options]")
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Options:")
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		fs.SetOutput(stderr)
	}

	if code, stop := parseFlags(fs, args); stop {
		return code
	}
	cfg, ok := loadConfig(&common, stderr)
	if !ok {
		return exitError
	}
	if *src != "" {
		cfg.SourceImage = *src
	}

	results, err := raster.ResizeIcons(cfg.SourceImage, cfg.IconDir, cfg.Sizes, cfg.Resize)
	if err != nil {
		fmt.Fprintf(stdout, "❌ Error: %v\n", err)
		return exitError
	}
	failed := printResults(stdout, results, "Generated")

	if *writeICO || cfg.WriteICO {
		if !bundleICO(stdout, cfg.IconDir, results) {
			failed++
		}
	}
	return exitCode(failed)
}

func runEnhanceCommand(args []string, stdout, stderr io.Writer) int {
	var common commonFlags
	fs := newFlagSet("enhance", stderr, &common)
	profileName := fs.String("profile", "", "Enhance profile: basic or super (overrides config)")

	fs.Usage = func() {
		fmt.Fprintln(stdout, "✨ Enhance Icons")
		fmt.Fprintln(stdout, "================")
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Boosts contrast and snaps dark pixels to black and light pixels to")
		fmt.Fprintln(stdout, "white. Icons are overwritten in place.")
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Profiles:")
		fmt.Fprintln(stdout, "  basic   contrast x2, sharpness x2, snap")
		fmt.Fprintln(stdout, "  super   unsharp mask, autocontrast, darken greys, snap")
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Options:")
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		fs.SetOutput(stderr)
	}

	if code, stop := parseFlags(fs, args); stop {
		return code
	}
	cfg, ok := loadConfig(&common, stderr)
	if !ok {
		return exitError
	}
	if *profileName != "" {
		cfg.Enhance = *profileName
	}
	profile, err := cfg.EnhanceProfile()
	if err != nil {
		fmt.Fprintf(stderr, "❌ Error: %v\n", err)
		return exitUsage
	}

	results := raster.EnhanceTargets(raster.IconTargets(cfg.IconDir, cfg.Sizes), profile)
	return exitCode(printResults(stdout, results, "Enhanced ("+profile.Name+")"))
}

func runThickenCommand(args []string, stdout, stderr io.Writer) int {
	var common commonFlags
	fs := newFlagSet("thicken", stderr, &common)
	passes := fs.Int("passes", -1, "Passes for every size (default: per-size config)")

	fs.Usage = func() {
		fmt.Fprintln(stdout, "🖊️  Thicken Icons")
		fmt.Fprintln(stdout, "================")
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Erodes the colour channels and dilates alpha with a 3x3 window so thin")
		fmt.Fprintln(stdout, "lines survive downscaling. Icons are overwritten in place.")
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Options:")
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		fs.SetOutput(stderr)
	}

	if code, stop := parseFlags(fs, args); stop {
		return code
	}
	cfg, ok := loadConfig(&common, stderr)
	if !ok {
		return exitError
	}

	passesFor := cfg.PassesFor
	if *passes >= 0 {
		n := *passes
		passesFor = func(int) int { return n }
	}

	results := raster.ThickenTargets(raster.IconTargets(cfg.IconDir, cfg.Sizes), passesFor)
	return exitCode(printResults(stdout, results, "Thickened"))
}

// printResults prints one line per target and returns the number of real
// failures. Missing targets are reported but do not count as failures.
func printResults(w io.Writer, results []raster.TargetResult, verb string) int {
	failed := 0
	for _, r := range results {
		switch {
		case r.Err == nil:
			fmt.Fprintf(w, "✅ %s: %s (%dx%d)\n", verb, r.Path, r.Size, r.Size)
		case errors.Is(r.Err, raster.ErrSourceNotFound):
			fmt.Fprintf(w, "⚠️  Not found: %s\n", r.Path)
		default:
			fmt.Fprintf(w, "❌ Failed to process %s: %v\n", r.Path, r.Err)
			failed++
		}
	}
	return failed
}

func bundleICO(w io.Writer, dir string, results []raster.TargetResult) bool {
	path := filepath.Join(dir, raster.FaviconName)
	if err := raster.WriteICO(path, raster.ResultImages(results)); err != nil {
		fmt.Fprintf(w, "❌ Failed to write %s: %v\n", path, err)
		return false
	}
	fmt.Fprintf(w, "🗂️  Bundled: %s\n", path)
	return true
}

func exitCode(failed int) int {
	if failed > 0 {
		return exitError
	}
	return exitOK
}

// ═══════════════════════════════════════════════════════════════════════════
// ARCHIVE COMMANDS
// ═══════════════════════════════════════════════════════════════════════════

func runVerifyCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to the config file (default: user config dir)")
	jsonOut := fs.Bool("json", false, "Print the report as JSON")
	password := fs.String("password", "", "Password for encrypted entries")
	verbose := fs.Bool("verbose", false, "Verbose diagnostics on stderr")

	fs.Usage = func() {
		fmt.Fprintln(stdout, "Usage: iconkit verify [options] <zip_file> [options]")
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Prints the manifest version and name and every vX.X.X string found")
		fmt.Fprintln(stdout, "in the bundled script.")
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Options:")
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		fs.SetOutput(stderr)
	}

	if code, stop := parseFlags(fs, args); stop {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}

	cfg, ok := loadConfig(&commonFlags{configPath: *configPath, verbose: *verbose}, stderr)
	if !ok {
		return exitError
	}
	opts := cfg.Verify
	opts.Password = *password

	report, err := archive.Verify(fs.Arg(0), opts)
	if err != nil {
		switch {
		case errors.Is(err, archive.ErrFileNotFound):
			fmt.Fprintf(stdout, "❌ Error: File not found: %s\n", fs.Arg(0))
		case errors.Is(err, archive.ErrInvalidArchive):
			fmt.Fprintln(stdout, "❌ Error: Invalid zip file")
		default:
			fmt.Fprintf(stdout, "❌ Error: %v\n", err)
		}
		return exitError
	}

	if *jsonOut {
		if err := report.WriteJSON(stdout); err != nil {
			fmt.Fprintf(stderr, "❌ Error: %v\n", err)
			return exitError
		}
		return exitOK
	}
	report.WriteText(stdout)
	return exitOK
}

func runPackCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pack", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to the config file (default: user config dir)")
	output := fs.String("output", "", "Path to the output zip (required)")
	password := fs.String("password", "", "Encrypt every entry with AES-256")
	verifyAfter := fs.Bool("verify", false, "Verify the archive after packing")
	verbose := fs.Bool("verbose", false, "Show every packed entry")

	fs.Usage = func() {
		fmt.Fprintln(stdout, "📦 Pack Extension")
		fmt.Fprintln(stdout, "=================")
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Usage:")
		fmt.Fprintln(stdout, "  iconkit pack -output <zip> [options] <extension_dir> [options]")
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Options:")
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		fs.SetOutput(stderr)
	}

	if code, stop := parseFlags(fs, args); stop {
		return code
	}
	if fs.NArg() != 1 || *output == "" {
		fs.Usage()
		return exitUsage
	}
	cfg, ok := loadConfig(&commonFlags{configPath: *configPath, verbose: *verbose}, stderr)
	if !ok {
		return exitError
	}

	out := *output
	if !strings.HasSuffix(strings.ToLower(out), ".zip") {
		out += ".zip"
	}

	opts := archive.PackOptions{Password: *password, Exclude: cfg.PackExclude}
	if *verbose {
		opts.OnProgress = func(current, total int, entry string) {
			fmt.Fprintf(stdout, "   Adding: %s (%d/%d)\n", entry, current, total)
		}
	}

	result, err := archive.Pack(fs.Arg(0), out, opts)
	if err != nil {
		fmt.Fprintf(stdout, "❌ Error: %v\n", err)
		return exitError
	}

	fmt.Fprintln(stdout, "✅ Packing complete!")
	fmt.Fprintln(stdout, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Fprintf(stdout, "📦 Archive:       %s\n", result.OutputPath)
	fmt.Fprintf(stdout, "📁 Files:         %d\n", len(result.Entries))
	fmt.Fprintf(stdout, "📊 Source size:   %s\n", formatBytes(result.TotalSize))
	fmt.Fprintf(stdout, "📊 Archive size:  %s\n", formatBytes(result.ArchiveSize))
	if result.Encrypted {
		fmt.Fprintln(stdout, "🔐 Encrypted:     AES-256")
	}
	fmt.Fprintln(stdout, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	if *verifyAfter {
		vopts := cfg.Verify
		vopts.Password = *password
		report, err := archive.Verify(result.OutputPath, vopts)
		if err != nil {
			fmt.Fprintf(stdout, "❌ Error: %v\n", err)
			return exitError
		}
		report.WriteText(stdout)
	}
	return exitOK
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), []string{"KB", "MB", "GB", "TB"}[exp])
}
