package main

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/kacebover/iconkit/archive"
	"github.com/kacebover/iconkit/gui/controller"
)

const (
	maxLogLines      = 500
	passesFromConfig = "per size"
	maxPreviewSide   = 128
)

// Colors
var (
	colorChecker = color.NRGBA{R: 204, G: 204, B: 204, A: 255}
)

// IconGUI represents the GUI application
type IconGUI struct {
	app    fyne.App
	window fyne.Window
	ctrl   *controller.IconController

	// Input fields
	iconDir       *widget.Entry
	sourceImage   *widget.Entry
	profileSelect *widget.Select
	passesSelect  *widget.Select
	zipPath       *widget.Entry
	zipPassword   *widget.Entry

	// Buttons
	actionButtons []*widget.Button

	// Progress
	progressBar *widget.ProgressBarInfinite
	statusLabel *widget.Label

	// Output
	previewBox *fyne.Container
	logEntry   *widget.Entry
	logLines   []string
}

// NewIconGUI creates the main window over a controller
func NewIconGUI(ctrl *controller.IconController) *IconGUI {
	a := app.NewWithID("com.kacebover.iconkit")
	g := &IconGUI{
		app:    a,
		window: a.NewWindow("iconkit"),
		ctrl:   ctrl,
	}

	cfg := ctrl.GetConfig()
	g.window.Resize(fyne.NewSize(float32(cfg.WindowWidth), float32(cfg.WindowHeight)))

	g.buildUI()
	g.bindController()
	g.refreshPreview()
	return g
}

func (g *IconGUI) buildUI() {
	header := container.NewBorder(
		nil, widget.NewSeparator(), nil, nil,
		widget.NewLabelWithStyle("🎨 Extension Icon Toolkit", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
	)

	g.previewBox = container.NewHBox()
	g.logEntry = widget.NewMultiLineEntry()
	g.logEntry.Wrapping = fyne.TextWrapWord

	preview := widget.NewCard("Preview", "", container.NewScroll(g.previewBox))
	logCard := widget.NewCard("Log", "", g.logEntry)

	right := container.NewVSplit(preview, logCard)
	right.Offset = 0.45

	g.progressBar = widget.NewProgressBarInfinite()
	g.progressBar.Stop()
	g.progressBar.Hide()
	g.statusLabel = widget.NewLabel("Ready")

	mainSplit := container.NewHSplit(container.NewScroll(g.buildControlPanel()), right)
	mainSplit.Offset = 0.38

	content := container.NewBorder(
		header,
		container.NewVBox(g.progressBar, g.statusLabel),
		nil, nil,
		mainSplit,
	)
	g.window.SetContent(container.NewPadded(content))
}

func (g *IconGUI) buildControlPanel() fyne.CanvasObject {
	cfg := g.ctrl.GetConfig()

	g.iconDir = widget.NewEntry()
	g.iconDir.SetText(cfg.IconDir)
	g.iconDir.OnSubmitted = func(dir string) { g.setIconDir(dir) }
	browseDir := widget.NewButton("Browse...", func() {
		dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil {
				dialog.ShowError(err, g.window)
				return
			}
			if uri != nil {
				g.iconDir.SetText(uri.Path())
				g.setIconDir(uri.Path())
			}
		}, g.window)
	})

	g.sourceImage = widget.NewEntry()
	g.sourceImage.SetText(cfg.SourceImage)
	browseSource := widget.NewButton("Browse...", func() {
		dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, g.window)
				return
			}
			if reader != nil {
				g.sourceImage.SetText(reader.URI().Path())
				reader.Close()
			}
		}, g.window)
	})

	g.profileSelect = widget.NewSelect([]string{"basic", "super"}, nil)
	g.profileSelect.SetSelected(cfg.Enhance)

	g.passesSelect = widget.NewSelect([]string{passesFromConfig, "1", "2", "3"}, nil)
	g.passesSelect.SetSelected(passesFromConfig)

	g.zipPath = widget.NewEntry()
	g.zipPath.SetPlaceHolder("extension.zip")
	g.zipPassword = widget.NewPasswordEntry()
	g.zipPassword.SetPlaceHolder("only for encrypted archives")

	generateBtn := widget.NewButton("Generate", g.onGenerate)
	resizeBtn := widget.NewButton("Resize source", g.onResize)
	enhanceBtn := widget.NewButton("Enhance", g.onEnhance)
	thickenBtn := widget.NewButton("Thicken", g.onThicken)
	verifyBtn := widget.NewButton("Verify zip", g.onVerify)
	packBtn := widget.NewButton("Pack extension...", g.onPack)
	g.actionButtons = []*widget.Button{generateBtn, resizeBtn, enhanceBtn, thickenBtn, verifyBtn, packBtn}

	return container.NewVBox(
		widget.NewLabelWithStyle("Icons", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewBorder(nil, nil, nil, browseDir, g.iconDir),
		widget.NewLabel("Sizes: "+sizesLabel(cfg.Sizes)),
		container.NewGridWithColumns(2, generateBtn, layout.NewSpacer()),
		widget.NewSeparator(),
		widget.NewLabel("Source image"),
		container.NewBorder(nil, nil, nil, browseSource, g.sourceImage),
		resizeBtn,
		widget.NewSeparator(),
		widget.NewForm(
			widget.NewFormItem("Profile", g.profileSelect),
			widget.NewFormItem("Passes", g.passesSelect),
		),
		container.NewGridWithColumns(2, enhanceBtn, thickenBtn),
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Archive", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		g.zipPath,
		g.zipPassword,
		container.NewGridWithColumns(2, verifyBtn, packBtn),
	)
}

// bindController routes controller callbacks onto the UI thread
func (g *IconGUI) bindController() {
	g.ctrl.SetOnLogMessage(func(level controller.LogLevel, msg string) {
		line := formatLogLine(time.Now(), level, msg)
		fyne.Do(func() {
			g.logLines = appendLogLine(g.logLines, line, maxLogLines)
			g.logEntry.SetText(strings.Join(g.logLines, "\n"))
			g.logEntry.CursorRow = len(g.logLines)
		})
	})

	g.ctrl.SetOnStateChange(func(state controller.State) {
		fyne.Do(func() {
			running := state == controller.StateRunning
			for _, b := range g.actionButtons {
				if running {
					b.Disable()
				} else {
					b.Enable()
				}
			}
			if running {
				g.progressBar.Show()
				g.progressBar.Start()
			} else {
				g.progressBar.Stop()
				g.progressBar.Hide()
			}
			g.statusLabel.SetText(stateText(state))
		})
	})

	g.ctrl.SetOnComplete(func(result *controller.Result) {
		fyne.Do(func() {
			g.refreshPreview()
			switch {
			case result.Err != nil:
				dialog.ShowError(result.Err, g.window)
			case result.Report != nil:
				dialog.ShowInformation("Archive report", reportText(result.Report), g.window)
			case result.Pack != nil:
				dialog.ShowInformation("Packing complete",
					fmt.Sprintf("%d files packed into\n%s", len(result.Pack.Entries), result.Pack.OutputPath), g.window)
			}
		})
	})
}

func (g *IconGUI) setIconDir(dir string) {
	if err := g.ctrl.SetIconDir(strings.TrimSpace(dir)); err != nil {
		dialog.ShowError(err, g.window)
		return
	}
	g.refreshPreview()
}

// refreshPreview shows every existing icon at an integer zoom on a grey
// background so transparency stays visible.
func (g *IconGUI) refreshPreview() {
	g.previewBox.RemoveAll()

	icons := g.ctrl.Icons()
	if len(icons) == 0 {
		g.previewBox.Add(widget.NewLabel("No icons yet. Generate or resize to create them."))
		g.previewBox.Refresh()
		return
	}

	for _, icon := range icons {
		side := float32(previewSide(icon.Size))

		img := canvas.NewImageFromFile(icon.Path)
		img.FillMode = canvas.ImageFillContain
		img.ScaleMode = canvas.ImageScalePixels
		img.SetMinSize(fyne.NewSize(side, side))

		bg := canvas.NewRectangle(colorChecker)
		bg.SetMinSize(fyne.NewSize(side, side))

		label := widget.NewLabel(fmt.Sprintf("%dx%d", icon.Size, icon.Size))

		g.previewBox.Add(container.NewVBox(container.NewStack(bg, img), container.NewCenter(label)))
	}
	g.previewBox.Refresh()
}

func (g *IconGUI) onGenerate() {
	g.syncIconDir()
	g.report(g.ctrl.Generate())
}

func (g *IconGUI) onResize() {
	g.syncIconDir()
	src := strings.TrimSpace(g.sourceImage.Text)
	if src == "" {
		dialog.ShowError(fmt.Errorf("please choose a source image"), g.window)
		return
	}
	g.report(g.ctrl.Resize(src))
}

func (g *IconGUI) onEnhance() {
	g.syncIconDir()
	g.report(g.ctrl.Enhance(g.profileSelect.Selected))
}

func (g *IconGUI) onThicken() {
	g.syncIconDir()
	g.report(g.ctrl.Thicken(passesFromChoice(g.passesSelect.Selected)))
}

func (g *IconGUI) onVerify() {
	path := strings.TrimSpace(g.zipPath.Text)
	if path == "" {
		dialog.ShowError(fmt.Errorf("please enter the path of a zip file"), g.window)
		return
	}
	g.report(g.ctrl.Verify(path, g.zipPassword.Text))
}

func (g *IconGUI) onPack() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			dialog.ShowError(err, g.window)
			return
		}
		if uri == nil {
			return
		}
		output := strings.TrimSpace(g.zipPath.Text)
		if output == "" {
			output = filepath.Clean(uri.Path()) + ".zip"
			g.zipPath.SetText(output)
		}
		g.report(g.ctrl.Pack(uri.Path(), output, g.zipPassword.Text))
	}, g.window)
}

func (g *IconGUI) syncIconDir() {
	dir := strings.TrimSpace(g.iconDir.Text)
	if dir != "" && dir != g.ctrl.GetConfig().IconDir {
		g.setIconDir(dir)
	}
}

// report shows an error returned synchronously by the controller
func (g *IconGUI) report(err error) {
	if err != nil {
		dialog.ShowError(err, g.window)
	}
}

func (g *IconGUI) Run() {
	g.window.ShowAndRun()
}

// formatLogLine renders one controller message for the log panel
func formatLogLine(at time.Time, level controller.LogLevel, msg string) string {
	return fmt.Sprintf("%s [%s] %s", at.Format("15:04:05"), level, msg)
}

// appendLogLine appends line, dropping the oldest lines beyond max
func appendLogLine(lines []string, line string, max int) []string {
	lines = append(lines, line)
	if len(lines) > max {
		lines = append([]string(nil), lines[len(lines)-max:]...)
	}
	return lines
}

// passesFromChoice maps the passes selector to a pass count; -1 means the
// per-size configuration
func passesFromChoice(choice string) int {
	n, err := strconv.Atoi(choice)
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// previewSide is the on-screen side of an icon preview: the largest integer
// zoom that fits maxPreviewSide, never smaller than the icon itself
func previewSide(size int) int {
	if size <= 0 {
		return 0
	}
	if size >= maxPreviewSide {
		return size
	}
	return size * (maxPreviewSide / size)
}

func sizesLabel(sizes []int) string {
	parts := make([]string, len(sizes))
	for i, s := range sizes {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ", ")
}

func stateText(state controller.State) string {
	switch state {
	case controller.StateRunning:
		return "Working..."
	case controller.StateCompleted:
		return "Done"
	case controller.StateFailed:
		return "Finished with errors, see the log"
	default:
		return "Ready"
	}
}

// reportText renders an archive report for a dialog
func reportText(r *archive.Report) string {
	var b strings.Builder
	r.WriteText(&b)
	return strings.TrimSpace(b.String())
}

func main() {
	ctrl, err := controller.NewIconController("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
		os.Exit(1)
	}
	NewIconGUI(ctrl).Run()
}
