package overlay

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Config defines overlay visuals.
type Config struct {
	Opacity    uint8
	Fullscreen bool
	Message    string
}

// Mode selects what the overlay is covering the screen for.
type Mode int

const (
	ModeBreak Mode = iota
	ModeSleep
)

// displayRefresh is faster than the scheduler tick so the countdown looks continuous.
const displayRefresh = 100 * time.Millisecond

// Window manages the overlay UI.
type Window struct {
	window        fyne.Window
	config        Config
	mode          Mode
	visible       bool
	timerLabel    *canvas.Text
	titleLabel    *canvas.Text
	subtitleLabel *canvas.Text
	background    *canvas.Rectangle
	skipButton    *widget.Button
	cancelCtx     context.CancelFunc
	onSkip        func()
}

const (
	overlayWidthFraction  = float32(0.3)
	overlayHeightFraction = float32(0.25)
	defaultScreenWidth    = float32(1920)
	defaultScreenHeight   = float32(1080)
)

type splashWindowDriver interface {
	CreateSplashWindow() fyne.Window
}

// New creates a new overlay window.
func New(app fyne.App, config Config) *Window {
	window := app.NewWindow("blinkbreak")
	if driver, ok := app.Driver().(splashWindowDriver); ok {
		// Splash window is undecorated (no native frame/buttons).
		window = driver.CreateSplashWindow()
	}
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}
	window.SetPadded(false)

	background := canvas.NewRectangle(color.NRGBA{A: config.Opacity})

	titleLabel := canvas.NewText("", color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	titleLabel.Alignment = fyne.TextAlignCenter
	titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	titleLabel.TextSize = 28

	subtitleLabel := canvas.NewText("", color.NRGBA{R: 220, G: 220, B: 220, A: 255})
	subtitleLabel.Alignment = fyne.TextAlignCenter
	subtitleLabel.TextSize = 16

	timerLabel := canvas.NewText("--:--", color.NRGBA{R: 232, G: 190, B: 66, A: 255})
	timerLabel.Alignment = fyne.TextAlignCenter
	timerLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	timerLabel.TextSize = 40

	skipButton := widget.NewButton("Skip", nil)

	content := container.NewCenter(container.NewVBox(
		titleLabel,
		subtitleLabel,
		timerLabel,
		container.NewCenter(skipButton),
	))
	window.SetContent(container.NewStack(background, content))

	overlay := &Window{
		window:        window,
		config:        config,
		timerLabel:    timerLabel,
		titleLabel:    titleLabel,
		subtitleLabel: subtitleLabel,
		background:    background,
		skipButton:    skipButton,
	}
	skipButton.OnTapped = func() {
		if overlay.onSkip != nil {
			overlay.onSkip()
		}
	}
	return overlay
}

// ShowBreak covers the screen for a break. remaining is polled at the display refresh rate.
func (overlay *Window) ShowBreak(remaining func() time.Duration) {
	overlay.stopRefresh()
	overlay.mode = ModeBreak
	overlay.titleLabel.Text = "Break time"
	overlay.subtitleLabel.Text = overlay.config.Message
	overlay.skipButton.Show()
	overlay.setRemainingUnsafe(remaining())
	overlay.present()

	ctx, cancel := context.WithCancel(context.Background())
	overlay.cancelCtx = cancel
	go overlay.refresh(ctx, remaining)
}

// ShowSleep covers the screen while the sleep window is active.
func (overlay *Window) ShowSleep() {
	overlay.stopRefresh()
	overlay.mode = ModeSleep
	overlay.titleLabel.Text = "Time to sleep"
	overlay.subtitleLabel.Text = "Screens off until the sleep window ends."
	overlay.timerLabel.Text = time.Now().Format("15:04")
	overlay.timerLabel.Refresh()
	overlay.skipButton.Hide()
	overlay.present()
}

// Hide closes the overlay and stops the countdown refresh.
func (overlay *Window) Hide() {
	overlay.stopRefresh()
	overlay.visible = false
	if overlay.config.Fullscreen {
		overlay.window.SetFullScreen(false)
	}
	overlay.window.Hide()
}

// Visible reports whether the overlay is shown and in which mode.
func (overlay *Window) Visible() (bool, Mode) {
	return overlay.visible, overlay.mode
}

// SetOnSkip sets skip handler.
func (overlay *Window) SetOnSkip(handler func()) {
	overlay.onSkip = handler
}

// UpdateConfig updates overlay visuals.
func (overlay *Window) UpdateConfig(config Config) {
	overlay.config = config
	overlay.background.FillColor = color.NRGBA{A: config.Opacity}
	canvas.Refresh(overlay.background)
	if overlay.visible {
		overlay.applyWindowMode()
	}
}

func (overlay *Window) present() {
	overlay.titleLabel.Refresh()
	overlay.subtitleLabel.Refresh()
	overlay.visible = true
	overlay.applyWindowMode()
	overlay.window.Show()
	overlay.window.RequestFocus()
}

func (overlay *Window) refresh(ctx context.Context, remaining func() time.Duration) {
	ticker := time.NewTicker(displayRefresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			value := remaining()
			fyne.Do(func() {
				if ctx.Err() != nil {
					return
				}
				overlay.setRemainingUnsafe(value)
			})
		}
	}
}

func (overlay *Window) setRemainingUnsafe(remaining time.Duration) {
	overlay.timerLabel.Text = formatDuration(remaining)
	overlay.timerLabel.Refresh()
}

func (overlay *Window) stopRefresh() {
	if overlay.cancelCtx != nil {
		overlay.cancelCtx()
		overlay.cancelCtx = nil
	}
}

func (overlay *Window) applyWindowMode() {
	if overlay.config.Fullscreen {
		overlay.window.SetFullScreen(true)
		return
	}
	overlay.window.SetFullScreen(false)
	overlay.resizeToScreenFraction()
}

func (overlay *Window) resizeToScreenFraction() {
	screenSize := fyne.NewSize(defaultScreenWidth, defaultScreenHeight)
	canvasSize := overlay.window.Canvas().Size()
	// Canvas size can be reused as a proxy for monitor size when it is clearly screen-like.
	if canvasSize.Width >= 1024 && canvasSize.Height >= 720 {
		screenSize = canvasSize
	}

	size := fyne.NewSize(screenSize.Width*overlayWidthFraction, screenSize.Height*overlayHeightFraction)
	minSize := overlay.window.Content().MinSize()
	size = size.Max(minSize)

	overlay.window.Resize(size)
	overlay.window.CenterOnScreen()
}

// formatDuration rounds up so the display reaches 00:00 only when the break ends.
func formatDuration(value time.Duration) string {
	if value < 0 {
		value = 0
	}
	seconds := int((value + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
