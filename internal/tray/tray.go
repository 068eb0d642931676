// Package tray provides the system tray menu for the air guitar.
package tray

import (
	"strings"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/airguitar/internal/app"
	"github.com/ayusman/airguitar/internal/gesture"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle   func(enabled bool)
	onSettings func()
	onQuit     func()
	enabled    bool
	lastChord  gesture.Chord
	lastStrum  gesture.Strum
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle    *systray.MenuItem
	menuLastChord *systray.MenuItem
	menuLastStrum *systray.MenuItem
}

// New creates a new Tray reporting enabled.
func New(enabled bool) *Tray {
	return &Tray{
		enabled: enabled,
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called and must run on the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray, returning from Run.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Air Guitar")
	systray.SetTooltip("Air Guitar chord recognition")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleLabel(t.enabled), "Toggle chord recognition")
	systray.AddSeparator()

	t.menuLastChord = systray.AddMenuItem(chordLabel(t.lastChord), "Last chord played")
	t.menuLastChord.Disable()
	t.menuLastStrum = systray.AddMenuItem(strumLabel(t.lastStrum), "Last strum direction")
	t.menuLastStrum.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Air Guitar")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleLabel(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Observe updates the menu from a frame result. It is an app.FrameListener.
func (t *Tray) Observe(result app.FrameResult) {
	if result.Change == nil && result.Strum == gesture.StrumNone {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if result.Change != nil {
		t.lastChord = result.Change.Chord
		if t.menuLastChord != nil {
			t.menuLastChord.SetTitle(chordLabel(t.lastChord))
		}
	}
	if result.Strum != gesture.StrumNone {
		t.lastStrum = result.Strum
		if t.menuLastStrum != nil {
			t.menuLastStrum.SetTitle(strumLabel(t.lastStrum))
		}
	}
}

// LastChord returns the most recent chord change, or ChordUnknown.
func (t *Tray) LastChord() gesture.Chord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastChord
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleLabel(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

// chordLabel renders "C_major" as "Last chord: C major".
func chordLabel(c gesture.Chord) string {
	if !c.Known() {
		return "Last chord: none"
	}
	return "Last chord: " + strings.ReplaceAll(c.String(), "_", " ")
}

func strumLabel(s gesture.Strum) string {
	if s == gesture.StrumNone {
		return "Last strum: none"
	}
	return "Last strum: " + s.String()
}
