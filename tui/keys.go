// ABOUTME: Key bindings for the onsite TUI
// ABOUTME: Plain keys on list screens, ctrl chords where a text field has focus
package tui

// Key bindings. Text fields swallow plain letters, so flow actions on
// editing screens use ctrl chords.
const (
	KeyQuit      = "q"
	KeyCtrlC     = "ctrl+c"
	KeyEsc       = "esc"
	KeyEnter     = "enter"
	KeyTab       = "tab"
	KeyShiftTab  = "shift+tab"
	KeyUp        = "up"
	KeyDown      = "down"
	KeyPgUp      = "pgup"
	KeyPgDown    = "pgdown"
	KeySpace     = " "
	KeyNew       = "n"
	KeyRepo      = "r"
	KeyDelete    = "ctrl+d"
	KeyNext      = "ctrl+n"
	KeyBack      = "ctrl+b"
	KeySkip      = "ctrl+s"
	KeyRecord    = "ctrl+r"
	KeyPlay      = "ctrl+p"
	KeyClear     = "ctrl+x"
	KeyUpload    = "ctrl+o"
	KeyHealth    = "ctrl+e"
	KeyChampion  = "ctrl+k"
	KeyComplete  = "ctrl+t"
	KeyGenerate  = "g"
	KeyPublish   = "u"
	KeyExportPDF = "e"
)
