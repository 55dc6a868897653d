package log

import (
	"os"
	"runtime"

	"github.com/gookit/color"
)

var (
	EnableColor = true
)

type Color struct {
	Open    func(a ...any) string
	Closed  func(a ...any) string
	Service func(a ...any) string
	Banner  func(a ...any) string
	Time    func(a ...any) string
	Title   func(a ...any) string
	Bold    func(a ...any) string
	Red     func(a ...any) string
	Green   func(a ...any) string
	Warning func(a ...any) string
}

var LogColor *Color

func init() {
	detectTerminal()

	if LogColor == nil {
		LogColor = NewColor()
	}
}

// detectTerminal disables colours when stdout is not a terminal
func detectTerminal() {
	if runtime.GOOS == "windows" {
		_, wt := os.LookupEnv("WT_SESSION")
		_, ansi := os.LookupEnv("ANSICON")
		EnableColor = wt || ansi
	} else {
		fi, err := os.Stdout.Stat()
		EnableColor = err == nil && (fi.Mode()&os.ModeCharDevice) != 0
	}
	color.Enable = EnableColor
}

// DisableColor turns colour output off for the whole process.
func DisableColor() {
	EnableColor = false
	color.Enable = false
}

func NewColor() *Color {
	return &Color{
		Open:    color.FgLightGreen.Render,
		Closed:  color.Gray.Render,
		Service: color.HiCyan.Render,
		Banner:  color.Yellow.Render,
		Time:    color.Gray.Render,
		Title:   color.FgLightBlue.Render,
		Bold:    color.Bold.Render,
		Red:     color.FgLightRed.Render,
		Green:   color.FgLightGreen.Render,
		Warning: color.FgYellow.Render,
	}
}
