package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// logOut is where operator lines go. Tests replace it.
var logOut io.Writer = os.Stderr

// verbose enables logDebug output.
var verbose bool

var (
	tagInfo    = color.New(color.FgBlue).SprintFunc()
	tagOK      = color.New(color.FgGreen).SprintFunc()
	tagWarn    = color.New(color.FgYellow, color.Bold).SprintFunc()
	tagError   = color.New(color.FgRed).SprintFunc()
	tagDebug   = color.New(color.Faint).SprintFunc()
	colorTitle = color.New(color.FgBlue, color.Bold).SprintFunc()
	colorGood  = color.New(color.FgGreen).SprintFunc()
	colorBad   = color.New(color.FgRed).SprintFunc()
	colorNote  = color.New(color.FgYellow).SprintFunc()
)

// setupColor disables color when stderr is not a terminal or NO_COLOR is set.
func setupColor() {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		color.NoColor = true
		return
	}
	fd := os.Stderr.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		color.NoColor = true
	}
}

func logInfo(format string, args ...any) {
	fmt.Fprintf(logOut, "%s %s\n", tagInfo("[INFO]"), fmt.Sprintf(format, args...))
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(logOut, "%s %s\n", tagOK("[OK]"), fmt.Sprintf(format, args...))
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(logOut, "%s %s\n", tagWarn("[WARN]"), fmt.Sprintf(format, args...))
}

func logError(format string, args ...any) {
	fmt.Fprintf(logOut, "%s %s\n", tagError("[ERROR]"), fmt.Sprintf(format, args...))
}

func logDebug(format string, args ...any) {
	if !verbose {
		return
	}
	fmt.Fprintf(logOut, "%s %s\n", tagDebug("[DEBUG]"), fmt.Sprintf(format, args...))
}
