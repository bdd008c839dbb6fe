// Package browser opens a finished report in the local viewer.
package browser

import (
	"fmt"
	"io"
	"net/url"
	"path/filepath"

	"github.com/pkg/browser"

	"github.com/dbsmedya/goreport/internal/logger"
)

// Outcome says whether the viewer was launched.
type Outcome int

const (
	Opened Outcome = iota
	Failed
)

func (o Outcome) String() string {
	if o == Opened {
		return "opened"
	}
	return "failed"
}

// Result is the outcome of an open attempt. Reason is set when it failed.
type Result struct {
	Outcome Outcome
	Reason  string
}

// Opener launches a URL in a viewer.
type Opener func(url string) error

// Launcher opens reports with a configurable opener.
type Launcher struct {
	open   Opener
	logger *logger.Logger
}

// NewLauncher returns a launcher using the system browser. The launched
// process output is discarded so it does not interleave with the log.
func NewLauncher(log *logger.Logger) *Launcher {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return NewLauncherWith(browser.OpenURL, log)
}

// NewLauncherWith returns a launcher using open.
func NewLauncherWith(open Opener, log *logger.Logger) *Launcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &Launcher{open: open, logger: log}
}

// Open tries to show the file at path. It never fails: errors are logged
// and returned as a Failed result.
func (l *Launcher) Open(path string) Result {
	abs, err := filepath.Abs(path)
	if err != nil {
		return l.failed(path, fmt.Sprintf("resolve path: %v", err))
	}

	target := (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
	if err := l.open(target); err != nil {
		return l.failed(path, err.Error())
	}

	l.logger.Debugw("Opened report in browser", "path", abs)
	return Result{Outcome: Opened}
}

func (l *Launcher) failed(path, reason string) Result {
	l.logger.Warnw("Unable to open the report in a browser", "path", path, "reason", reason)
	return Result{Outcome: Failed, Reason: reason}
}
