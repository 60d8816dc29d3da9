// Package syncerr defines the error taxonomy of a synchronization run.
//
// Every fatal condition is reported as an *Error carrying its Kind and, where
// known, the source document path and target language key, so that an
// operator can act on it without rerunning with more logging.
package syncerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure.
type Kind string

const (
	// KindConfig: malformed registry, missing provider settings, bad tunables.
	KindConfig Kind = "config"
	// KindClassification: a source path produced an empty relative key.
	KindClassification Kind = "classification"
	// KindHistory: the VCS could not report a timestamp.
	KindHistory Kind = "history"
	// KindProvider: HTTP failure, timeout, empty or malformed response.
	KindProvider Kind = "provider"
	// KindWrite: filesystem read or write failure.
	KindWrite Kind = "write"
	// KindVCS: stage, commit or push failure.
	KindVCS Kind = "vcs"
)

// Error is a classified run failure.
type Error struct {
	Kind Kind
	// Path is the source document (or file) the error concerns, if any.
	Path string
	// Lang is the target language key, if any.
	Lang string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(" error")
	switch {
	case e.Path != "" && e.Lang != "":
		fmt.Fprintf(&b, " (%s -> %s)", e.Path, e.Lang)
	case e.Path != "":
		fmt.Fprintf(&b, " (%s)", e.Path)
	case e.Lang != "":
		fmt.Fprintf(&b, " (%s)", e.Lang)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an *Error of the given kind wrapping err.
func New(kind Kind, path, lang string, err error) *Error {
	return &Error{Kind: kind, Path: path, Lang: lang, Err: err}
}

// Configf builds a configuration error from a format string.
func Configf(format string, args ...any) *Error {
	return &Error{Kind: KindConfig, Err: fmt.Errorf(format, args...)}
}

// Classification reports a source path that yields no relative key.
func Classification(path string, err error) *Error {
	return &Error{Kind: KindClassification, Path: path, Err: err}
}

// History reports a failed timestamp lookup.
func History(path string, err error) *Error {
	return &Error{Kind: KindHistory, Path: path, Err: err}
}

// Provider reports a failed translation call for a task.
func Provider(path, lang string, err error) *Error {
	return &Error{Kind: KindProvider, Path: path, Lang: lang, Err: err}
}

// Write reports a failed read or write of a target file.
func Write(path, lang string, err error) *Error {
	return &Error{Kind: KindWrite, Path: path, Lang: lang, Err: err}
}

// VCS reports a failed stage, commit or push.
func VCS(err error) *Error {
	return &Error{Kind: KindVCS, Err: err}
}

// KindOf returns the kind of the first *Error found in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Is reports whether err's chain contains an *Error of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
