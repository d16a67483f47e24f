// Package fonterr carries the machine-readable failure kinds shared by the
// validator, the asset store, the registry and the HTTP layer.
package fonterr

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind string

const (
	// validation
	EmptyFile           Kind = "empty_file"
	FileTooLarge        Kind = "file_too_large"
	DisallowedExtension Kind = "invalid_extension"
	MimeMismatch        Kind = "invalid_mime_type"
	SignatureMismatch   Kind = "invalid_signature"
	InvalidInput        Kind = "invalid_input"

	// store
	DirectoryNotWritable Kind = "dir_not_writable"
	CopyFailed           Kind = "copy_failed"
	FileNotCopied        Kind = "file_not_copied"
	PathOutsideRoot      Kind = "path_outside_root"

	// registry
	RegistryInsertFailed Kind = "db_insert_failed"
	RecordNotFound       Kind = "not_found"

	Unknown Kind = "unknown"
)

// Validation reports whether the kind is caused by user input.
func (k Kind) Validation() bool {
	switch k {
	case EmptyFile, FileTooLarge, DisallowedExtension, MimeMismatch, SignatureMismatch, InvalidInput:
		return true
	}
	return false
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: errors.WithStack(err)}
}

// KindOf returns the kind of the first *Error in the chain, or Unknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message is the user facing text without the wrapped cause.
func Message(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
