package errcodes

import (
	"fmt"
	"net/http"
)

type Error struct {
	HTTPCode int
	Message  string
	Code     string
}

func (err *Error) Error() string {
	return err.Message
}

func (err *Error) As(target interface{}) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	te.HTTPCode = err.HTTPCode
	te.Message = err.Message
	te.Code = err.Code
	return true
}

func (err *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.HTTPCode == err.HTTPCode &&
		te.Message == err.Message &&
		te.Code == err.Code
}

// NotFound returns a 404 error with a message indicating the given resource.
func NotFound(resource string) error {
	return &Error{
		http.StatusNotFound,
		resource + " not found.",
		"not_found",
	}
}

func UnsupportedMediaType() error {
	return &Error{
		http.StatusUnsupportedMediaType,
		"Unsupported Media Type",
		"unsupported_media_type",
	}
}

func UnknownParameter(param string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		fmt.Sprintf("Unknown Parameter %q", param),
		"unknown_parameter",
	}
}

func ValidationTypeError(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		"validation_type_error",
	}
}

func ValidationError(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		"validation_error",
	}
}

func MalformedPayload() error {
	return &Error{
		http.StatusBadRequest,
		"Malformed Payload",
		"malformed_payload",
	}
}

func EmptyRequestBody() error {
	return &Error{
		http.StatusBadRequest,
		"Request body can't be empty.",
		"empty_request_body",
	}
}

// ChecksumMismatch returns a 422 error for a backup whose recomputed checksum
// doesn't match its envelope.
func ChecksumMismatch() error {
	return &Error{
		http.StatusUnprocessableEntity,
		"Backup checksum does not match its payload.",
		"checksum_mismatch",
	}
}

// BackupTooLarge returns a 413 error for a backup that exceeds the byte or
// per-collection item limits.
func BackupTooLarge(reason string) error {
	return &Error{
		http.StatusRequestEntityTooLarge,
		reason,
		"backup_too_large",
	}
}

// UnsupportedBackupVersion returns a 422 error for a backup with an unknown
// version field.
func UnsupportedBackupVersion(version int) error {
	return &Error{
		http.StatusUnprocessableEntity,
		fmt.Sprintf("Backup version %d is not supported.", version),
		"unsupported_backup_version",
	}
}

// SyncDisabled returns a 409 error for sync operations requested while cloud
// sync is turned off or no account is signed in.
func SyncDisabled() error {
	return &Error{
		http.StatusConflict,
		"Cloud sync is not enabled or no account is signed in.",
		"sync_disabled",
	}
}
