package docscan

import "errors"

// These errors represent the failure categories of a scan session. Every one of
// them ends the current session; none of them should end the process. Callers
// check them with errors.Is.
var (
	// ErrNoActiveFile indicates a single-file or current-folder scan was requested
	// without a file to anchor it.
	ErrNoActiveFile = errors.New("no active file")

	// ErrNoFolderSelected indicates a tree scan was requested without a folder.
	ErrNoFolderSelected = errors.New("no folder selected")

	// ErrNoWorkspaceRoot indicates a workspace scan found no root folder to scan.
	ErrNoWorkspaceRoot = errors.New("no workspace root configured")

	// ErrEnumerationFailed indicates listing a directory failed mid-session.
	ErrEnumerationFailed = errors.New("failed to enumerate files")

	// ErrReadFailed indicates a source file could not be read.
	ErrReadFailed = errors.New("failed to read file")

	// ErrScanInProgress is returned when a scan is started while another one on
	// the same Scanner has not completed.
	ErrScanInProgress = errors.New("a scan is already in progress")

	// ErrConfigValidation indicates that the provided Options or CLI configuration
	// failed validation.
	ErrConfigValidation = errors.New("invalid configuration options provided")
)
