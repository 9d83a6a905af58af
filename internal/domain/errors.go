package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors
var (
	// ErrToolNotFound indicates an external binary is missing from PATH
	ErrToolNotFound = errors.New("tool not found")

	// ErrSourceOutsideRoot indicates the source file is not under the root directory
	ErrSourceOutsideRoot = errors.New("source file is not under root directory")

	// ErrDestinationExists indicates the package target already exists
	ErrDestinationExists = errors.New("destination already exists")

	// ErrMissingVersion indicates the manifest lacks a version field
	ErrMissingVersion = errors.New("manifest has no package version")

	// ErrMissingPaths indicates the manifest lacks an include list
	ErrMissingPaths = errors.New("manifest has no include paths (tool.packager.paths)")

	// ErrLanguageNotConfigured indicates a label has no language command
	ErrLanguageNotConfigured = errors.New("no command configured for language")
)

// ToolError represents a failed external tool invocation. Stderr carries
// the tool's raw diagnostic output and is surfaced verbatim.
type ToolError struct {
	Tool   string
	Args   []string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Tool, strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += "\n" + strings.TrimRight(e.Stderr, "\n")
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// NewToolError creates a new ToolError
func NewToolError(tool string, args []string, stderr string, err error) *ToolError {
	return &ToolError{Tool: tool, Args: args, Stderr: stderr, Err: err}
}

// ValidationError represents a configuration or content validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ManifestError represents an error in the packaging manifest
type ManifestError struct {
	Path string
	Err  error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest %s: %v", e.Path, e.Err)
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

// NewManifestError creates a new ManifestError
func NewManifestError(path string, err error) *ManifestError {
	return &ManifestError{Path: path, Err: err}
}
