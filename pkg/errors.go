package decoder

import (
	"errors"
	"fmt"
)

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

// ErrCreateGroup represents an error when creating a group.
type ErrCreateGroup struct {
	GroupName string
	Err       error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %q: %v", e.GroupName, e.Err)
}

func (e *ErrCreateGroup) Unwrap() error {
	return e.Err
}

// ErrCreateTable represents an error when creating a table.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}

func (e *ErrCreateTable) Unwrap() error {
	return e.Err
}

// ConfigurationError means the calibration does not cover what the data or
// the run configuration asks for. Module and Channel are -1 when they do
// not apply.
type ConfigurationError struct {
	Module  int
	Channel int
	Reason  string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Channel >= 0:
		return fmt.Sprintf("configuration error on module %d, channel %d: %s", e.Module, e.Channel, e.Reason)
	case e.Module >= 0:
		return fmt.Sprintf("configuration error on module %d: %s", e.Module, e.Reason)
	default:
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
}

func configError(reason string) *ConfigurationError {
	return &ConfigurationError{Module: -1, Channel: -1, Reason: reason}
}

func moduleConfigError(module int, reason string) *ConfigurationError {
	return &ConfigurationError{Module: module, Channel: -1, Reason: reason}
}

func IsConfigurationError(err error) bool {
	var configErr *ConfigurationError
	return errors.As(err, &configErr)
}

// ErrNoPayload is returned when the end of the text configuration block
// cannot be found in a capture file.
var ErrNoPayload = errors.New("end of configuration block not found")
