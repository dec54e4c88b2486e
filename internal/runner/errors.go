package runner

import (
	"errors"
	"fmt"
)

// ErrNoFiles reports that every file role that needed reading was missing.
var ErrNoFiles = errors.New("no files found")

// ConfigurationError reports an option that could not be resolved into a
// runner configuration. The runner is left unchanged.
type ConfigurationError struct {
	Role Role   // empty when no single role is at fault
	Name string // the name that failed to resolve, if any
	Err  error
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Role != "" && e.Name != "":
		return fmt.Sprintf("configure %s %q: %v", e.Role, e.Name, e.Err)
	case e.Role != "":
		return fmt.Sprintf("configure %s: %v", e.Role, e.Err)
	}
	return fmt.Sprintf("configure: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
