package triage

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// EnvProduction is the environment name that enables critical-error reporting.
const EnvProduction = "production"

// Environment describes the host a failure was observed on. Its fields are
// merged into every ProcessedError's context before caller fields.
type Environment struct {
	// Name is the deployment environment, e.g. "development" or "production".
	Name string
	// UserAgent identifies the client program.
	UserAgent string
	// Location is where the process currently is: a page URL for UIs, the
	// invoking command line for CLIs.
	Location string
}

// DefaultEnvironment describes the current process using version as the
// program version.
func DefaultEnvironment(version string) Environment {
	if version == "" {
		version = "dev"
	}
	return Environment{
		Name:      "development",
		UserAgent: fmt.Sprintf("triage/%s (%s/%s)", version, runtime.GOOS, runtime.GOARCH),
		Location:  strings.Join(os.Args, " "),
	}
}

// IsProduction reports whether e is the production environment.
func (e Environment) IsProduction() bool {
	return strings.EqualFold(e.Name, EnvProduction)
}
