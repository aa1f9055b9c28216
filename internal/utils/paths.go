// Package utils contains logging and filesystem path helpers used
// throughout crawldash.
package utils

import (
	"os"
	"path/filepath"
)

// Paths resolves filesystem locations used by crawldash.
type Paths struct {
	RootPath string `json:"root_path"`
}

// NewPaths constructs Paths rooted at the specified directory.
func NewPaths(rootPath string) *Paths {
	return &Paths{RootPath: rootPath}
}

// DefaultPaths roots Paths next to the running executable, falling back to
// the temp directory when the executable cannot be resolved.
func DefaultPaths() *Paths {
	exe, err := os.Executable()
	if err == nil {
		if resolved, rerr := filepath.EvalSymlinks(exe); rerr == nil && resolved != "" {
			exe = resolved
		}
		return NewPaths(filepath.Dir(exe))
	}
	return NewPaths(filepath.Join(os.TempDir(), "crawldash"))
}

// LogsDir returns the logs directory.
func (p *Paths) LogsDir() string {
	return filepath.Join(p.RootPath, "logs")
}

// LogFile returns the default crawldash log file.
func (p *Paths) LogFile() string {
	return filepath.Join(p.LogsDir(), "crawldash.log")
}

// ConfigFile returns the config file looked up when none is given.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.RootPath, "crawldash.yaml")
}
