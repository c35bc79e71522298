package cli

import (
	"os"
	"path/filepath"
)

// DefaultBaseDir is the directory under the user's home that holds all
// adforge state.
const DefaultBaseDir = ".adforge"

// Paths provides access to the adforge directory structure.
type Paths struct {
	// AppName is the application name.
	AppName string

	// HomeDir is the user's home directory.
	HomeDir string
}

// NewPaths creates a new Paths instance for the given app.
func NewPaths(appName string) (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{
		AppName: appName,
		HomeDir: home,
	}, nil
}

// BaseDir returns the base directory (~/.adforge).
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// AppDir returns the app-specific directory (~/.adforge/<app>).
func (p *Paths) AppDir() string {
	return filepath.Join(p.BaseDir(), p.AppName)
}

// DataDir returns the data directory (~/.adforge/<app>/data). Checkpoint
// stores live here by default.
func (p *Paths) DataDir() string {
	return filepath.Join(p.AppDir(), "data")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (p *Paths) EnsureDataDir() error {
	return os.MkdirAll(p.DataDir(), 0755)
}

// DataPath returns a path within the data directory.
func (p *Paths) DataPath(name string) string {
	return filepath.Join(p.DataDir(), name)
}
