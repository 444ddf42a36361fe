package options

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
)

var _ IOptions = (*StoreOptions)(nil)

// Credential store drivers.
const (
	StoreDriverFile   = "file"
	StoreDriverBadger = "badger"
	StoreDriverMemory = "memory"
)

// StoreOptions selects where the bearer credential is persisted.
type StoreOptions struct {
	// Driver is one of file, badger or memory.
	Driver string `json:"driver" mapstructure:"driver"`

	// Path is the credential file (file driver) or database directory (badger driver).
	// Empty means a location under the user config directory.
	Path string `json:"path" mapstructure:"path"`
}

func NewStoreOptions() *StoreOptions {
	return &StoreOptions{
		Driver: StoreDriverFile,
	}
}

// ResolvedPath returns Path, or the driver's default location.
func (o *StoreOptions) ResolvedPath() (string, error) {
	if o.Path != "" {
		return o.Path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config dir: %w", err)
	}
	switch o.Driver {
	case StoreDriverBadger:
		return filepath.Join(dir, "patrolctl", "credentials.db"), nil
	default:
		return filepath.Join(dir, "patrolctl", "credentials.json"), nil
	}
}

func (o *StoreOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch o.Driver {
	case StoreDriverFile, StoreDriverBadger, StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("--store.driver: unknown driver %q", o.Driver))
	}
	return errs
}

func (o *StoreOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Driver, "store.driver", o.Driver, "Credential store driver: file, badger or memory.")
	fs.StringVar(&o.Path, "store.path", o.Path, "Credential file or badger directory. Defaults to the user config directory.")
}
