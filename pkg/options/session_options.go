package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

var _ IOptions = (*SessionOptions)(nil)

// Session expiry policies.
const (
	// ExpiryNone treats a stored credential as valid until an explicit logout.
	ExpiryNone = "none"
	// ExpiryJWT drops a stored credential at startup when its exp claim has passed.
	ExpiryJWT = "jwt"
)

type SessionOptions struct {
	Expiry string `json:"expiry" mapstructure:"expiry"`
}

func NewSessionOptions() *SessionOptions {
	return &SessionOptions{Expiry: ExpiryNone}
}

func (o *SessionOptions) Validate() []error {
	if o == nil {
		return nil
	}
	if o.Expiry != ExpiryNone && o.Expiry != ExpiryJWT {
		return []error{fmt.Errorf("--session.expiry: unknown policy %q", o.Expiry)}
	}
	return nil
}

func (o *SessionOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Expiry, "session.expiry", o.Expiry,
		"Stored credential expiry policy: 'none' keeps it until logout, 'jwt' discards it at startup once its exp claim has passed.")
}
