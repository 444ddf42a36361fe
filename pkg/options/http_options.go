package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*HttpOptions)(nil)

// HttpOptions configures the probe and metrics listener of `patrolctl watch`.
type HttpOptions struct {
	// Addr is the listen address.
	Addr string `json:"addr" mapstructure:"addr"`

	// Interval is how often the dashboard is re-fetched.
	Interval time.Duration `json:"interval" mapstructure:"interval"`

	// ShutdownTimeout bounds graceful shutdown of the listener.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewHttpOptions creates a HttpOptions object with default parameters.
func NewHttpOptions() *HttpOptions {
	return &HttpOptions{
		Addr:            "127.0.0.1:9464",
		Interval:        30 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *HttpOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if err := ValidateAddress(o.Addr); err != nil {
		errors = append(errors, err)
	}
	if o.Interval <= 0 {
		errors = append(errors, fmt.Errorf("--http.interval must be positive, got %s", o.Interval))
	}

	return errors
}

// AddFlags adds flags related to the watch listener to the specified FlagSet.
func (o *HttpOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Addr, "http.addr", o.Addr, "Listen address for /healthz, /readyz and /metrics in watch mode.")
	fs.DurationVar(&o.Interval, "http.interval", o.Interval, "Dashboard refresh interval in watch mode.")
	fs.DurationVar(&o.ShutdownTimeout, "http.shutdown-timeout", o.ShutdownTimeout, "Grace period for the listener on shutdown.")
}
