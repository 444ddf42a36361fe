package options

import (
	"net/url"
	"strings"

	"github.com/spf13/pflag"
)

var _ IOptions = (*ApiOptions)(nil)

// DefaultBasePath is the REST prefix the patrol backend mounts its v1 API on.
const DefaultBasePath = "/api/v1"

// ApiOptions locates the patrol backend. The base address is fixed for the
// lifetime of the process.
type ApiOptions struct {
	// URL overrides the full base address, e.g. https://patrol.example.com/api/v1.
	URL string `json:"url" mapstructure:"url"`

	// Server is the backend origin used when URL is empty.
	Server string `json:"server" mapstructure:"server"`

	// BasePath is appended to Server when URL is empty.
	BasePath string `json:"base-path" mapstructure:"base-path"`

	// TelemetryPath is the WebSocket endpoint on the backend origin.
	TelemetryPath string `json:"telemetry-path" mapstructure:"telemetry-path"`
}

// NewApiOptions creates an ApiOptions object with default parameters.
func NewApiOptions() *ApiOptions {
	return &ApiOptions{
		Server:        "http://localhost:8080",
		BasePath:      DefaultBasePath,
		TelemetryPath: "/ws/telemetry",
	}
}

// BaseURL returns the effective REST base address without a trailing slash.
func (o *ApiOptions) BaseURL() string {
	if o.URL != "" {
		return strings.TrimRight(o.URL, "/")
	}
	return strings.TrimRight(o.Server, "/") + "/" + strings.Trim(o.BasePath, "/")
}

// TelemetryURL returns the ws:// or wss:// address of the live telemetry hub,
// derived from the origin of BaseURL.
func (o *ApiOptions) TelemetryURL() string {
	u, err := url.Parse(o.BaseURL())
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/" + strings.TrimLeft(o.TelemetryPath, "/")
	u.RawQuery = ""
	return u.String()
}

// Validate checks that the effective base address is an absolute http(s) URL.
func (o *ApiOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	flag := "api.server"
	if o.URL != "" {
		flag = "api.url"
	}
	if err := ValidateURL(flag, o.BaseURL(), "http", "https"); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// AddFlags adds flags for ApiOptions to the specified FlagSet.
func (o *ApiOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.URL, "api.url", o.URL, "Full base URL of the patrol REST API. Overrides --api.server and --api.base-path.")
	fs.StringVar(&o.Server, "api.server", o.Server, "Origin of the patrol backend.")
	fs.StringVar(&o.BasePath, "api.base-path", o.BasePath, "REST prefix appended to --api.server.")
	fs.StringVar(&o.TelemetryPath, "api.telemetry-path", o.TelemetryPath, "WebSocket path of the live telemetry hub on the backend origin.")
}
