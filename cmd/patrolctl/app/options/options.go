package options

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/patrolctl/pkg/log"
	"github.com/autopeer-io/patrolctl/pkg/options"
)

// EnvPrefix prefixes every environment override, e.g. PATROL_API_URL.
const EnvPrefix = "PATROL"

// PatrolOptions gathers the option groups of patrolctl.
type PatrolOptions struct {
	Api     *options.ApiOptions     `json:"api" mapstructure:"api"`
	Store   *options.StoreOptions   `json:"store" mapstructure:"store"`
	Session *options.SessionOptions `json:"session" mapstructure:"session"`
	S3      *options.S3Options      `json:"s3" mapstructure:"s3"`
	Mqtt    *options.MqttOptions    `json:"mqtt" mapstructure:"mqtt"`
	Http    *options.HttpOptions    `json:"http" mapstructure:"http"`
	Log     *log.Options            `json:"log" mapstructure:"log"`
}

func NewPatrolOptions() *PatrolOptions {
	return &PatrolOptions{
		Api:     options.NewApiOptions(),
		Store:   options.NewStoreOptions(),
		Session: options.NewSessionOptions(),
		S3:      options.NewS3Options(),
		Mqtt:    options.NewMqttOptions(),
		Http:    options.NewHttpOptions(),
		Log:     log.NewOptions(),
	}
}

func (o *PatrolOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.Api.AddFlags(fss.FlagSet("api"))
	o.Store.AddFlags(fss.FlagSet("store"))
	o.Session.AddFlags(fss.FlagSet("session"))
	o.S3.AddFlags(fss.FlagSet("s3"))
	o.Mqtt.AddFlags(fss.FlagSet("mqtt"))
	o.Http.AddFlags(fss.FlagSet("watch"))
	o.Log.AddFlags(fss.FlagSet("Log"))
	return fss
}

func (o *PatrolOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.Api.Validate()...)
	errs = append(errs, o.Store.Validate()...)
	errs = append(errs, o.Session.Validate()...)
	errs = append(errs, o.S3.Validate()...)
	errs = append(errs, o.Mqtt.Validate()...)
	errs = append(errs, o.Http.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

// DefaultConfigFile is $HOME/.patrolctl/config.yaml, or empty when the home
// directory is unknown.
func DefaultConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".patrolctl", "config.yaml")
}

// Load fills o from, in decreasing precedence, flags set on the command line,
// PATROL_* environment variables, the config file and flag defaults. A
// missing config file is only an error when it was named explicitly.
func (o *PatrolOptions) Load(fs *pflag.FlagSet, configFile string, explicit bool) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return err
	}

	if configFile != "" {
		_, statErr := os.Stat(configFile)
		switch {
		case statErr == nil:
			v.SetConfigFile(configFile)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file %s: %w", configFile, err)
			}
			log.Debug("Using config file", "path", configFile)
		case explicit || !os.IsNotExist(statErr):
			return fmt.Errorf("config file: %w", statErr)
		}
	}

	if err := v.Unmarshal(o); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	return nil
}
