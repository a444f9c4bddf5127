// Package config layers command-line flags, OVENPROFILE_* environment
// variables and a YAML file into one Config.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"ovenprofile/internal/table"
)

// EnvPrefix is prepended to environment variable names.
const EnvPrefix = "OVENPROFILE"

// Config is the server configuration.
type Config struct {
	Bind           string
	AllowedOrigins []string
	SessionTTL     time.Duration
	LoadTimeout    time.Duration
	Sources        []table.Source
}

// NewConfig returns the defaults.
func NewConfig() *Config {
	return &Config{
		Bind:           ":8001",
		AllowedOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		SessionTTL:     30 * time.Minute,
		LoadTimeout:    30 * time.Second,
	}
}

// Flags registers the scalar options on fs. Sources can only come from the
// config file.
func (c *Config) Flags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Bind, "bind", c.Bind, "address to listen on")
	fs.StringSliceVar(&c.AllowedOrigins, "allowed-origins", c.AllowedOrigins, "origins allowed by CORS")
	fs.DurationVar(&c.SessionTTL, "session-ttl", c.SessionTTL, "drop sessions idle this long (0 keeps them forever)")
	fs.DurationVar(&c.LoadTimeout, "load-timeout", c.LoadTimeout, "time limit for each sql source")
}

// Load applies, in increasing priority, the config file named by the
// "config" flag, the environment and the command line to c. Every flag in
// flags must point into c.
func Load(v *viper.Viper, flags *pflag.FlagSet, c *Config) error {
	if err := v.BindPFlags(flags); err != nil {
		return err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	validKeys := map[string]bool{"sources": true}
	flags.VisitAll(func(f *pflag.Flag) {
		validKeys[f.Name] = true
	})

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "reading configuration file '%s'", path)
		}
		for _, key := range v.AllKeys() {
			top := strings.SplitN(key, ".", 2)[0]
			if !validKeys[top] {
				return errors.Errorf("invalid option in configuration file: %v", key)
			}
		}
	}

	var flagErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if flagErr != nil || f.Changed {
			return
		}
		var value string
		if f.Value.Type() == "stringSlice" {
			// a list from the file comes back from GetString as ""
			value = strings.Join(v.GetStringSlice(f.Name), ",")
		} else {
			value = v.GetString(f.Name)
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			flagErr = sv.Replace(splitList(value))
			return
		}
		flagErr = f.Value.Set(value)
	})
	if flagErr != nil {
		return flagErr
	}

	if v.IsSet("sources") {
		if err := v.UnmarshalKey("sources", &c.Sources); err != nil {
			return errors.Wrap(err, "decoding sources")
		}
	}
	if len(c.Sources) == 0 {
		c.Sources = table.DefaultSources()
	}
	return c.Validate()
}

// Validate checks the sources for obvious mistakes before anything is
// loaded.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		if s.Name == "" {
			return errors.Errorf("source %d has no name", i)
		}
		if seen[s.Name] {
			return errors.Errorf("duplicate source name %q", s.Name)
		}
		seen[s.Name] = true

		switch s.ResolvedKind() {
		case table.KindXLSX, table.KindCSV:
			if s.Path == "" {
				return errors.Errorf("source %q has no path", s.Name)
			}
		case table.KindSQL:
			if s.Driver == "" || s.Table == "" {
				return errors.Errorf("sql source %q needs driver and table", s.Name)
			}
		default:
			return errors.Wrapf(table.ErrUnknownKind, "source %q: %q", s.Name, s.Kind)
		}
	}
	return nil
}

// fileConfig is the YAML shape of Config.
type fileConfig struct {
	Bind           string         `yaml:"bind"`
	AllowedOrigins []string       `yaml:"allowed-origins"`
	SessionTTL     string         `yaml:"session-ttl"`
	LoadTimeout    string         `yaml:"load-timeout"`
	Sources        []table.Source `yaml:"sources"`
}

// YAML renders c in the config file format.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(fileConfig{
		Bind:           c.Bind,
		AllowedOrigins: c.AllowedOrigins,
		SessionTTL:     c.SessionTTL.String(),
		LoadTimeout:    c.LoadTimeout.String(),
		Sources:        c.Sources,
	})
}

func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
