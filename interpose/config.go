// config.go — Process-wide policy configuration. Read once when the library is
// loaded: built-in defaults, then the INI file named by LIBREUSEPORT_CONFIG, then
// the LIBREUSEPORT_* environment variables. The defaults reproduce the fixed
// behaviour of the layer: SO_REUSEPORT on stream sockets of every domain, and a
// missing libc symbol terminates the process.
package interpose

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
	"gopkg.in/ini.v1"
)

// Environment variables read by LoadConfig.
const (
	EnvConfig           = "LIBREUSEPORT_CONFIG"
	EnvTypes            = "LIBREUSEPORT_TYPES"
	EnvDomains          = "LIBREUSEPORT_DOMAINS"
	EnvOnResolveFailure = "LIBREUSEPORT_ON_RESOLVE_FAILURE"
	EnvQuiet            = "LIBREUSEPORT_QUIET"
)

// FailureMode selects what happens when a libc symbol cannot be resolved.
type FailureMode int

const (
	// FailFatal logs the failure and exits the process with status 1.
	FailFatal FailureMode = iota
	// FailTolerant logs the failure and fails the call with ENOSYS.
	FailTolerant
)

func (m FailureMode) String() string {
	if m == FailTolerant {
		return "tolerant"
	}
	return "fatal"
}

// ParseFailureMode accepts "fatal" or "tolerant".
func ParseFailureMode(s string) (FailureMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fatal":
		return FailFatal, nil
	case "tolerant":
		return FailTolerant, nil
	}
	return FailFatal, fmt.Errorf("unknown resolve failure mode %q", s)
}

var socketTypes = map[string]int32{
	"stream":    unix.SOCK_STREAM,
	"dgram":     unix.SOCK_DGRAM,
	"seqpacket": unix.SOCK_SEQPACKET,
	"raw":       unix.SOCK_RAW,
}

var socketDomains = map[string]int32{
	"unix":  unix.AF_UNIX,
	"inet":  unix.AF_INET,
	"inet6": unix.AF_INET6,
}

// Config is the policy applied by an Interposer.
type Config struct {
	// Types lists the socket types that receive SO_REUSEPORT.
	Types []int32
	// Domains restricts the policy to these address families. Empty means all.
	Domains          []int32
	OnResolveFailure FailureMode
	Quiet            bool
}

// DefaultConfig returns the built-in policy.
func DefaultConfig() Config {
	return Config{
		Types:            []int32{unix.SOCK_STREAM},
		OnResolveFailure: FailFatal,
	}
}

// Matches reports whether a socket created with domain and typ gets SO_REUSEPORT.
//
// Stream sockets are matched on the SOCK_STREAM bit alone, so SOCK_NONBLOCK and
// SOCK_CLOEXEC (and any other bits packed into typ) never change the outcome.
// The other types are compared against typ with those two flags masked off.
func (c Config) Matches(domain, typ int32) bool {
	if len(c.Domains) > 0 && !slices.Contains(c.Domains, domain) {
		return false
	}
	base := typ &^ (unix.SOCK_NONBLOCK | unix.SOCK_CLOEXEC)
	for _, t := range c.Types {
		if t == unix.SOCK_STREAM {
			if typ&unix.SOCK_STREAM != 0 {
				return true
			}
			continue
		}
		if base == t {
			return true
		}
	}
	return false
}

// ParseTypes turns a comma separated list such as "stream,dgram" into socket types.
func ParseTypes(s string) ([]int32, error) {
	return parseNames(s, socketTypes, "socket type")
}

// ParseDomains turns a comma separated list such as "inet,inet6" into address families.
func ParseDomains(s string) ([]int32, error) {
	return parseNames(s, socketDomains, "domain")
}

func parseNames(s string, table map[string]int32, what string) ([]int32, error) {
	var out []int32
	for _, name := range strings.Split(s, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		v, ok := table[name]
		if !ok {
			return nil, fmt.Errorf("unknown %s %q", what, name)
		}
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out, nil
}

// LoadConfig builds the configuration from defaults, the optional INI file and
// the environment. getenv is usually os.Getenv.
func LoadConfig(getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()

	if path := getenv(EnvConfig); path != "" {
		file, err := ini.Load(path)
		if err != nil {
			return DefaultConfig(), fmt.Errorf("failed to load config %s: %w", path, err)
		}
		if err := applyINI(&cfg, file); err != nil {
			return DefaultConfig(), fmt.Errorf("invalid config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return DefaultConfig(), fmt.Errorf("invalid environment: %w", err)
	}
	return cfg, nil
}

func applyINI(cfg *Config, file *ini.File) error {
	policy := file.Section("policy")
	if policy.HasKey("types") {
		types, err := ParseTypes(policy.Key("types").String())
		if err != nil {
			return err
		}
		cfg.Types = types
	}
	if policy.HasKey("domains") {
		domains, err := ParseDomains(policy.Key("domains").String())
		if err != nil {
			return err
		}
		cfg.Domains = domains
	}
	if policy.HasKey("on_resolve_failure") {
		mode, err := ParseFailureMode(policy.Key("on_resolve_failure").String())
		if err != nil {
			return err
		}
		cfg.OnResolveFailure = mode
	}

	logSection := file.Section("log")
	if logSection.HasKey("quiet") {
		quiet, err := logSection.Key("quiet").Bool()
		if err != nil {
			return fmt.Errorf("log.quiet: %w", err)
		}
		cfg.Quiet = quiet
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	var errs []error
	if v := getenv(EnvTypes); v != "" {
		types, err := ParseTypes(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvTypes, err))
		} else {
			cfg.Types = types
		}
	}
	if v := getenv(EnvDomains); v != "" {
		domains, err := ParseDomains(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvDomains, err))
		} else {
			cfg.Domains = domains
		}
	}
	if v := getenv(EnvOnResolveFailure); v != "" {
		mode, err := ParseFailureMode(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvOnResolveFailure, err))
		} else {
			cfg.OnResolveFailure = mode
		}
	}
	if v := getenv(EnvQuiet); v != "" {
		quiet, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvQuiet, err))
		} else {
			cfg.Quiet = quiet
		}
	}
	return errors.Join(errs...)
}
