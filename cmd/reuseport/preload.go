package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"libreuseport/interpose"
)

const envPreload = "LD_PRELOAD"

// policyOptions mirrors the LIBREUSEPORT_* variables read by the library.
type policyOptions struct {
	config           string
	types            string
	domains          string
	onResolveFailure string
	quiet            bool
}

func (o *policyOptions) bindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.config, "config", "", "INI file with the [policy] and [log] sections")
	fs.StringVar(&o.types, "types", "", "Socket types that get SO_REUSEPORT (stream,dgram,seqpacket,raw)")
	fs.StringVar(&o.domains, "domains", "", "Address families the policy is limited to (inet,inet6,unix)")
	fs.StringVar(&o.onResolveFailure, "on-resolve-failure", "", "fatal or tolerant")
	fs.BoolVar(&o.quiet, "quiet", false, "Silence the per-call log lines of the library")
}

// env validates the options and returns the variables for the flags that were
// set. changed reports whether a flag was given on the command line.
func (o *policyOptions) env(changed func(name string) bool) ([]string, error) {
	var out []string
	if changed("config") {
		out = append(out, interpose.EnvConfig+"="+o.config)
	}
	if changed("types") {
		if _, err := interpose.ParseTypes(o.types); err != nil {
			return nil, fmt.Errorf("--types: %w", err)
		}
		out = append(out, interpose.EnvTypes+"="+o.types)
	}
	if changed("domains") {
		if _, err := interpose.ParseDomains(o.domains); err != nil {
			return nil, fmt.Errorf("--domains: %w", err)
		}
		out = append(out, interpose.EnvDomains+"="+o.domains)
	}
	if changed("on-resolve-failure") {
		if _, err := interpose.ParseFailureMode(o.onResolveFailure); err != nil {
			return nil, fmt.Errorf("--on-resolve-failure: %w", err)
		}
		out = append(out, interpose.EnvOnResolveFailure+"="+o.onResolveFailure)
	}
	if changed("quiet") {
		out = append(out, interpose.EnvQuiet+"="+strconv.FormatBool(o.quiet))
	}
	return out, nil
}

// preloadEnv returns environ with lib placed first in LD_PRELOAD and the
// overrides replacing any inherited value of the same variable.
func preloadEnv(environ []string, lib string, overrides []string) []string {
	replaced := make(map[string]bool, len(overrides))
	for _, kv := range overrides {
		replaced[envKey(kv)] = true
	}

	out := make([]string, 0, len(environ)+len(overrides)+1)
	var inherited string
	for _, kv := range environ {
		key := envKey(kv)
		switch {
		case key == envPreload:
			inherited = strings.TrimPrefix(kv, envPreload+"=")
		case replaced[key]:
		default:
			out = append(out, kv)
		}
	}
	out = append(out, envPreload+"="+joinPreload(lib, inherited))
	return append(out, overrides...)
}

// joinPreload puts lib in front of the inherited LD_PRELOAD entries, which the
// dynamic loader separates by spaces or colons.
func joinPreload(lib, inherited string) string {
	entries := []string{lib}
	for _, e := range strings.FieldsFunc(inherited, func(r rune) bool { return r == ' ' || r == ':' }) {
		if e != lib {
			entries = append(entries, e)
		}
	}
	return strings.Join(entries, ":")
}

func envKey(kv string) string {
	if i := strings.IndexByte(kv, '='); i >= 0 {
		return kv[:i]
	}
	return kv
}
