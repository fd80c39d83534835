// Package flagx holds helpers for the layered configuration loaders:
// selective flag parsing and environment lookups with alias names.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// flagName strips the leading dashes and any "=value" part, so "-c",
// "--c" and "--c=x" all name the flag "c" as the flag package sees it.
func flagName(arg string) string {
	name := strings.TrimLeft(arg, "-")
	if i := strings.IndexByte(name, '='); i >= 0 {
		name = name[:i]
	}
	return name
}

// FilterArgs keeps the arguments that set one of allowedFlags, together with
// their values, so that independent FlagSets can share one command line.
// Flags may be spelled with one or two dashes and take their value either
// inline ("-k=secret") or as the next argument when that does not start with
// '-'. Scanning stops at "--".
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]bool, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[flagName(f)] = true
	}

	out := []string{}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") || !allowed[flagName(arg)] {
			continue
		}

		out = append(out, arg)
		if strings.Contains(arg, "=") {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}

// JsonConfigFlags extracts the config file path given via -c or -config.
// Other arguments are ignored. Returns "" when neither flag is present.
func JsonConfigFlags() string {
	var config string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}

// LookupEnv returns the value of the first non-empty environment variable
// among names. The second result reports whether any was found.
func LookupEnv(names ...string) (string, bool) {
	for _, n := range names {
		if v, ok := os.LookupEnv(n); ok && v != "" {
			return v, true
		}
	}
	return "", false
}
