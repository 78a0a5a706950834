// Package flagx holds helpers for layered configuration: picking the flags a
// component owns out of os.Args, locating the JSON config file, reading
// overrides from the environment, and pulling named options out of free-form
// command arguments.
package flagx

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
)

// ErrMissingValue is returned by SplitArgs when an option ends the argument
// list without its value.
var ErrMissingValue = errors.New("option requires a value")

// parseOption reports whether arg is written as an option ("-name",
// "--name", "-name=value" or "--name=value"). "-" and "--" alone are not
// options.
func parseOption(arg string) (name, value string, inline, ok bool) {
	if !strings.HasPrefix(arg, "-") {
		return "", "", false, false
	}
	trimmed := strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-")
	if trimmed == "" {
		return "", "", false, false
	}
	name, value, inline = strings.Cut(trimmed, "=")
	return name, value, inline, true
}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[strings.TrimLeft(n, "-")] = struct{}{}
	}
	return set
}

// FilterArgs keeps only the flags listed in allowedFlags, with their values,
// so several FlagSets can each parse their own part of one command line.
// "-c" in allowedFlags also admits "--c", matching the flag package.
//
// A separate value is taken from the next argument only when that argument is
// not itself option-shaped.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := nameSet(allowedFlags)
	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		name, _, inline, ok := parseOption(args[i])
		if !ok {
			continue
		}
		if _, keep := allowed[name]; !keep {
			continue
		}
		filtered = append(filtered, args[i])
		if !inline && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// SplitArgs separates the options named in valued from everything else.
// Options may appear anywhere, in either dash form, with "=value" or the value
// as the next argument. Unknown option-shaped arguments are returned with the
// positional ones, and everything after "--" is positional. The last
// occurrence of an option wins.
func SplitArgs(args []string, valued []string) (map[string]string, []string, error) {
	known := nameSet(valued)
	opts := make(map[string]string)
	var rest []string

	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			rest = append(rest, args[i+1:]...)
			break
		}
		name, value, inline, ok := parseOption(args[i])
		if _, isKnown := known[name]; !ok || !isKnown {
			rest = append(rest, args[i])
			continue
		}
		if !inline {
			if i+1 >= len(args) {
				return nil, nil, fmt.Errorf("%w: -%s", ErrMissingValue, name)
			}
			i++
			value = args[i]
		}
		opts[name] = value
	}

	return opts, rest, nil
}

// JsonConfigFlags returns the config file path given via -c or -config,
// or "" when neither is present. Other arguments are ignored.
func JsonConfigFlags() string {
	var config string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}
