// Package flagx lets several components share os.Args: each one picks the
// flags it knows and ignores the rest.
package flagx

import (
	"flag"
	"os"
	"slices"
	"strings"
)

// FilterArgs returns the arguments that belong to one of the known flags,
// together with their values. Both "-f value" and "-f=value" are
// recognized; a following argument starting with '-' is never taken as a
// value.
func FilterArgs(args []string, known []string) []string {
	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if slices.Contains(known, name) {
				filtered = append(filtered, arg)
			}
			continue
		}

		if !slices.Contains(known, arg) {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// Positional returns the arguments that are neither flags nor values of
// the flags listed in valued.
func Positional(args []string, valued []string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			out = append(out, arg)
			continue
		}
		if !strings.Contains(arg, "=") && slices.Contains(valued, arg) &&
			i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
		}
	}
	return out
}

// ConfigFile returns the path given with -c or -config, or "".
func ConfigFile() string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (short)")
	_ = fs.Parse(FilterArgs(os.Args[1:], []string{"-c", "-config"}))

	return path
}
