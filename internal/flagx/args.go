// Package flagx lets several loaders share os.Args without tripping over each
// other's flags.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// Select keeps only the named flags from args, together with their values.
// Both "-name value" and "-name=value" forms are recognized. A token that
// starts with "-" is never taken as a value.
func Select(args []string, names ...string) []string {
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}

	out := []string{}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		if name, _, ok := strings.Cut(arg, "="); ok {
			if known[name] {
				out = append(out, arg)
			}
			continue
		}
		if !known[arg] {
			continue
		}
		out = append(out, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			out = append(out, args[i])
		}
	}
	return out
}

// ConfigPath returns the value of -c / -config in args, or "" when neither is
// given. With both present the last one wins.
func ConfigPath(args []string) string {
	var path string
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to a JSON config file")
	fs.StringVar(&path, "c", "", "path to a JSON config file (shorthand)")
	_ = fs.Parse(Select(args, "-c", "-config", "--config"))
	return path
}
