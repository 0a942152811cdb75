package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/agbru/picalc/internal/ui"
)

// shorthands are hidden from the usage listing; their long forms are shown.
var shorthands = map[string]bool{"d": true, "c": true, "q": true, "o": true}

func setCustomUsage(fs *flag.FlagSet) {
	fs.Usage = func() {
		t := ui.Current()
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			t = ui.NoColorTheme
		}
		out := fs.Output()

		fmt.Fprintf(out, "\n%sπ Calculator%s\n", t.Bold, t.Reset)
		fmt.Fprintf(out, "Decimal digits of π by Chudnovsky binary splitting.\n\n")
		fmt.Fprintf(out, "%sUsage:%s\n  %s [flags]\n\n%sFlags:%s\n", t.Warning, t.Reset, fs.Name(), t.Warning, t.Reset)

		fs.VisitAll(func(f *flag.Flag) {
			if shorthands[f.Name] {
				return
			}
			name, usage := flag.UnquoteUsage(f)
			sig := "-" + f.Name
			if name != "" {
				sig += " " + name
			}
			fmt.Fprintf(out, "  %s%-28s%s %s", t.Primary, sig, t.Reset, usage)
			if f.DefValue != "" && f.DefValue != "0" && f.DefValue != "false" {
				fmt.Fprintf(out, " %s(default %s)%s", t.Secondary, f.DefValue, t.Reset)
			}
			fmt.Fprintln(out)
		})
		fmt.Fprintf(out, "\nEvery flag can also be set as %s<NAME>, e.g. %sDIGITS=1000000.\n\n", EnvPrefix, EnvPrefix)
	}
}
