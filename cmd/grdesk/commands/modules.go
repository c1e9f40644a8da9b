package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
)

// ModulesCmd implements the 'modules' command.
type ModulesCmd struct{}

func (m *ModulesCmd) Run(g *Global, _ *CLI) error {
	s, err := offlineStore(context.Background(), "", g.Logger)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(g.Out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "KEY\tKIND")
	for _, mi := range s.Modules() {
		kind := "feature"
		switch {
		case mi.Shadowed:
			kind = "feature (shadows built-in)"
		case mi.Builtin:
			kind = "built-in"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", mi.Key, kind)
	}
	return tw.Flush()
}
