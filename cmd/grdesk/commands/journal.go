package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/grdesk/internal/eventstore"
)

// JournalCmd implements the 'journal' command.
type JournalCmd struct {
	Journal string        `help:"Journal path (defaults to journal.path from the config)"`
	Since   time.Duration `help:"Only entries recorded within this window"`
	Types   bool          `help:"Summarize by action type instead of listing entries"`
}

func (c *JournalCmd) Run(g *Global, root *CLI) error {
	path, err := journalPath(c.Journal, root.Config)
	if err != nil {
		return err
	}
	j, err := eventstore.NewSQLiteJournal(path)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	ctx := context.Background()
	tw := tabwriter.NewWriter(g.Out, 0, 4, 2, ' ', 0)

	if c.Types {
		counts := eventstore.NewTypeCounts(j)
		if err := counts.Rebuild(ctx); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(tw, "TYPE\tCOUNT\tLAST SEEN")
		for _, tc := range counts.List() {
			_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\n", tc.Type, tc.Count, tc.LastSeen.Format(time.RFC3339))
		}
		return tw.Flush()
	}

	var entries []eventstore.Entry
	if c.Since > 0 {
		now := time.Now()
		entries, err = j.GetRange(ctx, now.Add(-c.Since), now)
	} else {
		entries, err = j.All(ctx)
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(tw, "SEQ\tTIME\tTYPE\tID")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.Seq, e.Timestamp.Format(time.RFC3339), e.Type, e.ActionID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	total, err := j.Count(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Out, "%d of %d entries\n", len(entries), total)
	return nil
}
