package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/sitetree/internal/eventstore"
	ferrors "git.home.luguber.info/inful/sitetree/internal/foundation/errors"
)

// HistoryCmd lists recent publish runs, or the events of one run.
type HistoryCmd struct {
	Limit int    `name:"limit" default:"10" help:"Number of runs to show (0 for all)"`
	Build string `name:"build" help:"Show the events of one publish run"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return ferrors.ConfigError("history.path is not configured").Build()
	}
	store, err := eventstore.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if h.Build != "" {
		return printBuild(g.Out, store, h.Build)
	}

	builds, err := eventstore.Builds(context.Background(), store, h.Limit)
	if err != nil {
		return err
	}
	if len(builds) == 0 {
		_, _ = fmt.Fprintln(g.Out, "No publish runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD\tSTARTED\tSTATUS\tDURATION\tPAGES\tASSETS\tBROKEN\tERROR")
	for _, b := range builds {
		errText := ""
		if b.ErrorMessage != "" {
			errText = b.ErrorStage + ": " + b.ErrorMessage
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			b.BuildID, b.StartedAt.Local().Format(time.DateTime), b.Status, b.Duration.Round(time.Millisecond),
			b.Pages, b.Assets, b.BrokenLinks, errText)
	}
	return tw.Flush()
}

func printBuild(w io.Writer, store eventstore.Store, buildID string) error {
	b, events, err := eventstore.Build(context.Background(), store, buildID)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Build %s: %s (%d pages, %d assets, %d broken links)\n",
		b.BuildID, b.Status, b.Pages, b.Assets, b.BrokenLinks)
	if b.ErrorMessage != "" {
		_, _ = fmt.Fprintf(w, "Failed in %s: %s\n", b.ErrorStage, b.ErrorMessage)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TIME\tEVENT\tPAYLOAD")
	for _, e := range events {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n",
			e.Timestamp().Local().Format(time.DateTime), e.Type(), e.Payload())
	}
	return tw.Flush()
}
