package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/packetplane/switchd/pkg/eventstore"
	"github.com/packetplane/switchd/pkg/sqlite"
)

func eventsCommand(cliContext *cli.Context) error {
	if err := setupLogger(cliContext); err != nil {
		return err
	}

	dbFile := cliContext.String("db")
	if _, err := os.Stat(dbFile); err != nil {
		return fmt.Errorf("failed to find journal database %q: %w", dbFile, err)
	}

	dbRW, err := sqlite.Open(dbFile)
	if err != nil {
		return err
	}
	defer dbRW.Close()
	dbRO, err := sqlite.Open(dbFile, sqlite.WithReadOnly(true))
	if err != nil {
		return err
	}
	defer dbRO.Close()

	// Retention zero keeps the purger off for a read-only dump.
	store, err := eventstore.New(dbRW, dbRO, 0)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	events, err := store.Get(ctx, time.Now().UTC().Add(-cliContext.Duration("since")))
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("no lane transition events")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Group", "Event", "From", "To", "Message"})
	for _, ev := range events {
		table.Append([]string{
			ev.Time.Format(time.RFC3339),
			fmt.Sprintf("%d", ev.ControllingPort),
			ev.Name,
			ev.FromMode,
			ev.ToMode,
			ev.Message,
		})
	}
	table.Render()
	return nil
}
