package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/packetplane/switchd/pkg/sqlite"
)

func compactCommand(cliContext *cli.Context) error {
	if err := setupLogger(cliContext); err != nil {
		return err
	}

	dbFile := cliContext.String("db")
	if _, err := os.Stat(dbFile); err != nil {
		return fmt.Errorf("failed to find journal database %q: %w", dbFile, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := sqlite.RunCompact(ctx, dbFile); err != nil {
		return err
	}

	fmt.Println("compacted the journal database")
	return nil
}
