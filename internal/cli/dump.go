package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonyfromundefined/ventyd-sub000/adapters/sqlite"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	Database string
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump <entity-name> <entity-id>",
		Short: "Print the stored event stream of one entity",
		Long: `Print every stored event of the given entity as JSON lines,
followed by the committed state snapshot if one exists.

Example:
  ventyd dump profile profile-1
  ventyd dump --db /tmp/load.db counter 0d9f...`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd.Context(), cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (defaults to $VENTYD_DB)")

	return cmd
}

func runDump(ctx context.Context, cmd *cobra.Command, opts *DumpOptions, entityName, entityID string) error {
	path := opts.Database
	if path == "" {
		cfg, err := LoadConfig()
		if err != nil {
			return err
		}
		path = cfg.Database
	}

	db, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	events, err := db.GetEventsByEntityID(ctx, entityName, entityID)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return fmt.Errorf("no events for %s/%s", entityName, entityID)
	}

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}

	state, numEvents, err := db.GetState(ctx, entityName, entityID)
	if err != nil {
		return err
	}
	if state != nil {
		fmt.Fprintf(out, "state after %d events: %s\n", numEvents, state)
	}
	return nil
}
