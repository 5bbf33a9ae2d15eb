package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tonyfromundefined/ventyd-sub000/adapters/sqlite"
	"github.com/tonyfromundefined/ventyd-sub000/core/entity"
)

// counter is a minimal domain for exercising the commit path under load.
type counter struct {
	Value int `json:"value"`
}

type counterCreated struct{}

type counterIncremented struct {
	By int `json:"by"`
}

func (e counterIncremented) Validate() error {
	if e.By <= 0 {
		return fmt.Errorf("increment must be positive, got %d", e.By)
	}
	return nil
}

func reduceCounter(prev counter, ev entity.Event) counter {
	switch b := ev.Body.(type) {
	case *counterIncremented:
		prev.Value += b.By
	}
	return prev
}

func newCounterSchema(opts ...entity.SchemaOption) (*entity.Schema[counter], error) {
	p := entity.NewCodecProvider[counter]()
	entity.RegisterEvent[counter, counterCreated](p, "counter:created")
	entity.RegisterEvent[counter, counterIncremented](p, "counter:incremented")

	opts = append(
		[]entity.SchemaOption{
			entity.WithIDGenerator(func() string { return uuid.NewString() }),
		},
		opts...,
	)
	return entity.NewSchema("counter", "created", p, reduceCounter, opts...)
}

// LoadtestOptions holds flags for the loadtest command.
type LoadtestOptions struct {
	*RootOptions
	Events  int
	Batch   int
	Backend string
}

// NewLoadtestCommand creates the loadtest command.
func NewLoadtestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadtestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Commit a stream of events and report throughput",
		Long: `Dispatch and commit a stream of counter events against the
configured backend, then replay the stream and verify the folded state.

Example:
  ventyd loadtest -n 50000 -b 1000
  VENTYD_DB=/tmp/load.db ventyd loadtest --backend sqlite`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoadtest(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Events, "events", "n", 50_000, "number of events to commit")
	cmd.Flags().IntVarP(&opts.Batch, "batch", "b", 1_000, "events per commit")
	cmd.Flags().StringVar(&opts.Backend, "backend", "memory", "backend (memory|sqlite)")

	return cmd
}

func runLoadtest(ctx context.Context, opts *LoadtestOptions) error {
	// the uncommitted queue only ever holds one batch
	schema, err := newCounterSchema(entity.WithMaxQueuedEvents(opts.Batch + 1))
	if err != nil {
		return err
	}

	var adapter entity.Adapter
	switch opts.Backend {
	case "memory":
		adapter = entity.NewInMemoryAdapter()
	case "sqlite":
		cfg, err := LoadConfig()
		if err != nil {
			return err
		}
		db, err := sqlite.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		adapter = db
	default:
		return fmt.Errorf("unknown backend %q", opts.Backend)
	}

	repo := entity.NewRepository(slog.Default(), schema, adapter)

	e, err := schema.Create(entity.CreateArgs{Body: counterCreated{}})
	if err != nil {
		return err
	}

	slog.Info("loadtest starting",
		slog.String("backend", opts.Backend),
		slog.Int("events", opts.Events),
		slog.Int("batch", opts.Batch),
	)

	start := time.Now()
	committed := 0
	for committed < opts.Events {
		n := min(opts.Batch, opts.Events-committed)
		for i := 0; i < n; i++ {
			if _, err := e.Dispatch("counter:incremented", counterIncremented{By: 1}); err != nil {
				return err
			}
		}
		if err := repo.Commit(ctx, e); err != nil {
			return err
		}
		committed += n
	}
	took := time.Since(start)

	slog.Info("loadtest committed",
		slog.Int("events", committed),
		slog.Duration("took", took),
		slog.Float64("events_per_sec", float64(committed)/took.Seconds()),
	)

	// replay and verify the fold
	start = time.Now()
	loaded, err := repo.FindOne(ctx, e.EntityID())
	if err != nil {
		return err
	}
	state, err := loaded.State()
	if err != nil {
		return err
	}
	if state.Value != opts.Events {
		return fmt.Errorf("replayed value is %d, want %d", state.Value, opts.Events)
	}

	slog.Info("loadtest replayed",
		slog.Int("value", state.Value),
		slog.Duration("took", time.Since(start)),
	)
	return nil
}
