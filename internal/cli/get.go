package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/store"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	Tracking bool
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <event-id>",
		Short: "Show a record's current state",
		Long: `Show a record's current state, rebuilt from its action log.

With --tracking the argument is treated as a tracking ID instead of an
event ID.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Tracking, "tracking", false, "look up by tracking ID")

	return cmd
}

func runGet(cmd *cobra.Command, opts *GetOptions, id string) error {
	f := newFormatter(cmd, opts.RootOptions)

	svc, st, _, err := openService(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	var rec record.Record
	if opts.Tracking {
		rec, err = svc.GetByTracking(cmd.Context(), id)
	} else {
		rec, err = svc.Get(cmd.Context(), id)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			f.Error("NOT_FOUND", "record not found", nil)
			return WrapExitError(ExitCommandError, "record not found", err)
		}
		return WrapExitError(ExitCommandError, "load record", err)
	}

	if opts.Format == "json" {
		return f.Success(recordPayload(rec))
	}
	return f.Success(renderRecord(rec))
}
