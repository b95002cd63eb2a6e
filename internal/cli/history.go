package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/store"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <event-id>",
		Short: "Show a record's full action log",
		Long: `Show a record's full action log in seq order.

Each line is one accepted action: its seq, type, status transition,
actor, and timestamp.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, rootOpts, args[0])
		},
	}

	return cmd
}

func runHistory(cmd *cobra.Command, opts *RootOptions, eventID string) error {
	f := newFormatter(cmd, opts)

	svc, st, _, err := openService(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer st.Close()

	history, err := svc.History(cmd.Context(), eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			f.Error("NOT_FOUND", "record not found", nil)
			return WrapExitError(ExitCommandError, "record not found", err)
		}
		return WrapExitError(ExitCommandError, "load history", err)
	}

	if opts.Format == "json" {
		return f.Success(historyPayload(history))
	}

	lines := make([]string, len(history))
	for i, act := range history {
		lines[i] = renderAction(act)
	}
	return f.Success(strings.Join(lines, "\n"))
}

func historyPayload(history []record.Action) []map[string]any {
	out := make([]map[string]any, len(history))
	for i, act := range history {
		out[i] = map[string]any{
			"id":             act.ID,
			"type":           act.Type,
			"transaction_id": act.TransactionID,
			"actor":          act.Actor,
			"seq":            act.Seq,
			"timestamp":      act.Timestamp,
			"status_before":  act.StatusBefore,
			"status_after":   act.StatusAfter,
		}
	}
	return out
}
