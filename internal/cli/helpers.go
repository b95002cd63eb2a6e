package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/config"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/engine"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/logger"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/schema"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/service"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/store"
)

// newFormatter builds an OutputFormatter wired to the command's writers.
func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// openService opens the configured database and assembles the lifecycle
// service around it. The caller must Close the returned store.
func openService(ctx context.Context, opts *RootOptions) (*service.Service, *store.Store, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, WrapExitError(ExitCommandError, "load configuration", err)
	}

	dbPath := cfg.Database.Path
	if opts.DBPath != "" {
		dbPath = opts.DBPath
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, nil, WrapExitError(ExitCommandError, fmt.Sprintf("open database %s", dbPath), err)
	}

	reg, err := schema.Load()
	if err != nil {
		st.Close()
		return nil, nil, nil, WrapExitError(ExitCommandError, "load declaration schemas", err)
	}

	// Resume the logical clock past everything already persisted so new
	// actions never reuse a seq.
	maxSeq, err := st.MaxSeq(ctx)
	if err != nil {
		st.Close()
		return nil, nil, nil, WrapExitError(ExitCommandError, "read clock checkpoint", err)
	}

	eng := engine.New(reg,
		engine.WithClock(engine.NewClockAt(maxSeq)),
		engine.WithLateRegistrationCutoff(cfg.Registration.LateCutoff),
	)

	svc := service.New(eng, st, logger.Nop())
	return svc, st, cfg, nil
}

// renderRecord formats a record snapshot for text output.
func renderRecord(rec record.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ID:          %s\n", rec.ID)
	fmt.Fprintf(&b, "Tracking:    %s\n", rec.TrackingID)
	fmt.Fprintf(&b, "Type:        %s\n", rec.Type)
	fmt.Fprintf(&b, "Status:      %s\n", rec.Status)
	if rec.Assignee != "" {
		fmt.Fprintf(&b, "Assignee:    %s\n", rec.Assignee)
	}
	if len(rec.Flags) > 0 {
		flags := make([]string, len(rec.Flags))
		for i, f := range rec.Flags {
			flags[i] = string(f)
		}
		fmt.Fprintf(&b, "Flags:       %s\n", strings.Join(flags, ", "))
	}
	fmt.Fprintf(&b, "Version:     %d\n", rec.Version())
	fmt.Fprintf(&b, "Updated:     %s", rec.UpdatedAt.Format(time.RFC3339))
	return b.String()
}

// renderAction formats one history entry for text output.
func renderAction(act record.Action) string {
	line := fmt.Sprintf("%4d  %-19s  %-12s -> %-12s  %s  %s",
		act.Seq, act.Type, act.StatusBefore, act.StatusAfter,
		act.Actor.UserID, act.Timestamp.Format(time.RFC3339))
	return strings.TrimRight(line, " ")
}
