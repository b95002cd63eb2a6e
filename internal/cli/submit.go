package cli

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/engine"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/store"
)

// SubmitOptions holds flags for the submit command.
type SubmitOptions struct {
	*RootOptions
	Action      string
	TxnID       string
	BaseVersion int
	EventType   string
	Declaration string
	Metadata    string
	User        string
	Role        string
	Scopes      []string
}

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SubmitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "submit [event-id]",
		Short: "Apply a lifecycle action to a record",
		Long: `Apply a lifecycle action to a record in the local database.

CREATE takes no event-id and requires --event-type; every other action
targets an existing record and requires --base-version for the
optimistic concurrency check.

Example:
  crvs submit --action CREATE --event-type BIRTH \
    --declaration '{"child.firstname":"Ada","child.dob":"2024-01-15"}' \
    --user agent-1 --scopes record.declare
  crvs submit <event-id> --action DECLARE --base-version 1 \
    --user agent-1 --scopes record.declare`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID := ""
			if len(args) == 1 {
				eventID = args[0]
			}
			return runSubmit(cmd, opts, eventID)
		},
	}

	cmd.Flags().StringVar(&opts.Action, "action", "", "action type (CREATE, DECLARE, VALIDATE, ...)")
	cmd.Flags().StringVar(&opts.TxnID, "txn", "", "transaction ID (defaults to a fresh UUID)")
	cmd.Flags().IntVar(&opts.BaseVersion, "base-version", -1, "expected record version")
	cmd.Flags().StringVar(&opts.EventType, "event-type", "", "event type for CREATE (BIRTH, DEATH, MARRIAGE)")
	cmd.Flags().StringVar(&opts.Declaration, "declaration", "", "declaration fields as JSON")
	cmd.Flags().StringVar(&opts.Metadata, "metadata", "", "action metadata as JSON")
	cmd.Flags().StringVar(&opts.User, "user", "", "acting user ID")
	cmd.Flags().StringVar(&opts.Role, "role", "", "acting user role")
	cmd.Flags().StringSliceVar(&opts.Scopes, "scopes", nil, "acting user scopes")
	cmd.MarkFlagRequired("action")
	cmd.MarkFlagRequired("user")

	return cmd
}

func runSubmit(cmd *cobra.Command, opts *SubmitOptions, eventID string) error {
	f := newFormatter(cmd, opts.RootOptions)

	actionType := record.ActionType(strings.ToUpper(opts.Action))
	if actionType == record.ActionCreate && eventID != "" {
		return NewExitError(ExitCommandError, "CREATE takes no event-id argument")
	}
	if actionType != record.ActionCreate && eventID == "" {
		return NewExitError(ExitCommandError, "event-id argument is required for "+string(actionType))
	}

	decl, err := parseFields(opts.Declaration)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --declaration JSON", err)
	}
	metaDecl, err := parseFields(opts.Metadata)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --metadata JSON", err)
	}

	txnID := opts.TxnID
	if txnID == "" {
		txnID = uuid.New().String()
	}

	actor := record.ActorContext{UserID: opts.User, Role: opts.Role}
	for _, s := range opts.Scopes {
		actor.Scopes = append(actor.Scopes, record.Scope(s))
	}

	svc, st, _, err := openService(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	in := engine.ActionInput{
		Type:          actionType,
		TransactionID: txnID,
		BaseVersion:   opts.BaseVersion,
		Declaration:   decl,
		Metadata:      record.Metadata(metaDecl),
		EventType:     record.EventType(strings.ToUpper(opts.EventType)),
	}

	rec, err := svc.Submit(cmd.Context(), eventID, in, actor)
	if err != nil {
		return reportSubmitError(f, err)
	}

	f.VerboseLog("transaction %s applied", txnID)
	if opts.Format == "json" {
		return f.Success(recordPayload(rec))
	}
	return f.Success(renderRecord(rec))
}

// parseFields decodes a JSON object of field paths into typed values.
func parseFields(raw string) (record.Declaration, error) {
	if raw == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return record.DeclarationFromAny(m)
}

// reportSubmitError prints the rejection in the configured format and
// converts it into a CLI exit code.
func reportSubmitError(f *OutputFormatter, err error) error {
	var terr *engine.TransitionError
	if errors.As(err, &terr) {
		f.Error(string(terr.Code), terr.Message, terr.Details)
		return WrapExitError(ExitFailure, "action rejected", err)
	}
	if errors.Is(err, store.ErrNotFound) {
		f.Error("NOT_FOUND", "record not found", nil)
		return WrapExitError(ExitCommandError, "record not found", err)
	}
	return WrapExitError(ExitCommandError, "submit failed", err)
}

// recordPayload is the JSON shape shared by submit and get.
func recordPayload(rec record.Record) map[string]any {
	return map[string]any{
		"id":          rec.ID,
		"tracking_id": rec.TrackingID,
		"type":        rec.Type,
		"status":      rec.Status,
		"assignee":    rec.Assignee,
		"flags":       rec.Flags,
		"version":     rec.Version(),
		"declaration": rec.Declaration,
		"updated_at":  rec.UpdatedAt,
	}
}
