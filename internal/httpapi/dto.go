package httpapi

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/store"
)

var validate = validator.New()

// createEventRequest creates a new record.
type createEventRequest struct {
	TransactionID string         `json:"transaction_id" validate:"required"`
	EventType     string         `json:"event_type" validate:"required,oneof=BIRTH DEATH MARRIAGE"`
	Declaration   map[string]any `json:"declaration"`

	// EventID optionally pre-allocates the record identifier. A retried
	// create that carries the same event ID and transaction ID returns
	// the existing record instead of minting a second one.
	EventID string `json:"event_id"`
}

// actionRequest applies an action to an existing record.
type actionRequest struct {
	TransactionID string         `json:"transaction_id" validate:"required"`
	Action        string         `json:"action" validate:"required"`
	BaseVersion   *int           `json:"base_version" validate:"required,min=0"`
	Declaration   map[string]any `json:"declaration"`
	Metadata      map[string]any `json:"metadata"`
}

// validateRequest runs struct validation and flattens failures into a
// field->message map.
func validateRequest(v any) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	details := make(map[string]string)
	for _, e := range err.(validator.ValidationErrors) {
		details[e.Field()] = formatValidationError(e)
	}
	return details
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "oneof":
		return "must be one of: " + e.Param()
	case "min":
		return "must be at least " + e.Param()
	default:
		return "invalid value"
	}
}

// recordView is the wire representation of a record snapshot.
type recordView struct {
	ID          string             `json:"id"`
	Type        record.EventType   `json:"type"`
	TrackingID  string             `json:"tracking_id"`
	Status      record.Status      `json:"status"`
	Flags       []record.Flag      `json:"flags,omitempty"`
	Assignee    string             `json:"assignee,omitempty"`
	Version     int                `json:"version"`
	Declaration record.Declaration `json:"declaration"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func viewOf(rec record.Record) recordView {
	return recordView{
		ID:          rec.ID,
		Type:        rec.Type,
		TrackingID:  rec.TrackingID,
		Status:      rec.Status,
		Flags:       rec.Flags,
		Assignee:    rec.Assignee,
		Version:     rec.Version(),
		Declaration: rec.Declaration,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

// queueItemView is one workqueue entry.
type queueItemView struct {
	RecordID   string           `json:"record_id"`
	Type       record.EventType `json:"type"`
	TrackingID string           `json:"tracking_id"`
	Status     record.Status    `json:"status"`
	Assignee   string           `json:"assignee,omitempty"`
	Flags      []record.Flag    `json:"flags,omitempty"`
	Version    int              `json:"version"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func queueViewOf(rows []store.StateRow) []queueItemView {
	out := make([]queueItemView, len(rows))
	for i, row := range rows {
		out[i] = queueItemView{
			RecordID:   row.RecordID,
			Type:       row.Type,
			TrackingID: row.TrackingID,
			Status:     row.Status,
			Assignee:   row.Assignee,
			Flags:      row.Flags,
			Version:    row.Version,
			UpdatedAt:  row.UpdatedAt,
		}
	}
	return out
}
