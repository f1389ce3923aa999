package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/reqforge/reqforge/internal/requirements/storage"
)

// AppendTelemetryEvent records one operational event.
func (s *Store) AppendTelemetryEvent(ctx context.Context, event storage.TelemetryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(event.EventName) == "" {
		return fmt.Errorf("event name is required")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	attributes := event.Attributes
	if attributes == nil {
		attributes = map[string]any{}
	}
	encoded, err := json.Marshal(attributes)
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO telemetry_events (
		   event_name, severity, container_id, requirement_id,
		   actor_type, actor_id, occurred_at, attributes
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.EventName,
		event.Severity,
		event.ContainerID,
		event.RequirementID,
		event.ActorType,
		event.ActorID,
		toMillis(event.Timestamp),
		string(encoded),
	)
	if err != nil {
		return fmt.Errorf("append telemetry event: %w", err)
	}
	return nil
}
