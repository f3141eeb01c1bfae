package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/council-gov/casework/internal/shared/events"
	"github.com/council-gov/casework/internal/shared/types"
)

// Subscriber turns domain events from the bus into audit entries
type Subscriber struct {
	repo   *Repository
	logger *zap.Logger
}

// NewSubscriber creates a new audit subscriber
func NewSubscriber(repo *Repository, logger *zap.Logger) *Subscriber {
	return &Subscriber{repo: repo, logger: logger}
}

// Handle records one event in the audit log. It is safe to retry:
// each call appends a fresh entry.
func (s *Subscriber) Handle(ctx context.Context, event events.Event) error {
	changes, _ := event.Data.(map[string]any)

	var resourceID *types.ID
	if changes != nil {
		for _, key := range []string{"case_id", "person_id"} {
			if raw, ok := changes[key].(string); ok {
				if id, err := types.ParseID(raw); err == nil {
					resourceID = &id
					break
				}
			}
		}
	}

	entry := NewAuditEntry(
		event.ActorID,
		event.ActorRole,
		event.Type,
		event.Source,
		resourceID,
		changes,
		"", // prev hash assigned by Append
	)
	entry.RecordedAt = event.Timestamp

	if err := s.repo.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append audit entry",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
			zap.Error(err))
		return err
	}

	return nil
}
