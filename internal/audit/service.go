package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events. It is append-only;
// no Update/Delete methods exist.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information. Audit is internal-only; callers
// treat logging as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" || e.ActorAccountID == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogCreditChange records an admin mutation of an account's credit totals.
func (s *Service) LogCreditChange(ctx context.Context, actorID, actorRole, ip, targetID, message, metadata string) error {
	return s.Append(ctx, Event{
		Type:            EventTypeCreditChange,
		ActorAccountID:  actorID,
		ActorRole:       actorRole,
		IPAddress:       ip,
		TargetAccountID: targetID,
		Message:         message,
		Metadata:        metadata,
	})
}

// LogAgentBinding records binding or unbinding a voice agent to an account.
func (s *Service) LogAgentBinding(ctx context.Context, actorID, actorRole, ip, targetID, message string) error {
	return s.Append(ctx, Event{
		Type:            EventTypeAgentBinding,
		ActorAccountID:  actorID,
		ActorRole:       actorRole,
		IPAddress:       ip,
		TargetAccountID: targetID,
		Message:         message,
	})
}

// LogAdminAction records any other privileged operation.
func (s *Service) LogAdminAction(ctx context.Context, actorID, actorRole, ip, targetID, message, metadata string) error {
	return s.Append(ctx, Event{
		Type:            EventTypeAdminAction,
		ActorAccountID:  actorID,
		ActorRole:       actorRole,
		IPAddress:       ip,
		TargetAccountID: targetID,
		Message:         message,
		Metadata:        metadata,
	})
}
