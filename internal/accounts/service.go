package accounts

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("account not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrEmailTaken     = errors.New("email already registered")

	// ErrAgentTaken is the typed conflict for the explicit bind-agent
	// operation: the agent id is already bound to another account.
	ErrAgentTaken = errors.New("agent already bound to another account")
)

// Service provides account lookups and lifecycle operations.
//
// Lookup contract (consumed by webhook resolution):
// - by agent id: exact match on the unique binding
// - by email: case-insensitive, trimmed
// - by phone: exact on the normalized number, then last-10-digit suffix
type Service struct {
	db    *sql.DB
	clock func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, clock: time.Now}
}

type CreateRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Phone string `json:"phone,omitempty"`
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Account, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return Account{}, ErrInvalidArgument
	}
	role := req.Role
	if role == "" {
		role = "user"
	}

	now := s.clock().UTC()
	a := Account{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      strings.TrimSpace(req.Name),
		Role:      role,
		Status:    StatusPendingPayment,
		Phone:     strings.TrimSpace(req.Phone),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := insertAccount(ctx, s.db, a); err != nil {
		return Account{}, err
	}
	return a, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Account, error) {
	if id == "" {
		return Account{}, ErrInvalidArgument
	}
	return findByID(ctx, s.db, id)
}

func (s *Service) FindByEmail(ctx context.Context, email string) (Account, error) {
	if strings.TrimSpace(email) == "" {
		return Account{}, ErrInvalidArgument
	}
	return findByEmail(ctx, s.db, email)
}

func (s *Service) FindByAgentID(ctx context.Context, agentID string) (Account, error) {
	if agentID == "" {
		return Account{}, ErrInvalidArgument
	}
	return findByAgentID(ctx, s.db, agentID)
}

// FindByPhone resolves a caller number to an account. The inbound number is
// normalized first; an exact match wins, otherwise the last 10 digits are
// compared to tolerate country-code and punctuation differences.
func (s *Service) FindByPhone(ctx context.Context, phone string) (Account, error) {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return Account{}, ErrInvalidArgument
	}

	a, err := findByPhoneExact(ctx, s.db, normalized)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Account{}, err
	}

	suffix := PhoneSuffix(normalized, 10)
	if suffix == "" {
		return Account{}, ErrNotFound
	}
	return findByPhoneSuffix(ctx, s.db, suffix)
}

// BindAgent associates a provider agent id with the account. The conflict is
// surfaced as ErrAgentTaken rather than a bare constraint error so callers
// can present it.
func (s *Service) BindAgent(ctx context.Context, accountID, agentID string) (Account, error) {
	if accountID == "" || agentID == "" {
		return Account{}, ErrInvalidArgument
	}
	return updateAgentID(ctx, s.db, accountID, agentID)
}

// UnbindAgent clears the agent binding.
func (s *Service) UnbindAgent(ctx context.Context, accountID string) (Account, error) {
	if accountID == "" {
		return Account{}, ErrInvalidArgument
	}
	return updateAgentID(ctx, s.db, accountID, "")
}

func (s *Service) SetStatus(ctx context.Context, accountID string, status Status) (Account, error) {
	if accountID == "" || !status.Valid() {
		return Account{}, ErrInvalidArgument
	}
	return updateStatus(ctx, s.db, accountID, status)
}

func (s *Service) SetPhone(ctx context.Context, accountID, phone string) (Account, error) {
	if accountID == "" {
		return Account{}, ErrInvalidArgument
	}
	return updatePhone(ctx, s.db, accountID, strings.TrimSpace(phone))
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Account, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return listAccounts(ctx, s.db, limit, offset)
}
