package webhook

import (
	"context"
	"errors"

	"voicecredit-platform/internal/accounts"
)

// ErrNoAccount means no account owns the event. This is not a request error:
// retrying cannot fix it, so every channel treats it as an accepted skip.
var ErrNoAccount = errors.New("no account resolved for event")

// AccountDirectory is the account-lookup contract the resolver needs.
// *accounts.Service satisfies it.
type AccountDirectory interface {
	FindByAgentID(ctx context.Context, agentID string) (accounts.Account, error)
	GetByID(ctx context.Context, id string) (accounts.Account, error)
	FindByEmail(ctx context.Context, email string) (accounts.Account, error)
	FindByPhone(ctx context.Context, phone string) (accounts.Account, error)
}

// Resolver finds the owning account for a normalized event.
//
// Priority order, first match wins:
//  1. provider agent id (the trusted binding)
//  2. explicit account id or email carried in the payload
//  3. phone number, normalized, with a last-10-digit suffix fallback
//
// The signature-free provider channel has no agent binding in its payloads
// and resolves by phone only (ResolveByPhone).
type Resolver struct {
	dir AccountDirectory
}

func NewResolver(dir AccountDirectory) *Resolver {
	return &Resolver{dir: dir}
}

func (r *Resolver) Resolve(ctx context.Context, ev Event) (accounts.Account, error) {
	if ev.AgentID != "" {
		a, err := r.dir.FindByAgentID(ctx, ev.AgentID)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, accounts.ErrNotFound) {
			return accounts.Account{}, err
		}
	}

	if ev.AccountRef != "" {
		a, err := r.dir.GetByID(ctx, ev.AccountRef)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, accounts.ErrNotFound) {
			return accounts.Account{}, err
		}
	}

	if ev.Email != "" {
		a, err := r.dir.FindByEmail(ctx, ev.Email)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, accounts.ErrNotFound) {
			return accounts.Account{}, err
		}
	}

	return r.ResolveByPhone(ctx, ev)
}

func (r *Resolver) ResolveByPhone(ctx context.Context, ev Event) (accounts.Account, error) {
	if ev.Phone == "" {
		return accounts.Account{}, ErrNoAccount
	}
	a, err := r.dir.FindByPhone(ctx, ev.Phone)
	if err == nil {
		return a, nil
	}
	if errors.Is(err, accounts.ErrNotFound) || errors.Is(err, accounts.ErrInvalidArgument) {
		return accounts.Account{}, ErrNoAccount
	}
	return accounts.Account{}, err
}
