package repository

import (
	"context"
	"log/slog"
	"sync"

	"pinkbook/internal/kvstore"
	"pinkbook/internal/models"
	"pinkbook/internal/observability"
)

// usersKey is the stable key the credential list lives under.
const usersKey = "users"

// Outcome reasons surfaced to callers as values. The directory never raises;
// even a storage failure comes back as a not-accepted result.
const (
	ReasonRegistered         = "registration successful"
	ReasonDuplicateAccount   = "email or phone already registered"
	ReasonLoginOK            = "login successful"
	ReasonBadCredentials     = "invalid account or password"
	ReasonStorageUnavailable = "storage unavailable, try again"
	ReasonMissingFields      = "email, phone and password are required"
)

// UserDirectory registers and authenticates users against a flat list of
// credential records. A user is addressed by exact match of email-or-phone.
type UserDirectory interface {
	Register(ctx context.Context, candidate models.User) models.RegisterResult
	Authenticate(ctx context.Context, identifier, password string) models.AuthResult
}

type userDirectory struct {
	kv     kvstore.Store
	logger *slog.Logger

	// mu serializes the read-modify-write cycle on the credential list so
	// two concurrent registrations cannot drop each other.
	mu sync.Mutex
}

// NewUserDirectory returns a UserDirectory backed by the given store.
func NewUserDirectory(kv kvstore.Store) UserDirectory {
	return &userDirectory{kv: kv, logger: observability.Logger}
}

func (d *userDirectory) Register(ctx context.Context, candidate models.User) models.RegisterResult {
	if candidate.Email == "" || candidate.Phone == "" || candidate.Password == "" {
		return models.RegisterResult{Accepted: false, Reason: ReasonMissingFields}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	users := loadCollection[models.User](ctx, d.kv, d.logger, usersKey)
	for _, u := range users {
		// Either collision rejects: email and phone are independently unique.
		if u.Email == candidate.Email || u.Phone == candidate.Phone {
			return models.RegisterResult{Accepted: false, Reason: ReasonDuplicateAccount}
		}
	}

	users = append(users, candidate)
	if err := storeCollection(ctx, d.kv, usersKey, users); err != nil {
		d.logger.Error("persisting user list failed", "error", err)
		return models.RegisterResult{Accepted: false, Reason: ReasonStorageUnavailable}
	}
	return models.RegisterResult{Accepted: true, Reason: ReasonRegistered}
}

func (d *userDirectory) Authenticate(ctx context.Context, identifier, password string) models.AuthResult {
	users := loadCollection[models.User](ctx, d.kv, d.logger, usersKey)
	for _, u := range users {
		// Verbatim string comparison, matching the stored-plaintext contract
		// of this directory.
		if (u.Email == identifier || u.Phone == identifier) && u.Password == password {
			user := u
			return models.AuthResult{Accepted: true, User: &user, Reason: ReasonLoginOK}
		}
	}
	return models.AuthResult{Accepted: false, Reason: ReasonBadCredentials}
}
