package store

import (
	"context"

	"github.com/stillmind-app/stillmind/internal/models"
)

// Store is the local persistence layer: the stored credential, the
// on-device journal of completed sessions, and the cached dashboard view.
type Store interface {
	// Credential
	SaveCredential(ctx context.Context, token string, user models.User) error
	// Credential returns the stored token and profile. An absent
	// credential returns zero values and no error: not being logged in
	// is a normal state.
	Credential(ctx context.Context) (string, models.User, error)
	// AuthToken returns just the stored token, empty when logged out.
	AuthToken(ctx context.Context) (string, error)
	ClearCredential(ctx context.Context) error

	// Session journal
	AppendSession(ctx context.Context, rec *models.SessionRecord, synced bool) error
	ListSessions(ctx context.Context, limit int) ([]*models.SessionRecord, error)

	// Stats cache
	SaveStatsView(ctx context.Context, view models.StatsView) error
	// LastStatsView returns the cached view, or nil when none is cached.
	LastStatsView(ctx context.Context) (*models.StatsView, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
