// Package services applies the engine rules to stored entities. Each
// operation loads its primary document, runs the rule, writes it back with
// compare-and-update (retrying on conflict), and then applies dependent
// writes to other documents in a fixed order. A failed dependent write is
// logged and otherwise ignored: the primary write already succeeded.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"civicpulse-be/engine"
	"civicpulse-be/models"
	"civicpulse-be/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxUpdateAttempts = 5

// Clock returns the current time. Tests swap it for a fixed instant.
type Clock func() time.Time

// mapStoreErr converts store sentinels into the engine taxonomy.
func mapStoreErr(err error, kind string) error {
	if errors.Is(err, store.ErrNotFound) {
		return engine.NotFound(kind)
	}
	return err
}

// dependent runs a follow-up write and logs its failure.
func dependent(ctx context.Context, log *slog.Logger, what string, fn func(context.Context) error, attrs ...any) {
	if err := fn(ctx); err != nil {
		log.WarnContext(ctx, "dependent write failed", append([]any{"op", what, "error", err}, attrs...)...)
	}
}

// trustKeeper recomputes and stores trust scores after activity changes.
type trustKeeper struct {
	users store.UserStore
	now   Clock
	log   *slog.Logger
}

// refresh recomputes the stored score for id; failures are logged.
func (t *trustKeeper) refresh(ctx context.Context, id primitive.ObjectID) {
	if _, err := t.recompute(ctx, id); err != nil {
		t.log.WarnContext(ctx, "trust score refresh failed", "user", id.Hex(), "error", err)
	}
}

// recompute loads the user, derives the score from its current state and
// persists it when it moved.
func (t *trustKeeper) recompute(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := t.users.GetUser(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "user")
	}
	score := engine.TrustScore(user, t.now())
	if score != user.TrustScore {
		if err := t.users.SetTrustScore(ctx, id, score); err != nil {
			return nil, fmt.Errorf("store trust score: %w", err)
		}
		user.TrustScore = score
	}
	return user, nil
}
