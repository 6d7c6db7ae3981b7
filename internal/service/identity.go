package service

import (
	"context"
	"log/slog"

	"nestling/internal/middleware"
	"nestling/internal/models"
	"nestling/internal/repository"
	"nestling/internal/storage"
)

func requireCapability(id models.Identity, c models.Capability) error {
	if !id.Can(c) {
		return models.NewForbiddenError("Insufficient permissions")
	}
	return nil
}

// callerUser loads the user behind id. A token whose subject no longer exists
// is treated as unauthenticated.
func callerUser(ctx context.Context, users repository.UserRepository, id models.Identity) (*models.User, error) {
	u, err := users.GetByUUID(ctx, id.UserUUID)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewUnauthorizedError("Unknown user")
		}
		return nil, err
	}
	return u, nil
}

// dropBlob deletes key best-effort. Failures are logged, never returned.
func dropBlob(ctx context.Context, store storage.Store, key string) {
	if key == "" || key == models.DefaultIconKey || store == nil {
		return
	}
	if err := store.Delete(ctx, key); err != nil {
		middleware.Logger.WarnContext(ctx, "Failed to delete stale blob",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
