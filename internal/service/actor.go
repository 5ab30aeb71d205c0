// Package service implements the domain operations on top of the repositories.
package service

import (
	"context"
	"fmt"
	"strings"

	"cadence/internal/models"
	"cadence/internal/policy"
	"cadence/internal/repository"
	"cadence/internal/storage"
)

// loadActor resolves the authenticated user into a policy actor.
func loadActor(ctx context.Context, users repository.UserRepository, id uint) (policy.Actor, error) {
	if id == 0 {
		return policy.Actor{}, models.NewUnauthorizedError("Authentication required")
	}
	u, err := users.GetByID(ctx, id)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return policy.Actor{}, models.NewUnauthorizedError("User no longer exists")
		}
		return policy.Actor{}, err
	}
	return policy.ActorFor(u), nil
}

// checkMediaTypes rejects any upload that is neither image/* nor video/*.
func checkMediaTypes(uploads []storage.Upload) ([]models.MediaType, error) {
	types := make([]models.MediaType, len(uploads))
	for i, u := range uploads {
		mt, ok := models.MediaTypeFor(u.ContentType)
		if !ok {
			return nil, models.NewValidationError(fmt.Sprintf("Unsupported media type %q for file %q", u.ContentType, u.Filename))
		}
		types[i] = mt
	}
	return types, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func summaryOf(users map[uint]models.User, id uint) models.UserSummary {
	if u, ok := users[id]; ok {
		return u.Summary()
	}
	return models.UserSummary{ID: id}
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
