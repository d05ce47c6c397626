package service

import (
	"context"
	"time"

	"github.com/hrdemo/company/pkg/models"
)

// ActivationRetention is how long a registered user may stay non activated.
const ActivationRetention = 3 * 24 * time.Hour

// StaleRegistration reports whether u never activated its account and was
// created before cutoff.
func StaleRegistration(u *models.User, cutoff time.Time) bool {
	return !u.Activated &&
		u.ActivationKey != nil &&
		u.CreatedDate != nil &&
		u.CreatedDate.Before(cutoff)
}

// RemoveNotActivatedUsers deletes every stale registration through the
// service delete path, one at a time. Failures are logged and counted, never
// returned; the number of removed users is.
func RemoveNotActivatedUsers(ctx context.Context, users *Service[*models.User]) int {
	log := users.log.With().Str("op", "cleanup").Logger()
	cutoff := users.now().Add(-ActivationRetention)

	// Collect first: deleting while a paged scan is open would shift its pages.
	var stale []*models.User
	for u, err := range users.FindAll(ctx, nil) {
		if err != nil {
			cleanupFailuresTotal.Inc()
			log.Error().Err(err).Msg("failed to scan users")
			break
		}
		if StaleRegistration(u, cutoff) {
			stale = append(stale, u)
		}
	}

	removed := 0
	for _, u := range stale {
		if ctx.Err() != nil {
			break
		}
		if err := users.Delete(ctx, u.ID); err != nil {
			cleanupFailuresTotal.Inc()
			log.Error().Err(err).Str("id", u.ID.String()).Str("login", u.Login).Msg("failed to delete not activated user")
			continue
		}
		removed++
		cleanupDeletedTotal.Inc()
		log.Debug().Str("id", u.ID.String()).Str("login", u.Login).Msg("deleted not activated user")
	}
	log.Info().Int("removed", removed).Int("candidates", len(stale)).Msg("cleanup finished")
	return removed
}
