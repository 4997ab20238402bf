// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package identity

import (
	"context"
	"log/slog"

	"unseenindonesia/internal/models"
)

// ProfileWriter persists profiles idempotently.
type ProfileWriter interface {
	EnsureExists(ctx context.Context, p *models.Profile) (bool, error)
}

// ProfileFromUser derives the initial public profile of u.
func ProfileFromUser(u *User) *models.Profile {
	p := &models.Profile{ID: u.ID}
	if name := u.Username(); name != "" {
		p.Username = &name
	}
	if full := u.Metadata.DisplayName(); full != "" {
		p.FullName = &full
	}
	if avatar := u.Metadata.Avatar(); avatar != "" {
		p.AvatarURL = &avatar
	}
	if loc := u.Metadata.Location; loc != "" {
		p.Location = &loc
	}
	return p
}

// ProfileListener makes sure every signed-in user has a profile row, so
// content they author can reference it.
func ProfileListener(w ProfileWriter) Listener {
	return func(ctx context.Context, e Event) {
		if e.User == nil || (e.Kind != SignedIn && e.Kind != TokenRefreshed) {
			return
		}
		created, err := w.EnsureExists(ctx, ProfileFromUser(e.User))
		if err != nil {
			slog.Error("ensure profile failed", "user_id", e.User.ID, "error", err)
			return
		}
		if created {
			slog.Info("profile created", "user_id", e.User.ID)
		}
	}
}
