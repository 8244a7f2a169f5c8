// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"github.com/google/uuid"

	"github.com/morganforge/finchat-tui/internal/config"
	"github.com/morganforge/finchat-tui/internal/store"
)

// Identity names the conversation for the backend. A new session id is
// minted per process run; recalling an old session later swaps the id in
// the store without touching the user id.
type Identity struct {
	SessionID string
	UserID    string
}

// NewIdentity mints a run identity from the config. The config layer has
// already applied FINCHAT_USER_ID and the dev fallback.
func NewIdentity(cfg *config.Config) Identity {
	uid := cfg.UserID
	if uid == "" && cfg.IsDev() {
		uid = config.DefaultDevUserID
	}
	return Identity{
		SessionID: uuid.NewString(),
		UserID:    uid,
	}
}

// Valid reports whether the identity can be sent to the backend.
func (id Identity) Valid() bool {
	return id.SessionID != "" && id.UserID != ""
}

// Apply seeds the store with this identity.
func (id Identity) Apply(st *store.Store) {
	st.SetIdentity(id.SessionID, id.UserID)
}
