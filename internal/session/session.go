// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package session

// Flash is a one-shot notice carried across a redirect.
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Session is the per-browser mutable state shared across requests. AdminMode
// is only meaningful for users whose global role is admin; everyone else
// always operates in personal mode.
type Session struct {
	ID string `json:"-"`

	UserID          string  `json:"user_id,omitempty"`
	AdminMode       bool    `json:"admin_mode"`
	LastProjectID   string  `json:"last_project_id,omitempty"`
	InvitationToken string  `json:"invitation_token,omitempty"`
	Flashes         []Flash `json:"flashes,omitempty"`

	isNew bool
}

func (s *Session) IsNew() bool {
	return s.isNew
}

func (s *Session) AddFlash(level, message string) {
	s.Flashes = append(s.Flashes, Flash{Level: level, Message: message})
}

// ConsumeFlashes returns accumulated flashes and clears them.
func (s *Session) ConsumeFlashes() []Flash {
	f := s.Flashes
	s.Flashes = nil
	return f
}
