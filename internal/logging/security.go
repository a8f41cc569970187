// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"go.uber.org/zap"
)

// SecurityLogger emits audit-relevant events on a dedicated named logger so
// they can be routed independently of application logs.
type SecurityLogger struct {
	l *zap.Logger
}

func (s *SecurityLogger) SystemStartup() {
	s.l.Info("system startup")
}

func (s *SecurityLogger) SystemShutdown() {
	s.l.Info("system shutdown")
}

func (s *SecurityLogger) LoginSuccess(userID string) {
	s.l.Info("login success", zap.String("user_id", userID))
}

func (s *SecurityLogger) LoginFailure(email string) {
	s.l.Warn("login failure", zap.String("email", email))
}

func (s *SecurityLogger) AccessDenied(userID, projectID string) {
	s.l.Warn("project access denied", zap.String("user_id", userID), zap.String("project_id", projectID))
}

func (s *SecurityLogger) ModeSwitch(userID string, adminMode bool) {
	s.l.Info("account mode switch", zap.String("user_id", userID), zap.Bool("admin_mode", adminMode))
}
