// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package mail

import (
	"context"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/types"
)

var _ MailerInterface = (*NoopMailer)(nil)

// NoopMailer logs instead of sending, for local development without a mail
// provider configured.
type NoopMailer struct {
	logger logging.LoggerInterface
}

func NewNoopMailer(logger logging.LoggerInterface) *NoopMailer {
	return &NoopMailer{logger: logger}
}

func (m *NoopMailer) SendProjectInvitation(_ context.Context, project *types.Project, invitation *types.Invitation, _ *types.User, roleName string) error {
	m.logger.Infof("noop mailer: invitation for %s to project %s as %s", invitation.Email, project.Name, roleName)
	return nil
}
