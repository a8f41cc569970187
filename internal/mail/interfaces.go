// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package mail

import (
	"context"

	"github.com/pulsewatch/pulsewatch/internal/types"
)

// MailerInterface is the notification collaborator. Send is synchronous:
// callers rely on the result to decide whether to keep the invitation.
type MailerInterface interface {
	SendProjectInvitation(ctx context.Context, project *types.Project, invitation *types.Invitation, inviter *types.User, roleName string) error
}
