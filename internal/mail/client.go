// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/monitoring"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
	"github.com/pulsewatch/pulsewatch/internal/types"
)

var _ MailerInterface = (*Client)(nil)

type Config struct {
	Endpoint string
	APIKey   string
	From     string
	BaseURL  string
}

// Client delivers mail through a transactional-mail HTTP API.
type Client struct {
	http *resty.Client
	from string
	// baseURL is the public address of this service, used for accept links.
	baseURL string

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

func NewClient(cfg Config, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Client {
	http := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetAuthToken(cfg.APIKey).
		SetTimeout(10 * time.Second)

	return &Client{
		http:    http,
		from:    cfg.From,
		baseURL: cfg.BaseURL,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

func (c *Client) SendProjectInvitation(ctx context.Context, project *types.Project, invitation *types.Invitation, inviter *types.User, roleName string) error {
	ctx, span := c.tracer.Start(ctx, "mail.Client.SendProjectInvitation")
	defer span.End()

	body, err := renderInvitation(invitationData{
		ProjectName: project.Name,
		InviterName: inviter.Name,
		RoleName:    roleName,
		AcceptURL:   fmt.Sprintf("%s/invitations/%s/accept", c.baseURL, invitation.Token),
		CreatedAt:   invitation.CreatedAt,
	})
	if err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(sendRequest{
			From:    c.from,
			To:      invitation.Email,
			Subject: fmt.Sprintf("You've been invited to join %s", project.Name),
			HTML:    body,
		}).
		Post("/messages")

	if err != nil {
		return fmt.Errorf("failed to deliver invitation email: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mail provider returned status %d", resp.StatusCode())
	}

	return nil
}
