// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

// Package project manages the project lifecycle and the per-project agent
// credentials (API key and payload encryption key).
package project

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/monitoring"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
	"github.com/pulsewatch/pulsewatch/internal/types"
)

var (
	ErrInvalidInput = errors.New("project name is required")
	ErrLimitReached = errors.New("plan project limit reached")
)

type Service struct {
	storage StorageInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(storage StorageInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Service {
	return &Service{
		storage: storage,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

// Create provisions a project with fresh agent credentials, subject to the
// owner's plan project limit.
func (s *Service) Create(ctx context.Context, owner *types.User, name, description string) (*types.Project, error) {
	ctx, span := s.tracer.Start(ctx, "project.Service.Create")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput
	}

	plan, err := s.storage.GetPlanByID(ctx, owner.PlanID)
	if err != nil {
		return nil, err
	}
	if plan.MaxProjects >= 0 {
		owned, err := s.storage.CountOwnedProjects(ctx, owner.ID)
		if err != nil {
			return nil, err
		}
		if owned >= plan.MaxProjects {
			return nil, ErrLimitReached
		}
	}

	apiKey, encryptionKey, err := generateKeys()
	if err != nil {
		return nil, err
	}

	created, err := s.storage.CreateProject(ctx, &types.Project{
		ID:            uuid.Must(uuid.NewV7()).String(),
		Name:          name,
		Description:   strings.TrimSpace(description),
		OwnerID:       owner.ID,
		APIKey:        apiKey,
		EncryptionKey: encryptionKey,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("project %s created by user %s", created.ID, owner.ID)
	return created, nil
}

// List returns every project the user can see: owned ones and memberships.
func (s *Service) List(ctx context.Context, userID string) ([]*types.Project, error) {
	ctx, span := s.tracer.Start(ctx, "project.Service.List")
	defer span.End()

	return s.storage.ListProjectsByUserID(ctx, userID)
}

func (s *Service) Update(ctx context.Context, project *types.Project, name, description string) (*types.Project, error) {
	ctx, span := s.tracer.Start(ctx, "project.Service.Update")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput
	}

	project.Name = name
	project.Description = strings.TrimSpace(description)
	if err := s.storage.UpdateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// RotateKeys replaces both agent credentials. Agents configured with the old
// key stop reporting until they are updated.
func (s *Service) RotateKeys(ctx context.Context, project *types.Project) (*types.Project, error) {
	ctx, span := s.tracer.Start(ctx, "project.Service.RotateKeys")
	defer span.End()

	apiKey, encryptionKey, err := generateKeys()
	if err != nil {
		return nil, err
	}
	if err := s.storage.UpdateProjectKeys(ctx, project.ID, apiKey, encryptionKey); err != nil {
		return nil, err
	}

	project.APIKey = apiKey
	project.EncryptionKey = encryptionKey
	s.logger.Infof("credentials rotated for project %s", project.ID)
	return project, nil
}

func (s *Service) Delete(ctx context.Context, project *types.Project) error {
	ctx, span := s.tracer.Start(ctx, "project.Service.Delete")
	defer span.End()

	if err := s.storage.DeleteProject(ctx, project.ID); err != nil {
		return err
	}
	s.logger.Infof("project %s deleted", project.ID)
	return nil
}

// LatestOwned returns the most recently created project owned by the user,
// used as the landing project after sign-in.
func (s *Service) LatestOwned(ctx context.Context, ownerID string) (*types.Project, error) {
	ctx, span := s.tracer.Start(ctx, "project.Service.LatestOwned")
	defer span.End()

	return s.storage.LatestOwnedProject(ctx, ownerID)
}

func generateKeys() (apiKey, encryptionKey string, err error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate api key: %w", err)
	}
	apiKey = "pw_" + base64.RawURLEncoding.EncodeToString(buf)

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", "", fmt.Errorf("failed to generate encryption key: %w", err)
	}
	return apiKey, hex.EncodeToString(secret), nil
}
