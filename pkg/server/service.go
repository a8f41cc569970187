// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

// Package server keeps the per-project registry of monitored servers and the
// agent enrollment tokens they report with.
package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/monitoring"
	"github.com/pulsewatch/pulsewatch/internal/storage"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
	"github.com/pulsewatch/pulsewatch/internal/types"
)

var (
	ErrInvalidInput = errors.New("server name and host are required")
	ErrNotFound     = errors.New("server not found")
	ErrLimitReached = errors.New("plan server limit reached")
)

const defaultAgentPort = 22

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

func (s *Service) Create(ctx context.Context, project *types.Project, name, host string, port int, description string) (*types.Server, error) {
	ctx, span := s.tracer.Start(ctx, "server.Service.Create")
	defer span.End()

	name = strings.TrimSpace(name)
	host = strings.TrimSpace(host)
	if name == "" || host == "" {
		return nil, ErrInvalidInput
	}
	if port <= 0 {
		port = defaultAgentPort
	}

	if err := s.checkServerLimit(ctx, project); err != nil {
		return nil, err
	}

	token, err := generateAgentToken()
	if err != nil {
		return nil, err
	}

	created, err := s.storage.CreateServer(ctx, &types.Server{
		ID:          uuid.Must(uuid.NewV7()).String(),
		ProjectID:   project.ID,
		Name:        name,
		Host:        host,
		Port:        port,
		Description: strings.TrimSpace(description),
		Token:       token,
		Status:      "unknown",
		IsActive:    true,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("server %s registered on project %s", created.ID, project.ID)
	return created, nil
}

func (s *Service) Get(ctx context.Context, project *types.Project, serverID string) (*types.Server, error) {
	ctx, span := s.tracer.Start(ctx, "server.Service.Get")
	defer span.End()

	srv, err := s.storage.GetServerByID(ctx, project.ID, serverID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return srv, nil
}

func (s *Service) List(ctx context.Context, projectID string) ([]*types.Server, error) {
	ctx, span := s.tracer.Start(ctx, "server.Service.List")
	defer span.End()

	return s.storage.ListServersByProjectID(ctx, projectID)
}

func (s *Service) Update(ctx context.Context, project *types.Project, serverID string, params UpdateParams) (*types.Server, error) {
	ctx, span := s.tracer.Start(ctx, "server.Service.Update")
	defer span.End()

	srv, err := s.Get(ctx, project, serverID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(params.Name)
	host := strings.TrimSpace(params.Host)
	if name == "" || host == "" {
		return nil, ErrInvalidInput
	}

	srv.Name = name
	srv.Host = host
	if params.Port > 0 {
		srv.Port = params.Port
	}
	srv.Description = strings.TrimSpace(params.Description)
	srv.IsActive = params.IsActive

	if err := s.storage.UpdateServer(ctx, srv); err != nil {
		return nil, err
	}
	return srv, nil
}

func (s *Service) Delete(ctx context.Context, project *types.Project, serverID string) error {
	ctx, span := s.tracer.Start(ctx, "server.Service.Delete")
	defer span.End()

	if err := s.storage.DeleteServer(ctx, project.ID, serverID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Service) checkServerLimit(ctx context.Context, project *types.Project) error {
	owner, err := s.storage.GetUserByID(ctx, project.OwnerID)
	if err != nil {
		return err
	}
	plan, err := s.storage.GetPlanByID(ctx, owner.PlanID)
	if err != nil {
		return err
	}
	if plan.MaxServers < 0 {
		return nil
	}
	count, err := s.storage.CountServersByProjectID(ctx, project.ID)
	if err != nil {
		return err
	}
	if count >= plan.MaxServers {
		return ErrLimitReached
	}
	return nil
}

func generateAgentToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate agent token: %w", err)
	}
	return "srv_" + base64.RawURLEncoding.EncodeToString(buf), nil
}
