// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

// Package admin is the platform operator surface: aggregate stats, user and
// plan administration. Everything here sits behind the admin-mode gate.
package admin

import (
	"context"
	"errors"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/monitoring"
	"github.com/pulsewatch/pulsewatch/internal/storage"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
	"github.com/pulsewatch/pulsewatch/internal/types"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrInUse    = errors.New("plan is still assigned to users")
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

func (s *Service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	ctx, span := s.tracer.Start(ctx, "admin.Service.Dashboard")
	defer span.End()

	stats := &DashboardStats{}
	var err error
	if stats.Users, err = s.storage.CountUsers(ctx); err != nil {
		return nil, err
	}
	if stats.Projects, err = s.storage.CountProjects(ctx); err != nil {
		return nil, err
	}
	if stats.PendingInvitations, err = s.storage.CountInvitationsByStatus(ctx, types.InvitationPending); err != nil {
		return nil, err
	}
	if stats.AcceptedInvitations, err = s.storage.CountInvitationsByStatus(ctx, types.InvitationAccepted); err != nil {
		return nil, err
	}
	if stats.ExpiredInvitations, err = s.storage.CountInvitationsByStatus(ctx, types.InvitationExpired); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "admin.Service.ListUsers")
	defer span.End()

	return s.storage.ListUsers(ctx)
}

func (s *Service) UpdateUser(ctx context.Context, id string, globalRole types.GlobalRole, planID int64, isActive bool) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "admin.Service.UpdateUser")
	defer span.End()

	user, err := s.storage.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	user.GlobalRole = globalRole
	user.PlanID = planID
	user.IsActive = isActive
	if err := s.storage.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Infof("user %s updated by admin: role=%s plan=%d active=%t", id, globalRole, planID, isActive)
	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "admin.Service.DeleteUser")
	defer span.End()

	if err := s.storage.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Service) ListPlans(ctx context.Context) ([]*types.Plan, error) {
	ctx, span := s.tracer.Start(ctx, "admin.Service.ListPlans")
	defer span.End()

	return s.storage.ListPlans(ctx)
}

func (s *Service) CreatePlan(ctx context.Context, p *types.Plan) (*types.Plan, error) {
	ctx, span := s.tracer.Start(ctx, "admin.Service.CreatePlan")
	defer span.End()

	return s.storage.CreatePlan(ctx, p)
}

func (s *Service) UpdatePlan(ctx context.Context, p *types.Plan) error {
	ctx, span := s.tracer.Start(ctx, "admin.Service.UpdatePlan")
	defer span.End()

	if err := s.storage.UpdatePlan(ctx, p); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Service) DeletePlan(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "admin.Service.DeletePlan")
	defer span.End()

	if err := s.storage.DeletePlan(ctx, id); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return ErrNotFound
		case errors.Is(err, storage.ErrForeignKeyViolation):
			return ErrInUse
		}
		return err
	}
	return nil
}

func (s *Service) ListProjectRoles(ctx context.Context) ([]*types.ProjectRole, error) {
	ctx, span := s.tracer.Start(ctx, "admin.Service.ListProjectRoles")
	defer span.End()

	return s.storage.ListProjectRoles(ctx)
}
