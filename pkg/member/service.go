// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

// Package member manages the people on a project: the effective member list,
// direct additions, role changes and removals.
package member

import (
	"context"
	"errors"
	"strings"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/monitoring"
	"github.com/pulsewatch/pulsewatch/internal/storage"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
	"github.com/pulsewatch/pulsewatch/internal/types"
	"github.com/pulsewatch/pulsewatch/pkg/access"
	"github.com/pulsewatch/pulsewatch/pkg/invitation"
)

var (
	ErrNotFound       = errors.New("member not found")
	ErrOwnerImmutable = errors.New("the project owner cannot be modified or removed")
	ErrAlreadyMember  = errors.New("user is already a project member")
	ErrInvalidRole    = errors.New("invalid project role")
	ErrLimitReached   = errors.New("plan user limit reached")
)

type Service struct {
	storage     StorageInterface
	invitations invitation.ServiceInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(storage StorageInterface, invitations invitation.ServiceInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Service {
	return &Service{
		storage:     storage,
		invitations: invitations,
		tracer:      tracer,
		monitor:     monitor,
		logger:      logger,
	}
}

// List returns the effective members: the owner first, then every membership
// row with its role name joined in.
func (s *Service) List(ctx context.Context, project *types.Project) ([]*types.Member, error) {
	ctx, span := s.tracer.Start(ctx, "member.Service.List")
	defer span.End()

	owner, err := s.storage.GetUserByID(ctx, project.OwnerID)
	if err != nil {
		return nil, err
	}

	rows, err := s.storage.ListMembersByProjectID(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	members := make([]*types.Member, 0, len(rows)+1)
	members = append(members, &types.Member{
		UserID:   owner.ID,
		Name:     owner.Name,
		Email:    owner.Email,
		RoleID:   access.RoleOwner,
		RoleName: "Owner",
		IsOwner:  true,
	})
	return append(members, rows...), nil
}

// Add puts an email address on the project. Addresses with an existing
// account become members immediately; everyone else gets an invitation.
func (s *Service) Add(ctx context.Context, project *types.Project, actor *types.User, email string, roleID int64) (*AddResult, error) {
	ctx, span := s.tracer.Start(ctx, "member.Service.Add")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			inv, err := s.invitations.Issue(ctx, project, actor, email, roleID)
			if err != nil {
				return nil, err
			}
			return &AddResult{Invitation: inv}, nil
		}
		return nil, err
	}

	if user.ID == project.OwnerID {
		return nil, ErrOwnerImmutable
	}

	role, err := s.validRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	if _, err := s.storage.GetMembership(ctx, project.ID, user.ID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	if err := s.checkUserLimit(ctx, project); err != nil {
		return nil, err
	}

	if err := s.storage.AddMember(ctx, project.ID, user.ID, roleID); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}

	s.logger.Infof("user %s added to project %s with role %s", user.ID, project.ID, role.Name)
	return &AddResult{Member: &types.Member{
		UserID:   user.ID,
		Name:     user.Name,
		Email:    user.Email,
		RoleID:   roleID,
		RoleName: role.Name,
	}}, nil
}

func (s *Service) UpdateRole(ctx context.Context, project *types.Project, userID string, roleID int64) error {
	ctx, span := s.tracer.Start(ctx, "member.Service.UpdateRole")
	defer span.End()

	if userID == project.OwnerID {
		return ErrOwnerImmutable
	}
	if _, err := s.validRole(ctx, roleID); err != nil {
		return err
	}

	if err := s.storage.UpdateMemberRole(ctx, project.ID, userID, roleID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Remove drops a membership. Removing the owner is refused outright rather
// than silently ignored.
func (s *Service) Remove(ctx context.Context, project *types.Project, userID string) error {
	ctx, span := s.tracer.Start(ctx, "member.Service.Remove")
	defer span.End()

	if userID == project.OwnerID {
		return ErrOwnerImmutable
	}

	if err := s.storage.RemoveMember(ctx, project.ID, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.logger.Infof("user %s removed from project %s", userID, project.ID)
	return nil
}

// validRole accepts any seeded role except Owner, which exists only for the
// project owner themselves.
func (s *Service) validRole(ctx context.Context, roleID int64) (*types.ProjectRole, error) {
	if roleID == access.RoleOwner {
		return nil, ErrInvalidRole
	}
	role, err := s.storage.GetProjectRoleByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidRole
		}
		return nil, err
	}
	return role, nil
}

func (s *Service) checkUserLimit(ctx context.Context, project *types.Project) error {
	owner, err := s.storage.GetUserByID(ctx, project.OwnerID)
	if err != nil {
		return err
	}
	plan, err := s.storage.GetPlanByID(ctx, owner.PlanID)
	if err != nil {
		return err
	}
	if plan.MaxUsers < 0 {
		return nil
	}
	members, err := s.storage.CountMembersByProjectID(ctx, project.ID)
	if err != nil {
		return err
	}
	if 1+members >= plan.MaxUsers {
		return ErrLimitReached
	}
	return nil
}
