// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/monitoring"
	"github.com/pulsewatch/pulsewatch/internal/storage"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
	"github.com/pulsewatch/pulsewatch/internal/types"
)

var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("invalid input")
)

// defaultPlanID is the free plan new accounts start on.
const defaultPlanID int64 = 1

type Service struct {
	storage  StorageInterface
	validate *validator.Validate

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(storage StorageInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Service {
	return &Service{
		storage:  storage,
		validate: validator.New(),
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}

type registerInput struct {
	Name     string `validate:"required,max=255"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

func (s *Service) Register(ctx context.Context, name, email, password string) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "authentication.Service.Register")
	defer span.End()

	// Emails are stored lowercase so invitation and login lookups match
	// regardless of how the address was typed.
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Struct(registerInput{Name: name, Email: email, Password: password}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.storage.CreateUser(ctx, &types.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		GlobalRole:   types.GlobalRoleUser,
		PlanID:       defaultPlanID,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "authentication.Service.Login")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Security().LoginFailure(email)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Security().LoginFailure(email)
		return nil, ErrInvalidCredentials
	}

	s.logger.Security().LoginSuccess(user.ID)
	return user, nil
}
