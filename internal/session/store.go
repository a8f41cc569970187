// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/monitoring"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
)

const keyPrefix = "session:"

var _ StoreInterface = (*Store)(nil)

type StoreInterface interface {
	New() *Session
	Get(ctx context.Context, sid string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, sid string) error
}

// Store keeps sessions server-side in redis so horizontal scaling and test
// isolation stay straightforward.
type Store struct {
	client *redis.Client
	ttl    time.Duration

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewStore(client *redis.Client, ttl time.Duration, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Store {
	s := new(Store)

	s.client = client
	s.ttl = ttl

	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}

// New returns an unsaved session with a fresh opaque ID. AdminMode defaults
// false and is raised at login for global admins.
func (s *Store) New() *Session {
	return &Session{
		ID:    uuid.NewString(),
		isNew: true,
	}
}

func (s *Store) Get(ctx context.Context, sid string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.Store.Get")
	defer span.End()

	data, err := s.client.Get(ctx, keyPrefix+sid).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	sess := new(Session)
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	sess.ID = sid

	return sess, nil
}

func (s *Store) Save(ctx context.Context, sess *Session) error {
	ctx, span := s.tracer.Start(ctx, "session.Store.Save")
	defer span.End()

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+sess.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	sess.isNew = false
	return nil
}

func (s *Store) Delete(ctx context.Context, sid string) error {
	ctx, span := s.tracer.Start(ctx, "session.Store.Delete")
	defer span.End()

	if err := s.client.Del(ctx, keyPrefix+sid).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

var ErrSessionNotFound = errors.New("session not found")
