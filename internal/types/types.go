// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"time"
)

// GlobalRole is the application-wide role of a user, distinct from
// per-project roles.
type GlobalRole string

const (
	GlobalRoleAdmin GlobalRole = "admin"
	GlobalRoleUser  GlobalRole = "user"
)

// InvitationStatus is the lifecycle state of a project invitation.
// Accepted and expired are terminal.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
)

type User struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	GlobalRole   GlobalRole `db:"global_role" json:"global_role"`
	PlanID       int64      `db:"plan_id" json:"plan_id"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

type Project struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Description   string    `db:"description" json:"description"`
	OwnerID       string    `db:"owner_id" json:"owner_id"`
	APIKey        string    `db:"api_key" json:"api_key,omitempty"`
	EncryptionKey string    `db:"encryption_key" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Membership links a user to a project with a project role. The project
// owner is never stored here; ownership is carried on the project row.
type Membership struct {
	ProjectID string    `db:"project_id" json:"project_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	RoleID    int64     `db:"project_role_id" json:"project_role_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Invitation struct {
	ID        string           `db:"id" json:"id"`
	ProjectID string           `db:"project_id" json:"project_id"`
	Email     string           `db:"email" json:"email"`
	RoleID    int64            `db:"project_role_id" json:"project_role_id"`
	Token     string           `db:"token" json:"-"`
	Status    InvitationStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	ExpiresAt time.Time        `db:"expires_at" json:"expires_at"`
}

type ProjectRole struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
}

// Plan limits use -1 as the sentinel for unlimited.
type Plan struct {
	ID          int64   `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Price       float64 `db:"price" json:"price"`
	Frequency   int     `db:"frequency" json:"frequency"`
	MaxServers  int     `db:"max_servers" json:"max_servers"`
	MaxUsers    int     `db:"max_users" json:"max_users"`
	MaxProjects int     `db:"max_projects" json:"max_projects"`
	Description string  `db:"description" json:"description"`
}

type Server struct {
	ID          string    `db:"id" json:"id"`
	ProjectID   string    `db:"project_id" json:"project_id"`
	Name        string    `db:"name" json:"name"`
	Host        string    `db:"host" json:"host"`
	Port        int       `db:"port" json:"port"`
	Description string    `db:"description" json:"description"`
	Token       string    `db:"token" json:"-"`
	Status      string    `db:"status" json:"status"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Member is a membership joined with its user and role names, as returned to
// clients. The owner appears here with the Owner role even though no
// membership row exists.
type Member struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	RoleID   int64  `json:"project_role_id"`
	RoleName string `json:"role_name"`
	IsOwner  bool   `json:"is_owner"`
}
