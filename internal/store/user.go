package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateUserParams represents parameters for creating a user
type CreateUserParams struct {
	Email          string
	HashedPassword string
	Name           string
	Plan           string
}

const userColumns = `id, email, hashed_password, name, plan, created_at, updated_at`

const sqlCreateUser = `
INSERT INTO users (email, hashed_password, name, plan)
VALUES ($1, $2, $3, $4)
RETURNING ` + userColumns

// CreateUser creates a new user account
func (s *Store) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, sqlCreateUser,
		params.Email,
		params.HashedPassword,
		params.Name,
		params.Plan)
	if err != nil {
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

const sqlGetUserByID = `
SELECT ` + userColumns + `
FROM users
WHERE id = $1
`

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, userID uuid.UUID) (User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, sqlGetUserByID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

const sqlGetUserByEmail = `
SELECT ` + userColumns + `
FROM users
WHERE email = $1
`

// GetUserByEmail retrieves a user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, sqlGetUserByEmail, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

const sqlCheckIfEmailExists = `
SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)
`

// CheckIfEmailExists reports whether a user already exists with the email
func (s *Store) CheckIfEmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, sqlCheckIfEmailExists, email)
	if err != nil {
		return false, fmt.Errorf("failed to check if email exists: %w", err)
	}
	return exists, nil
}
