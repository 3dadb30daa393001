package postgres

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
	"github.com/aussiebroadwan/forum/internal/forum/store"
)

type usersRepo struct {
	q *queries
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row, err := r.q.GetUserByUsername(ctx, username)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row, err := r.q.GetUserByEmail(ctx, email)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	err := r.q.CreateUser(ctx, userRow{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
	})
	if err != nil {
		return mapConflict(err)
	}
	return nil
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, username, newHash string) error {
	n, err := r.q.UpdateUserPasswordHash(ctx, username, newHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) ReplacePasswordHash(ctx context.Context, username, oldHash, newHash string) (bool, error) {
	n, err := r.q.ReplaceUserPasswordHash(ctx, username, oldHash, newHash)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}
