package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/telecare/telecare/internal/domain"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert registers a user or refreshes an existing registration keyed
// by mobile number.
func (r *UserRepository) Upsert(ctx context.Context, u *domain.User) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "mobile"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "age", "dob", "gender", "address", "state", "hidn", "hid", "updated_at",
		}),
	}).Create(u).Error
	if err != nil {
		return fmt.Errorf("upserting user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByMobile(ctx context.Context, mobile string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Where("mobile = ?", mobile).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("fetching user by mobile: %w", err)
	}
	return &u, nil
}
