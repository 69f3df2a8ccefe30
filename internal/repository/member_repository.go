package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"diligence-tracker/internal/model"
)

// MemberRepository handles team member profiles.
type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) Create(ctx context.Context, m *model.TeamMember) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

func (r *MemberRepository) FindByID(ctx context.Context, id uint) (*model.TeamMember, error) {
	var m model.TeamMember
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*model.TeamMember, error) {
	var m model.TeamMember
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// LinkTelegram attaches a Telegram account to the member with the given email.
func (r *MemberRepository) LinkTelegram(ctx context.Context, email string, telegramID int64) (*model.TeamMember, error) {
	var m model.TeamMember
	db := r.db.WithContext(ctx)
	if err := db.Where("email = ?", email).First(&m).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&m).Update("telegram_id", telegramID).Error; err != nil {
		return nil, fmt.Errorf("link telegram: %w", err)
	}
	m.TelegramID = &telegramID
	return &m, nil
}

func (r *MemberRepository) ListAll(ctx context.Context) ([]model.TeamMember, error) {
	var members []model.TeamMember
	if err := r.db.WithContext(ctx).Order("last_name ASC, first_name ASC").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
