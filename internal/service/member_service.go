package service

import (
	"context"

	"diligence-tracker/internal/cache"
	"diligence-tracker/internal/model"
	"diligence-tracker/internal/repository"
)

// MemberService exposes the read-mostly team directory.
type MemberService struct {
	repo  *repository.MemberRepository
	cache *cache.QueryCache
}

func NewMemberService(repo *repository.MemberRepository, qc *cache.QueryCache) *MemberService {
	return &MemberService{repo: repo, cache: qc}
}

func (s *MemberService) List(ctx context.Context) ([]model.TeamMember, error) {
	return cache.Load(ctx, s.cache, keyMembers, s.repo.ListAll)
}

func (s *MemberService) Create(ctx context.Context, m *model.TeamMember) error {
	if m.Email == "" {
		return invalid("email is required")
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return err
	}
	s.cache.Invalidate(keyMembers)
	return nil
}

func (s *MemberService) FindByTelegramID(ctx context.Context, telegramID int64) (*model.TeamMember, error) {
	m, err := s.repo.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, notFound(err, "member")
	}
	return m, nil
}

// LinkTelegram connects a chat account to the member with the given email.
func (s *MemberService) LinkTelegram(ctx context.Context, email string, telegramID int64) (*model.TeamMember, error) {
	m, err := s.repo.LinkTelegram(ctx, email, telegramID)
	if err != nil {
		return nil, notFound(err, "member")
	}
	s.cache.Invalidate(keyMembers)
	return m, nil
}

// Names resolves ids to display names. Unknown ids are skipped.
func (s *MemberService) Names(ctx context.Context, ids []uint) ([]string, error) {
	members, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]model.TeamMember, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			names = append(names, m.DisplayName())
		}
	}
	return names, nil
}
