package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/domain"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/store"
)

func (s *Service) ListMembers(ctx context.Context) ([]domain.Member, error) {
	return s.repo.ListMembers(ctx)
}

func (s *Service) GetMember(ctx context.Context, code string) (domain.Member, error) {
	member, err := s.repo.GetMember(ctx, normalizeCode(code))
	if err != nil {
		return domain.Member{}, err
	}
	return *member, nil
}

func (s *Service) CreateMember(ctx context.Context, req domain.MemberCreateRequest) (domain.Member, error) {
	code := normalizeCode(req.Code)
	name := strings.TrimSpace(req.Name)
	if code == "" {
		return domain.Member{}, store.Invalid("Member code is required")
	}
	if name == "" {
		return domain.Member{}, store.Invalid("Member name is required")
	}

	created, err := s.repo.CreateMember(ctx, domain.Member{
		Code:   code,
		Name:   name,
		Phone:  strings.TrimSpace(req.Phone),
		Active: true,
	})
	if err != nil {
		return domain.Member{}, err
	}
	s.logAudit(ctx, "member_create", "member", created.Code, map[string]any{"name": created.Name})
	return *created, nil
}

func (s *Service) UpdateMember(ctx context.Context, code string, req domain.MemberUpdateRequest) (domain.Member, error) {
	code = normalizeCode(code)
	member, err := s.repo.GetMember(ctx, code)
	if err != nil {
		return domain.Member{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Member{}, store.Invalid("Member name is required")
		}
		member.Name = name
	}
	if req.Phone != nil {
		member.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Active != nil {
		member.Active = *req.Active
	}

	updated, err := s.repo.UpdateMember(ctx, *member)
	if err != nil {
		return domain.Member{}, err
	}
	if err := s.members.Delete(ctx, updated.Code); err != nil {
		s.logger.Warn("invalidate member cache failed", zap.String("member", updated.Code), zap.Error(err))
	}
	s.logAudit(ctx, "member_update", "member", updated.Code, map[string]any{
		"name":   updated.Name,
		"active": updated.Active,
	})
	return *updated, nil
}

// lookupMember resolves an active member for a sale, going to the cache
// first. Cache errors fall through to the store.
func (s *Service) lookupMember(ctx context.Context, code string) (*domain.Member, error) {
	member, ok, err := s.members.Get(ctx, code)
	if err != nil {
		s.logger.Warn("member cache read failed", zap.String("member", code), zap.Error(err))
	}
	if !ok || member == nil {
		member, err = s.repo.GetMember(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.NotFound("Member not found")
		}
		if err != nil {
			return nil, err
		}
		if err := s.members.Set(ctx, member, s.memberTTL); err != nil {
			s.logger.Warn("member cache write failed", zap.String("member", code), zap.Error(err))
		}
	}
	if !member.Active {
		return nil, store.NotFound("Member not found")
	}
	return member, nil
}
