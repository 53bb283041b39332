package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/domain"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/store"
)

const memberColumns = `code, name, phone, active, created_at, updated_at`

func (s *Store) ListMembers(ctx context.Context) ([]domain.Member, error) {
	members := make([]domain.Member, 0, 32)
	if err := s.db.SelectContext(ctx, &members, `SELECT `+memberColumns+` FROM members ORDER BY code`); err != nil {
		return nil, err
	}
	return members, nil
}

func (s *Store) GetMember(ctx context.Context, code string) (*domain.Member, error) {
	var m domain.Member
	err := s.db.GetContext(ctx, &m, `SELECT `+memberColumns+` FROM members WHERE code = $1`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFound("Member not found")
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) CreateMember(ctx context.Context, member domain.Member) (*domain.Member, error) {
	var created domain.Member
	err := s.db.GetContext(ctx, &created, `
		INSERT INTO members (code, name, phone, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING `+memberColumns,
		member.Code, member.Name, member.Phone, member.Active)
	if isUniqueViolation(err) {
		return nil, store.Conflict("Member code already exists")
	}
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Store) UpdateMember(ctx context.Context, member domain.Member) (*domain.Member, error) {
	var updated domain.Member
	err := s.db.GetContext(ctx, &updated, `
		UPDATE members
		SET name = $2, phone = $3, active = $4, updated_at = now()
		WHERE code = $1
		RETURNING `+memberColumns,
		member.Code, member.Name, member.Phone, member.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFound("Member not found")
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
