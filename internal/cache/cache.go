package cache

import (
	"context"
	"time"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/domain"
)

// MemberCache fronts member lookups made while ringing up a sale. Members only
// supply a display label, so a short TTL is enough.
type MemberCache interface {
	Get(ctx context.Context, code string) (*domain.Member, bool, error)
	Set(ctx context.Context, member *domain.Member, ttl time.Duration) error
	Delete(ctx context.Context, code string) error
}

type NoopMemberCache struct{}

func (NoopMemberCache) Get(_ context.Context, _ string) (*domain.Member, bool, error) {
	return nil, false, nil
}

func (NoopMemberCache) Set(_ context.Context, _ *domain.Member, _ time.Duration) error {
	return nil
}

func (NoopMemberCache) Delete(_ context.Context, _ string) error {
	return nil
}
