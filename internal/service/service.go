package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/cache"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/domain"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/events"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/store"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/xid"
)

const (
	saleInvoicePrefix     = "INV"
	purchaseInvoicePrefix = "PUR"

	defaultListLimit = 50
	maxListLimit     = 500
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

func actorOrSystem(ctx context.Context) domain.Actor {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Username == "" {
		return domain.Actor{Username: "system", Role: "system"}
	}
	return actor
}

type Service struct {
	repo      store.Repository
	members   cache.MemberCache
	memberTTL time.Duration
	publisher events.Publisher
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
	loc       *time.Location
}

type Option func(*Service)

// WithClock replaces time.Now; invoice prefixes and default dates use it.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the business timezone used for invoice day prefixes.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithMemberCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.memberTTL = ttl
		}
	}
}

func New(repo store.Repository, memberCache cache.MemberCache, publisher events.Publisher, logger *zap.Logger, opts ...Option) *Service {
	if memberCache == nil {
		memberCache = cache.NoopMemberCache{}
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		repo:      repo,
		members:   memberCache,
		memberTTL: 5 * time.Minute,
		publisher: publisher,
		logger:    logger.Named("service"),
		tracer:    otel.Tracer("github.com/WilsonKusmayady/mini-POS-sub000/internal/service"),
		now:       time.Now,
		loc:       time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// dayPrefix renders e.g. INV250314 for the business-local date of at.
func (s *Service) dayPrefix(prefix string, at time.Time) string {
	return prefix + at.In(s.loc).Format("060102")
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail any) {
	actor := actorOrSystem(ctx)

	raw, err := json.Marshal(detail)
	if err != nil {
		raw = []byte("{}")
	}
	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        string(raw),
		CreatedAt:     s.now().UTC(),
	}); err != nil {
		s.logger.Warn("write audit log failed",
			zap.String("action", action),
			zap.String("entity", entityType+"/"+entityID),
			zap.Error(err),
		)
	}
}

func (s *Service) publish(ctx context.Context, eventType string, key string, payload any) {
	evt := events.New(eventType, key, actorOrSystem(ctx).Username, payload)
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("publish event failed",
			zap.String("type", eventType),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func clampLimit(limit int) int {
	if limit < 1 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func (s *Service) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if to.IsZero() {
		to = s.now().UTC().Add(time.Second)
	}
	if from.IsZero() {
		from = to.Add(-7 * 24 * time.Hour)
	}
	if !from.Before(to) {
		return nil, store.Invalid("from must be before to")
	}
	return s.repo.ListAuditLogs(ctx, from, to, clampLimit(limit))
}
