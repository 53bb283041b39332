package memory

import (
	"context"
	"log"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/domain"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/store"
)

// Store keeps everything behind one mutex. Operations that move stock project
// all movements first and only write when every one of them is valid, which
// gives the same all-or-nothing outcome as a database transaction.
type Store struct {
	mu         sync.RWMutex
	items      map[string]domain.Item
	members    map[string]domain.Member
	sales      map[string]*domain.Sale
	purchases  map[string]*domain.Purchase
	purchOrder []string
	sequences  map[string]int
	auditLogs  []domain.AuditLog
	users      map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		items:     make(map[string]domain.Item),
		members:   make(map[string]domain.Member),
		sales:     make(map[string]*domain.Sale),
		purchases: make(map[string]*domain.Purchase),
		sequences: make(map[string]int),
		auditLogs: make([]domain.AuditLog, 0, 128),
		users:     make(map[string]domain.UserAccount),
	}
}

// NewSeeded returns a store with demo items, members and the two default
// accounts. Blank passwords fall back to dev credentials.
func NewSeeded(adminPassword, cashierPassword string) *Store {
	s := New()
	now := time.Now().UTC()

	seedItems := []struct {
		code, name string
		sell, buy  int64
		stock      int
	}{
		{"BRG-MIE-01", "Mie Goreng Instan", 3500, 2800, 120},
		{"BRG-TELUR-01", "Telur 10 Butir", 26500, 23000, 60},
		{"BRG-SUSU-01", "Susu UHT 1L", 18900, 14500, 48},
		{"BRG-ROTI-01", "Roti Tawar", 17800, 12900, 30},
		{"BRG-KOPI-01", "Kopi Sachet", 2600, 1800, 200},
		{"BRG-GULA-01", "Gula 1kg", 17400, 15600, 80},
		{"BRG-AIR-01", "Air Mineral 600ml", 3900, 3100, 150},
		{"BRG-SABUN-01", "Sabun Mandi", 7400, 5200, 72},
	}
	for _, it := range seedItems {
		s.items[it.code] = domain.Item{
			Code:      it.code,
			Name:      it.name,
			SellPrice: decimal.NewFromInt(it.sell),
			BuyPrice:  decimal.NewFromInt(it.buy),
			Stock:     it.stock,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	for _, m := range []domain.Member{
		{Code: "MBR-0001", Name: "Siti Rahma", Phone: "081234567890"},
		{Code: "MBR-0002", Name: "Budi Santoso", Phone: "081298765432"},
	} {
		m.Active = true
		m.CreatedAt = now
		m.UpdatedAt = now
		s.members[m.Code] = m
	}

	s.users = seedUsers(now, adminPassword, cashierPassword)
	return s
}

func seedUsers(now time.Time, adminPwd, cashierPwd string) map[string]domain.UserAccount {
	if adminPwd == "" || cashierPwd == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	users := map[string]domain.UserAccount{}
	for _, u := range []struct{ username, password, role string }{
		{"admin", orDefault(adminPwd, "admin123"), domain.RoleAdmin},
		{"cashier", orDefault(cashierPwd, "cashier123"), domain.RoleCashier},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func (s *Store) ListItems(_ context.Context, includeInactive bool) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Item, 0, len(s.items))
	for _, item := range s.items {
		if !includeInactive && !item.Active {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) GetItem(_ context.Context, code string) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[code]
	if !ok {
		return nil, store.ItemNotFound(code)
	}
	return &item, nil
}

func (s *Store) GetItemsByCodes(_ context.Context, codes []string) (map[string]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.Item, len(codes))
	for _, code := range codes {
		if item, ok := s.items[code]; ok {
			out[code] = item
		}
	}
	return out, nil
}

func (s *Store) CreateItem(_ context.Context, item domain.Item) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[item.Code]; exists {
		return nil, store.Conflict("Item code already exists")
	}
	if item.Stock < 0 {
		return nil, store.Invalid("Stock must not be negative")
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	s.items[item.Code] = item
	return &item, nil
}

func (s *Store) UpdateItem(_ context.Context, item domain.Item) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[item.Code]
	if !ok {
		return nil, store.ItemNotFound(item.Code)
	}
	existing.Name = item.Name
	existing.SellPrice = item.SellPrice
	existing.BuyPrice = item.BuyPrice
	existing.Active = item.Active
	existing.UpdatedAt = time.Now().UTC()
	s.items[item.Code] = existing
	return &existing, nil
}

func (s *Store) IncreaseStock(_ context.Context, code string, qty int) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.applyMovementsLocked([]domain.StockMovement{{ItemCode: code, Delta: qty}}); err != nil {
		return nil, err
	}
	item := s.items[code]
	return &item, nil
}

func (s *Store) DecreaseStock(_ context.Context, code string, qty int) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.applyMovementsLocked([]domain.StockMovement{{ItemCode: code, Delta: -qty}}); err != nil {
		return nil, err
	}
	item := s.items[code]
	return &item, nil
}

// applyMovementsLocked validates movements in order against projected stock
// and writes them only when none would leave an item below zero.
func (s *Store) applyMovementsLocked(movements []domain.StockMovement) error {
	projected := make(map[string]int, len(movements))
	for _, mv := range movements {
		current, seen := projected[mv.ItemCode]
		if !seen {
			item, ok := s.items[mv.ItemCode]
			if !ok {
				return store.ItemNotFound(mv.ItemCode)
			}
			current = item.Stock
		}
		next := current + mv.Delta
		if next < 0 {
			return store.InsufficientStock(mv.ItemCode)
		}
		projected[mv.ItemCode] = next
	}

	now := time.Now().UTC()
	for code, stock := range projected {
		item := s.items[code]
		item.Stock = stock
		item.UpdatedAt = now
		s.items[code] = item
	}
	return nil
}

func (s *Store) nextSequenceLocked(prefix string) int {
	s.sequences[prefix]++
	return s.sequences[prefix]
}

func (s *Store) ListMembers(_ context.Context) ([]domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) GetMember(_ context.Context, code string) (*domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[code]
	if !ok {
		return nil, store.NotFound("Member not found")
	}
	return &m, nil
}

func (s *Store) CreateMember(_ context.Context, member domain.Member) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.members[member.Code]; exists {
		return nil, store.Conflict("Member code already exists")
	}
	now := time.Now().UTC()
	member.CreatedAt = now
	member.UpdatedAt = now
	s.members[member.Code] = member
	return &member, nil
}

func (s *Store) UpdateMember(_ context.Context, member domain.Member) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.members[member.Code]
	if !ok {
		return nil, store.NotFound("Member not found")
	}
	existing.Name = member.Name
	existing.Phone = member.Phone
	existing.Active = member.Active
	existing.UpdatedAt = time.Now().UTC()
	s.members[member.Code] = existing
	return &existing, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.AuditLog, 0, limit)
	for i := len(s.auditLogs) - 1; i >= 0 && len(out) < limit; i-- {
		entry := s.auditLogs[i]
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *Store) GetUser(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[strings.ToLower(username)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(user.Username)
	if _, exists := s.users[username]; exists {
		return store.Conflict("Username already exists")
	}
	user.Username = username
	s.users[username] = user
	return nil
}

func cloneSale(in *domain.Sale) *domain.Sale {
	out := *in
	out.Items = slices.Clone(in.Items)
	if in.CancelledAt != nil {
		at := *in.CancelledAt
		out.CancelledAt = &at
	}
	return &out
}

func clonePurchase(in *domain.Purchase) *domain.Purchase {
	out := *in
	out.Items = slices.Clone(in.Items)
	if in.DeactivatedAt != nil {
		at := *in.DeactivatedAt
		out.DeactivatedAt = &at
	}
	return &out
}
