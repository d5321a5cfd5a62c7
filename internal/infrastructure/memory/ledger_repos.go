package memory

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

var (
	_ repository.MovementRepository       = (*MovementRepo)(nil)
	_ repository.BalanceRepository        = (*BalanceRepo)(nil)
	_ repository.ValuationLayerRepository = (*ValuationLayerRepo)(nil)
	_ repository.SettingsRepository       = (*SettingsRepo)(nil)
	_ repository.SequenceRepository       = (*SequenceRepo)(nil)
)

// MovementRepo kardex en memoria.
type MovementRepo struct {
	s    *Store
	inTx bool
}

// NewMovementRepository adaptador fuera de transacción (modo pool).
func NewMovementRepository(s *Store) *MovementRepo { return &MovementRepo{s: s} }

// Create asigna LedgerSeq en orden de inserción, igual que el BIGSERIAL.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.IdempotencyKey != "" {
		for _, prev := range r.s.movements {
			if prev.TenantID == m.TenantID && prev.IdempotencyKey == m.IdempotencyKey {
				return domain.ErrDuplicate
			}
		}
	}
	m.LedgerSeq = r.s.nextSeq
	r.s.nextSeq++
	cp := *m
	r.s.movements = append(r.s.movements, &cp)
	return nil
}

func (r *MovementRepo) GetByIdempotencyKey(ctx context.Context, tenantID, key string) (*entity.Movement, error) {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	for _, m := range r.s.movements {
		if m.TenantID == tenantID && m.IdempotencyKey == key {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MovementRepo) List(ctx context.Context, tenantID string, f repository.MovementFilter) ([]*entity.Movement, error) {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	var all []*entity.Movement
	for _, m := range r.s.movements {
		if m.TenantID != tenantID || m.ProductID != f.ProductID {
			continue
		}
		if f.LocationID != "" && m.LocationID != f.LocationID {
			continue
		}
		if f.From != nil && m.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !m.CreatedAt.Before(*f.To) {
			continue
		}
		cp := *m
		all = append(all, &cp)
	}
	sortBySeq(all)
	if f.Offset >= len(all) {
		return nil, nil
	}
	all = all[f.Offset:]
	if f.Limit > 0 && len(all) > f.Limit {
		all = all[:f.Limit]
	}
	return all, nil
}

func (r *MovementRepo) ListForReplay(ctx context.Context, tenantID, productID, locationID string, asOf *time.Time) ([]*entity.Movement, error) {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	var all []*entity.Movement
	for _, m := range r.s.movements {
		if m.TenantID != tenantID || m.ProductID != productID || m.LocationID != locationID {
			continue
		}
		if asOf != nil && m.CreatedAt.After(*asOf) {
			continue
		}
		cp := *m
		all = append(all, &cp)
	}
	sortBySeq(all)
	return all, nil
}

func (r *MovementRepo) ListByProduct(ctx context.Context, tenantID, productID string) ([]*entity.Movement, error) {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	var all []*entity.Movement
	for _, m := range r.s.movements {
		if m.TenantID == tenantID && m.ProductID == productID {
			cp := *m
			all = append(all, &cp)
		}
	}
	sortBySeq(all)
	return all, nil
}

func sortBySeq(movs []*entity.Movement) {
	sort.Slice(movs, func(i, j int) bool { return movs[i].LedgerSeq < movs[j].LedgerSeq })
}

// BalanceRepo proyección de existencias en memoria.
type BalanceRepo struct {
	s    *Store
	inTx bool
}

// NewBalanceRepository adaptador fuera de transacción (modo pool).
func NewBalanceRepository(s *Store) *BalanceRepo { return &BalanceRepo{s: s} }

func (r *BalanceRepo) Get(ctx context.Context, tenantID, productID, locationID string) (*entity.Balance, error) {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	return r.get(tenantID, productID, locationID), nil
}

// GetForUpdate en memoria no hay lock de fila: el TxRunner serializa todo.
func (r *BalanceRepo) GetForUpdate(ctx context.Context, tenantID, productID, locationID string) (*entity.Balance, error) {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	return r.get(tenantID, productID, locationID), nil
}

func (r *BalanceRepo) get(tenantID, productID, locationID string) *entity.Balance {
	if b, ok := r.s.balances[key3(tenantID, productID, locationID)]; ok {
		cp := *b
		return &cp
	}
	return &entity.Balance{
		TenantID:   tenantID,
		ProductID:  productID,
		LocationID: locationID,
		Quantity:   decimal.Zero,
	}
}

func (r *BalanceRepo) Upsert(ctx context.Context, b *entity.Balance) error {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	cp := *b
	r.s.balances[key3(b.TenantID, b.ProductID, b.LocationID)] = &cp
	return nil
}

func (r *BalanceRepo) ListByTenant(ctx context.Context, tenantID string) ([]*entity.Balance, error) {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	var list []*entity.Balance
	for _, b := range r.s.balances {
		if b.TenantID == tenantID {
			cp := *b
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].ProductID != list[j].ProductID {
			return list[i].ProductID < list[j].ProductID
		}
		return list[i].LocationID < list[j].LocationID
	})
	return list, nil
}

// ValuationLayerRepo lotes de costo en memoria.
type ValuationLayerRepo struct {
	s    *Store
	inTx bool
}

// NewValuationLayerRepository adaptador fuera de transacción (modo pool).
func NewValuationLayerRepository(s *Store) *ValuationLayerRepo { return &ValuationLayerRepo{s: s} }

// LockProduct en memoria no necesita lock adicional: el TxRunner serializa
// todas las transacciones bajo el mutex del store.
func (r *ValuationLayerRepo) LockProduct(ctx context.Context, tenantID, productID string) error {
	return nil
}

func (r *ValuationLayerRepo) List(ctx context.Context, tenantID, productID string) ([]entity.ValuationLayer, error) {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	return append([]entity.ValuationLayer(nil), r.s.layers[key2(tenantID, productID)]...), nil
}

func (r *ValuationLayerRepo) ListForUpdate(ctx context.Context, tenantID, productID string) ([]entity.ValuationLayer, error) {
	return r.List(ctx, tenantID, productID)
}

func (r *ValuationLayerRepo) Replace(ctx context.Context, tenantID, productID string, layers []entity.ValuationLayer) error {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	cp := make([]entity.ValuationLayer, len(layers))
	for i, l := range layers {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		if l.TenantID == "" {
			l.TenantID = tenantID
		}
		if l.ProductID == "" {
			l.ProductID = productID
		}
		cp[i] = l
	}
	r.s.layers[key2(tenantID, productID)] = cp
	return nil
}

func (r *ValuationLayerRepo) ListProductsWithLayers(ctx context.Context, tenantID string) ([]string, error) {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	var ids []string
	for _, layers := range r.s.layers {
		if len(layers) > 0 && layers[0].TenantID == tenantID {
			ids = append(ids, layers[0].ProductID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// SettingsRepo parámetros de valoración por tenant en memoria.
type SettingsRepo struct {
	s    *Store
	inTx bool
}

// NewSettingsRepository adaptador fuera de transacción (modo pool).
func NewSettingsRepository(s *Store) *SettingsRepo { return &SettingsRepo{s: s} }

func (r *SettingsRepo) Get(ctx context.Context, tenantID string) (*entity.TenantSettings, error) {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	if s, ok := r.s.settings[tenantID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (r *SettingsRepo) Upsert(ctx context.Context, s *entity.TenantSettings) error {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	cp := *s
	r.s.settings[s.TenantID] = &cp
	return nil
}

// SequenceRepo contadores de consecutivos en memoria.
type SequenceRepo struct {
	s    *Store
	inTx bool
}

// NewSequenceRepository adaptador fuera de transacción (modo pool).
func NewSequenceRepository(s *Store) *SequenceRepo { return &SequenceRepo{s: s} }

// Next misma semántica que el upsert atómico de PostgreSQL.
func (r *SequenceRepo) Next(ctx context.Context, tenantID, scopeKey string, start int64) (int64, error) {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	k := key2(tenantID, scopeKey)
	c, ok := r.s.counters[k]
	if !ok {
		c = &entity.SequenceCounter{TenantID: tenantID, ScopeKey: scopeKey, CurrentValue: start}
		r.s.counters[k] = c
	} else {
		c.CurrentValue++
	}
	c.UpdatedAt = time.Now()
	return c.CurrentValue, nil
}

func (r *SequenceRepo) Current(ctx context.Context, tenantID, scopeKey string) (int64, error) {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	if c, ok := r.s.counters[key2(tenantID, scopeKey)]; ok {
		return c.CurrentValue, nil
	}
	return 0, nil
}

func (r *SequenceRepo) CreateDocumentNumber(ctx context.Context, n *entity.DocumentNumber) error {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	k := numberKey(n.TenantID, n.ScopeKey, n.Value)
	if _, exists := r.s.numbers[k]; exists {
		return domain.ErrDuplicate
	}
	cp := *n
	r.s.numbers[k] = &cp
	return nil
}

func (r *SequenceRepo) UpdateDocumentNumberStatus(ctx context.Context, tenantID, scopeKey string, value int64, status string) error {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	n, ok := r.s.numbers[numberKey(tenantID, scopeKey, value)]
	if !ok {
		return domain.ErrNotFound
	}
	n.Status = status
	n.UpdatedAt = time.Now()
	return nil
}

func numberKey(tenantID, scopeKey string, value int64) string {
	return key3(tenantID, scopeKey, strconv.FormatInt(value, 10))
}
