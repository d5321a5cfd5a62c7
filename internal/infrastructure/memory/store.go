package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Kardex-api/internal/application/ledger"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// Store backend en memoria para desarrollo y pruebas. Implementa los mismos
// puertos que el adaptador de PostgreSQL con la misma semántica transaccional:
// el TxRunner serializa las escrituras y revierte por snapshot si fn falla.
type Store struct {
	mu sync.Mutex

	movements []*entity.Movement
	nextSeq   int64

	balances  map[string]*entity.Balance              // tenant|product|location
	layers    map[string][]entity.ValuationLayer      // tenant|product
	settings  map[string]*entity.TenantSettings       // tenant
	counters  map[string]*entity.SequenceCounter      // tenant|scope
	numbers   map[string]*entity.DocumentNumber       // tenant|scope|value
	documents map[string]*entity.Document             // tenant|id
	lines     map[string][]*entity.DocumentLine       // tenant|documentID
	payments  map[string][]*entity.Payment            // tenant|documentID
	recons    map[string]*entity.ReconciliationRecord // tenant|id
	products  map[string]*entity.Product              // tenant|id
	locations map[string]*entity.Location             // tenant|id
}

// NewStore construye el backend vacío.
func NewStore() *Store {
	return &Store{
		nextSeq:   1,
		balances:  make(map[string]*entity.Balance),
		layers:    make(map[string][]entity.ValuationLayer),
		settings:  make(map[string]*entity.TenantSettings),
		counters:  make(map[string]*entity.SequenceCounter),
		numbers:   make(map[string]*entity.DocumentNumber),
		documents: make(map[string]*entity.Document),
		lines:     make(map[string][]*entity.DocumentLine),
		payments:  make(map[string][]*entity.Payment),
		recons:    make(map[string]*entity.ReconciliationRecord),
		products:  make(map[string]*entity.Product),
		locations: make(map[string]*entity.Location),
	}
}

func key2(a, b string) string    { return a + "|" + b }
func key3(a, b, c string) string { return a + "|" + b + "|" + c }

// Repos repos atados al store (pool y tx son el mismo objeto en memoria).
func (s *Store) Repos() ledger.Repos {
	return ledger.Repos{
		Movements:       &MovementRepo{s: s},
		Balances:        &BalanceRepo{s: s},
		Layers:          &ValuationLayerRepo{s: s},
		Sequences:       &SequenceRepo{s: s},
		Documents:       &DocumentRepo{s: s},
		Reconciliations: &ReconciliationRepo{s: s},
		Settings:        &SettingsRepo{s: s},
	}
}

// TxRunner transacciones sobre el store: lock global + snapshot para rollback.
// Serializa todas las escrituras, suficiente para desarrollo y pruebas.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner sobre el store.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

var _ ledger.TxRunner = (*TxRunner)(nil)

// Run toma el lock, fotografía el estado y ejecuta fn; si fn falla restaura
// el snapshot (rollback). fn ve repos sin lock propio para evitar deadlock.
func (r *TxRunner) Run(ctx context.Context, fn func(repos ledger.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	snap := r.s.snapshot()
	repos := ledger.Repos{
		Movements:       &MovementRepo{s: r.s, inTx: true},
		Balances:        &BalanceRepo{s: r.s, inTx: true},
		Layers:          &ValuationLayerRepo{s: r.s, inTx: true},
		Sequences:       &SequenceRepo{s: r.s, inTx: true},
		Documents:       &DocumentRepo{s: r.s, inTx: true},
		Reconciliations: &ReconciliationRepo{s: r.s, inTx: true},
		Settings:        &SettingsRepo{s: r.s, inTx: true},
	}
	if err := fn(repos); err != nil {
		r.s.restore(snap)
		return err
	}
	return nil
}

type storeSnapshot struct {
	movements []*entity.Movement
	nextSeq   int64
	balances  map[string]*entity.Balance
	layers    map[string][]entity.ValuationLayer
	settings  map[string]*entity.TenantSettings
	counters  map[string]*entity.SequenceCounter
	numbers   map[string]*entity.DocumentNumber
	documents map[string]*entity.Document
	lines     map[string][]*entity.DocumentLine
	payments  map[string][]*entity.Payment
	recons    map[string]*entity.ReconciliationRecord
	products  map[string]*entity.Product
	locations map[string]*entity.Location
}

// snapshot copia profunda del estado mutable. Llamar con el lock tomado.
func (s *Store) snapshot() storeSnapshot {
	snap := storeSnapshot{
		movements: make([]*entity.Movement, len(s.movements)),
		nextSeq:   s.nextSeq,
		balances:  make(map[string]*entity.Balance, len(s.balances)),
		layers:    make(map[string][]entity.ValuationLayer, len(s.layers)),
		settings:  make(map[string]*entity.TenantSettings, len(s.settings)),
		counters:  make(map[string]*entity.SequenceCounter, len(s.counters)),
		numbers:   make(map[string]*entity.DocumentNumber, len(s.numbers)),
		documents: make(map[string]*entity.Document, len(s.documents)),
		lines:     make(map[string][]*entity.DocumentLine, len(s.lines)),
		payments:  make(map[string][]*entity.Payment, len(s.payments)),
		recons:    make(map[string]*entity.ReconciliationRecord, len(s.recons)),
		products:  make(map[string]*entity.Product, len(s.products)),
		locations: make(map[string]*entity.Location, len(s.locations)),
	}
	for i, m := range s.movements {
		cp := *m
		snap.movements[i] = &cp
	}
	for k, v := range s.balances {
		cp := *v
		snap.balances[k] = &cp
	}
	for k, v := range s.layers {
		snap.layers[k] = append([]entity.ValuationLayer(nil), v...)
	}
	for k, v := range s.settings {
		cp := *v
		snap.settings[k] = &cp
	}
	for k, v := range s.counters {
		cp := *v
		snap.counters[k] = &cp
	}
	for k, v := range s.numbers {
		cp := *v
		snap.numbers[k] = &cp
	}
	for k, v := range s.documents {
		cp := *v
		snap.documents[k] = &cp
	}
	for k, v := range s.lines {
		ls := make([]*entity.DocumentLine, len(v))
		for i, l := range v {
			cp := *l
			ls[i] = &cp
		}
		snap.lines[k] = ls
	}
	for k, v := range s.payments {
		ps := make([]*entity.Payment, len(v))
		for i, p := range v {
			cp := *p
			ps[i] = &cp
		}
		snap.payments[k] = ps
	}
	for k, v := range s.recons {
		cp := *v
		snap.recons[k] = &cp
	}
	for k, v := range s.products {
		cp := *v
		snap.products[k] = &cp
	}
	for k, v := range s.locations {
		cp := *v
		snap.locations[k] = &cp
	}
	return snap
}

// restore repone el snapshot (rollback). Llamar con el lock tomado.
func (s *Store) restore(snap storeSnapshot) {
	s.movements = snap.movements
	s.nextSeq = snap.nextSeq
	s.balances = snap.balances
	s.layers = snap.layers
	s.settings = snap.settings
	s.counters = snap.counters
	s.numbers = snap.numbers
	s.documents = snap.documents
	s.lines = snap.lines
	s.payments = snap.payments
	s.recons = snap.recons
	s.products = snap.products
	s.locations = snap.locations
}

// lock toma el lock del store salvo dentro de una transacción (el TxRunner ya
// lo sostiene). unlock es el par simétrico.
func (s *Store) lock(inTx bool) {
	if !inTx {
		s.mu.Lock()
	}
}

func (s *Store) unlock(inTx bool) {
	if !inTx {
		s.mu.Unlock()
	}
}
