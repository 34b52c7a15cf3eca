// Package memory provides the in-memory implementation of the inventory
// persistence store. It backs tests and ephemeral deployments and is embedded
// by the durable sqlite and postgres stores.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"inventorycore/pkg/domain"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Product aliases domain.Product for in-memory persistence operations.
	Product = domain.Product
	// RawMaterial aliases domain.RawMaterial.
	RawMaterial = domain.RawMaterial
	// MaterialUsage aliases domain.MaterialUsage.
	MaterialUsage = domain.MaterialUsage
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type usagePair struct {
	productID     int64
	rawMaterialID int64
}

// Sequences holds the last id handed out per entity. Ids are never reused.
type Sequences struct {
	Product       int64 `json:"product"`
	RawMaterial   int64 `json:"raw_material"`
	MaterialUsage int64 `json:"material_usage"`
}

type memoryState struct {
	products  map[int64]Product
	materials map[int64]RawMaterial
	usages    map[int64]MaterialUsage

	productCodes         map[string]int64
	productNames         map[string]int64
	materialCodes        map[string]int64
	materialDescriptions map[string]int64
	usagePairs           map[usagePair]int64

	seq Sequences
}

// Snapshot captures a point-in-time copy of the store state. Collections are ordered by id.
type Snapshot struct {
	Products       []Product       `json:"products"`
	RawMaterials   []RawMaterial   `json:"raw_materials"`
	MaterialUsages []MaterialUsage `json:"material_usages"`
	Sequences      Sequences       `json:"sequences"`
}

func newMemoryState() memoryState {
	return memoryState{
		products:             make(map[int64]Product),
		materials:            make(map[int64]RawMaterial),
		usages:               make(map[int64]MaterialUsage),
		productCodes:         make(map[string]int64),
		productNames:         make(map[string]int64),
		materialCodes:        make(map[string]int64),
		materialDescriptions: make(map[string]int64),
		usagePairs:           make(map[usagePair]int64),
	}
}

func (s memoryState) clone() memoryState {
	c := memoryState{
		products:             make(map[int64]Product, len(s.products)),
		materials:            make(map[int64]RawMaterial, len(s.materials)),
		usages:               make(map[int64]MaterialUsage, len(s.usages)),
		productCodes:         make(map[string]int64, len(s.productCodes)),
		productNames:         make(map[string]int64, len(s.productNames)),
		materialCodes:        make(map[string]int64, len(s.materialCodes)),
		materialDescriptions: make(map[string]int64, len(s.materialDescriptions)),
		usagePairs:           make(map[usagePair]int64, len(s.usagePairs)),
		seq:                  s.seq,
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.materials {
		c.materials[k] = v
	}
	for k, v := range s.usages {
		c.usages[k] = v
	}
	for k, v := range s.productCodes {
		c.productCodes[k] = v
	}
	for k, v := range s.productNames {
		c.productNames[k] = v
	}
	for k, v := range s.materialCodes {
		c.materialCodes[k] = v
	}
	for k, v := range s.materialDescriptions {
		c.materialDescriptions[k] = v
	}
	for k, v := range s.usagePairs {
		c.usagePairs[k] = v
	}
	return c
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	return Snapshot{
		Products:       sortedValues(state.products, func(p Product) int64 { return p.ID }),
		RawMaterials:   sortedValues(state.materials, func(m RawMaterial) int64 { return m.ID }),
		MaterialUsages: sortedValues(state.usages, func(u MaterialUsage) int64 { return u.ID }),
		Sequences:      state.seq,
	}
}

// memoryStateFromSnapshot rebuilds the indexes from a snapshot. Records that
// would break an invariant are dropped with the lowest id winning; sequences
// still advance past every id seen.
func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	state.seq = s.Sequences

	products := append([]Product(nil), s.Products...)
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	for _, p := range products {
		if p.ID <= 0 {
			continue
		}
		state.seq.Product = max(state.seq.Product, p.ID)
		if _, dup := state.products[p.ID]; dup || state.productCodes[p.CodeKey()] != 0 || state.productNames[p.NameKey()] != 0 {
			continue
		}
		state.products[p.ID] = p
		state.indexProduct(p)
	}

	materials := append([]RawMaterial(nil), s.RawMaterials...)
	sort.Slice(materials, func(i, j int) bool { return materials[i].ID < materials[j].ID })
	for _, m := range materials {
		if m.ID <= 0 {
			continue
		}
		state.seq.RawMaterial = max(state.seq.RawMaterial, m.ID)
		if _, dup := state.materials[m.ID]; dup || state.materialCodes[m.CodeKey()] != 0 || state.materialDescriptions[m.DescriptionKey()] != 0 {
			continue
		}
		state.materials[m.ID] = m
		state.indexRawMaterial(m)
	}

	usages := append([]MaterialUsage(nil), s.MaterialUsages...)
	sort.Slice(usages, func(i, j int) bool { return usages[i].ID < usages[j].ID })
	for _, u := range usages {
		if u.ID <= 0 {
			continue
		}
		state.seq.MaterialUsage = max(state.seq.MaterialUsage, u.ID)
		if u.ConsumptionPerUnit <= 0 {
			continue
		}
		if _, ok := state.products[u.ProductID]; !ok {
			continue
		}
		if _, ok := state.materials[u.RawMaterialID]; !ok {
			continue
		}
		pair := usagePair{productID: u.ProductID, rawMaterialID: u.RawMaterialID}
		if _, dup := state.usagePairs[pair]; dup {
			continue
		}
		if _, dup := state.usages[u.ID]; dup {
			continue
		}
		state.usages[u.ID] = u
		state.usagePairs[pair] = u.ID
	}
	return state
}

func (s *memoryState) indexProduct(p Product) {
	s.productCodes[p.CodeKey()] = p.ID
	s.productNames[p.NameKey()] = p.ID
}

func (s *memoryState) unindexProduct(p Product) {
	delete(s.productCodes, p.CodeKey())
	delete(s.productNames, p.NameKey())
}

func (s *memoryState) indexRawMaterial(m RawMaterial) {
	s.materialCodes[m.CodeKey()] = m.ID
	s.materialDescriptions[m.DescriptionKey()] = m.ID
}

func (s *memoryState) unindexRawMaterial(m RawMaterial) {
	delete(s.materialCodes, m.CodeKey())
	delete(s.materialDescriptions, m.DescriptionKey())
}

func sortedValues[T any](in map[int64]T, id func(T) int64) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return id(out[i]) < id(out[j]) })
	return out
}

// CommitHook runs inside the commit critical section with the post-transaction
// snapshot. A hook error aborts the commit and leaves the store unchanged.
type CommitHook func(ctx context.Context, snapshot Snapshot) error

// Store is a single-writer transactional store. Committed state is never
// mutated in place: transactions work on a clone that replaces the committed
// state only after rules and the commit hook succeed.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	hook   CommitHook
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
	}
}

// SetCommitHook installs the hook invoked before each commit.
func (s *Store) SetCommitHook(hook CommitHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
}

// ExportState copies the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	state := memoryStateFromSnapshot(snapshot)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// RunInTransaction executes fn against a private copy of the state while
// holding the writer lock. Rules run over the recorded changes; blocking
// violations, fn errors, and hook errors discard the copy.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	tx := &transaction{state: s.state.clone()}
	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	if s.hook != nil && len(tx.changes) > 0 {
		if err := s.hook(ctx, snapshotFromMemoryState(tx.state)); err != nil {
			return result, fmt.Errorf("commit: %w", err)
		}
	}

	s.state = tx.state
	return result, nil
}

// View runs fn against the committed state as of the call.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()
	return fn(newTransactionView(&state))
}

// ListProducts returns all committed products ordered by id.
func (s *Store) ListProducts() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.state.products, func(p Product) int64 { return p.ID })
}

// ListRawMaterials returns all committed raw materials ordered by id.
func (s *Store) ListRawMaterials() []RawMaterial {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.state.materials, func(m RawMaterial) int64 { return m.ID })
}

// ListMaterialUsages returns all committed BOM edges ordered by id.
func (s *Store) ListMaterialUsages() []MaterialUsage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.state.usages, func(u MaterialUsage) int64 { return u.ID })
}

func trimProduct(p *Product) {
	p.Code = strings.TrimSpace(p.Code)
	p.Name = strings.TrimSpace(p.Name)
}

func trimRawMaterial(m *RawMaterial) {
	m.Code = strings.TrimSpace(m.Code)
	m.Description = strings.TrimSpace(m.Description)
}
