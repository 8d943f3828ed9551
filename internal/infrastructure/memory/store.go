// Package memory implementa la cadena y los asientos en memoria con semántica transaccional:
// candado por empresa con tope de espera, cambios en staging que solo se aplican en el Commit
// y lecturas de solo lectura sobre una instantánea. Sirve para tests, demos y la CLI sin base de datos.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/jhoicas/Inalterable-api/internal/application/integrity"
	"github.com/jhoicas/Inalterable-api/internal/domain/chain"
	"github.com/jhoicas/Inalterable-api/internal/domain/entity"
)

var _ integrity.ChainTxRunner = (*Store)(nil)

// ErrReadOnly se devuelve al intentar escribir desde RunChainReadOnly.
var ErrReadOnly = errors.New("memory: transacción de solo lectura")

// DefaultLockTimeout es la espera máxima por el candado de una empresa.
const DefaultLockTimeout = 5 * time.Second

type recordKey struct {
	class string
	id    int64
}

type companyChain struct {
	last          int64
	bySeq         map[int64]chain.SealedRecord
	frozen        map[recordKey]int64
	blockedAt     *time.Time
	blockedReason string
}

// Store guarda el estado confirmado. Cada transacción trabaja sobre su propio staging.
type Store struct {
	mu          sync.Mutex
	lockTimeout time.Duration
	locks       map[string]chan struct{}
	chains      map[string]*companyChain

	companies   map[string]*entity.Company
	users       map[string]*entity.User
	entries     map[int64]*entity.JournalEntry
	nextEntryID int64
	nextLineID  int64
}

// Option ajusta el Store.
type Option func(*Store)

// WithLockTimeout cambia la espera máxima por el candado de empresa.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// NewStore crea un almacenamiento vacío.
func NewStore(opts ...Option) *Store {
	s := &Store{
		lockTimeout: DefaultLockTimeout,
		locks:       make(map[string]chan struct{}),
		chains:      make(map[string]*companyChain),
		companies:   make(map[string]*entity.Company),
		users:       make(map[string]*entity.User),
		entries:     make(map[int64]*entity.JournalEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunChain ejecuta fn en una transacción de lectura/escritura.
func (s *Store) RunChain(ctx context.Context, fn func(repo integrity.ChainRepository) error) error {
	t := s.begin(false)
	defer t.rollback()
	if err := fn(t); err != nil {
		return err
	}
	return t.commit(ctx)
}

// RunChainReadOnly ejecuta fn sin permitir escrituras.
func (s *Store) RunChainReadOnly(ctx context.Context, fn func(repo integrity.ChainRepository) error) error {
	t := s.begin(true)
	defer t.rollback()
	return fn(t)
}

// Delete simula el borrado de un registro sellado por un operador con privilegios.
// La cadena no lo impide; la verificación debe detectarlo.
func (s *Store) Delete(companyID string, seq int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chains[companyID]
	if !ok {
		return false
	}
	sr, ok := c.bySeq[seq]
	if !ok {
		return false
	}
	delete(c.bySeq, seq)
	delete(c.frozen, recordKey{class: sr.Record.ClassTag(), id: sr.Record.RecordID()})
	if e, ok := sr.Record.(*entity.JournalEntry); ok {
		delete(s.entries, e.ID)
	}
	return true
}

// OverwriteHash simula la reescritura directa del hash guardado de un registro.
func (s *Store) OverwriteHash(companyID string, seq int64, hash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chains[companyID]
	if !ok {
		return false
	}
	sr, ok := c.bySeq[seq]
	if !ok {
		return false
	}
	sr.Seal.Hash = hash
	c.bySeq[seq] = sr
	if sealable, ok := sr.Record.(interface{ SetSeal(chain.Seal) }); ok {
		sealable.SetSeal(sr.Seal)
	}
	return true
}

func (s *Store) chainFor(companyID string) *companyChain {
	c, ok := s.chains[companyID]
	if !ok {
		c = &companyChain{
			bySeq:  make(map[int64]chain.SealedRecord),
			frozen: make(map[recordKey]int64),
		}
		s.chains[companyID] = c
	}
	return c
}

func (s *Store) lockFor(companyID string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.locks[companyID]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[companyID] = ch
	}
	return ch
}

// ── Transacción ───────────────────────────────────────────────────────────────

type stagedSeal struct {
	companyID string
	rec       chain.HashableRecord
	seal      chain.Seal
}

type stagedBlock struct {
	blocked bool
	reason  string
	at      time.Time
}

type tx struct {
	store    *Store
	readOnly bool
	done     bool

	held     map[string]chan struct{}
	counters map[string]int64
	seals    []stagedSeal
	blocks   map[string]stagedBlock

	// entries son las copias leídas por la tx; dirty las que se escriben en el commit.
	entries map[int64]*entity.JournalEntry
	dirty   map[int64]*entity.JournalEntry
}

var _ integrity.ChainRepository = (*tx)(nil)

func (s *Store) begin(readOnly bool) *tx {
	return &tx{
		store:    s,
		readOnly: readOnly,
		held:     make(map[string]chan struct{}),
		counters: make(map[string]int64),
		blocks:   make(map[string]stagedBlock),
		entries:  make(map[int64]*entity.JournalEntry),
		dirty:    make(map[int64]*entity.JournalEntry),
	}
}

func (t *tx) lock(ctx context.Context, companyID string) error {
	if _, ok := t.held[companyID]; ok {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return &chain.SequenceError{Kind: chain.Conflict, CompanyID: companyID, Err: err}
	}
	ch := t.store.lockFor(companyID)
	timer := time.NewTimer(t.store.lockTimeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		t.held[companyID] = ch
		return nil
	case <-ctx.Done():
		return &chain.SequenceError{Kind: chain.Conflict, CompanyID: companyID, Err: ctx.Err()}
	case <-timer.C:
		return &chain.SequenceError{Kind: chain.Conflict, CompanyID: companyID, Err: errors.New("tiempo de espera del candado agotado")}
	}
}

func (t *tx) release() {
	for company, ch := range t.held {
		<-ch
		delete(t.held, company)
	}
}

func (t *tx) rollback() {
	if t.done {
		return
	}
	t.done = true
	t.release()
}

func (t *tx) commit(ctx context.Context) error {
	if t.done {
		return errors.New("memory: transacción cerrada")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s := t.store
	s.mu.Lock()
	for company, last := range t.counters {
		s.chainFor(company).last = last
	}
	for id, e := range t.dirty {
		s.entries[id] = e
	}
	for _, st := range t.seals {
		if sealable, ok := st.rec.(interface{ SetSeal(chain.Seal) }); ok {
			sealable.SetSeal(st.seal)
		}
		c := s.chainFor(st.companyID)
		c.bySeq[st.seal.Sequence] = chain.SealedRecord{Record: st.rec, Seal: st.seal}
		c.frozen[recordKey{class: st.rec.ClassTag(), id: st.rec.RecordID()}] = st.seal.Sequence
	}
	for company, b := range t.blocks {
		c := s.chainFor(company)
		if b.blocked {
			at := b.at
			c.blockedAt, c.blockedReason = &at, b.reason
		} else {
			c.blockedAt, c.blockedReason = nil, ""
		}
	}
	s.mu.Unlock()

	t.done = true
	t.release()
	return nil
}

// ── integrity.ChainRepository ─────────────────────────────────────────────────

func (t *tx) NextSequence(ctx context.Context, companyID string) (int64, error) {
	if t.readOnly {
		return 0, ErrReadOnly
	}
	if err := t.lock(ctx, companyID); err != nil {
		return 0, err
	}
	last, ok := t.counters[companyID]
	if !ok {
		t.store.mu.Lock()
		last = t.store.chainFor(companyID).last
		t.store.mu.Unlock()
	}
	last++
	t.counters[companyID] = last
	return last, nil
}

func (t *tx) GetBySequence(_ context.Context, companyID string, seq int64) (chain.SealedRecord, bool, error) {
	for _, st := range t.seals {
		if st.companyID == companyID && st.seal.Sequence == seq {
			return chain.SealedRecord{Record: st.rec, Seal: st.seal}, true, nil
		}
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	c, ok := t.store.chains[companyID]
	if !ok {
		return chain.SealedRecord{}, false, nil
	}
	sr, ok := c.bySeq[seq]
	return sr, ok, nil
}

func (t *tx) PersistSeal(_ context.Context, rec chain.HashableRecord, seal chain.Seal) error {
	if t.readOnly {
		return ErrReadOnly
	}
	companyID := rec.Company()
	key := recordKey{class: rec.ClassTag(), id: rec.RecordID()}
	for _, st := range t.seals {
		if st.rec.ClassTag() == key.class && st.rec.RecordID() == key.id {
			return &chain.BinderError{Kind: chain.AlreadyFrozen, CompanyID: companyID, RecordID: key.id}
		}
		if st.companyID == companyID && st.seal.Sequence == seal.Sequence {
			return &chain.SequenceError{Kind: chain.NonContiguous, CompanyID: companyID, Sequence: seal.Sequence}
		}
	}

	t.store.mu.Lock()
	c := t.store.chainFor(companyID)
	_, frozen := c.frozen[key]
	_, occupied := c.bySeq[seal.Sequence]
	t.store.mu.Unlock()
	if frozen {
		return &chain.BinderError{Kind: chain.AlreadyFrozen, CompanyID: companyID, RecordID: key.id}
	}
	if occupied {
		return &chain.SequenceError{Kind: chain.NonContiguous, CompanyID: companyID, Sequence: seal.Sequence}
	}

	t.seals = append(t.seals, stagedSeal{companyID: companyID, rec: rec, seal: seal})
	return nil
}

func (t *tx) ListSealed(_ context.Context, companyID string) ([]chain.SealedRecord, error) {
	t.store.mu.Lock()
	var out []chain.SealedRecord
	if c, ok := t.store.chains[companyID]; ok {
		out = make([]chain.SealedRecord, 0, len(c.bySeq)+len(t.seals))
		for _, sr := range c.bySeq {
			out = append(out, sr)
		}
	}
	t.store.mu.Unlock()

	for _, st := range t.seals {
		if st.companyID == companyID {
			out = append(out, chain.SealedRecord{Record: st.rec, Seal: st.seal})
		}
	}
	slices.SortFunc(out, func(a, b chain.SealedRecord) int {
		switch {
		case a.Seal.Sequence < b.Seal.Sequence:
			return -1
		case a.Seal.Sequence > b.Seal.Sequence:
			return 1
		}
		return 0
	})
	return out, nil
}

func (t *tx) ChainState(_ context.Context, companyID string) (entity.ChainState, error) {
	state := entity.ChainState{CompanyID: companyID}
	t.store.mu.Lock()
	if c, ok := t.store.chains[companyID]; ok {
		state.LastSequence = c.last
		state.BlockedAt = c.blockedAt
		state.BlockedReason = c.blockedReason
	}
	t.store.mu.Unlock()

	if last, ok := t.counters[companyID]; ok {
		state.LastSequence = last
	}
	if b, ok := t.blocks[companyID]; ok {
		if b.blocked {
			at := b.at
			state.BlockedAt, state.BlockedReason = &at, b.reason
		} else {
			state.BlockedAt, state.BlockedReason = nil, ""
		}
	}
	return state, nil
}

func (t *tx) BlockChain(_ context.Context, companyID, reason string) error {
	if t.readOnly {
		return ErrReadOnly
	}
	t.blocks[companyID] = stagedBlock{blocked: true, reason: reason, at: time.Now().UTC()}
	return nil
}

func (t *tx) UnblockChain(_ context.Context, companyID string) error {
	if t.readOnly {
		return ErrReadOnly
	}
	t.blocks[companyID] = stagedBlock{blocked: false}
	return nil
}
