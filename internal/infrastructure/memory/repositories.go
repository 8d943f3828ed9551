package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/jhoicas/Inalterable-api/internal/application/accounting"
	"github.com/jhoicas/Inalterable-api/internal/application/integrity"
	"github.com/jhoicas/Inalterable-api/internal/domain"
	"github.com/jhoicas/Inalterable-api/internal/domain/entity"
	"github.com/jhoicas/Inalterable-api/internal/domain/repository"
)

var (
	_ accounting.TxRunner               = (*Store)(nil)
	_ repository.JournalEntryRepository = (*EntryRepo)(nil)
	_ repository.CompanyRepository      = (*CompanyRepo)(nil)
	_ repository.UserRepository         = (*UserRepo)(nil)
)

// RunAccounting ejecuta fn con el repositorio de asientos y el de la cadena atados a la misma transacción.
func (s *Store) RunAccounting(ctx context.Context, fn func(
	entryRepo repository.JournalEntryRepository,
	chainRepo integrity.ChainRepository,
) error) error {
	t := s.begin(false)
	defer t.rollback()
	if err := fn(&EntryRepo{store: s, tx: t}, t); err != nil {
		return err
	}
	return t.commit(ctx)
}

// Entries devuelve el repositorio de asientos fuera de transacción (cada escritura confirma de inmediato).
func (s *Store) Entries() *EntryRepo { return &EntryRepo{store: s} }

// Companies devuelve el repositorio de empresas.
func (s *Store) Companies() *CompanyRepo { return &CompanyRepo{store: s} }

// Users devuelve el repositorio de usuarios.
func (s *Store) Users() *UserRepo { return &UserRepo{store: s} }

// ── Asientos ──────────────────────────────────────────────────────────────────

// EntryRepo guarda asientos; con tx != nil las escrituras quedan en staging hasta el commit.
// Las lecturas devuelven copias para que los cambios no se vean fuera de la transacción.
type EntryRepo struct {
	store *Store
	tx    *tx
}

func (r *EntryRepo) Create(_ context.Context, entry *entity.JournalEntry) error {
	if entry == nil {
		return domain.ErrInvalidInput
	}
	if r.tx != nil && r.tx.readOnly {
		return ErrReadOnly
	}
	s := r.store
	s.mu.Lock()
	s.nextEntryID++
	entry.ID = s.nextEntryID
	for _, l := range entry.Lines {
		s.nextLineID++
		l.ID = s.nextLineID
		l.EntryID = entry.ID
		l.CompanyID = entry.CompanyID
	}
	entry.AssignName()
	stored := entry.Clone()
	if r.tx == nil {
		s.entries[stored.ID] = stored
	}
	s.mu.Unlock()

	if r.tx != nil {
		r.tx.entries[stored.ID] = stored
		r.tx.dirty[stored.ID] = stored
	}
	return nil
}

func (r *EntryRepo) GetByID(_ context.Context, id int64) (*entity.JournalEntry, error) {
	return r.get(id), nil
}

// GetForUpdate no toma candado por fila: la publicación se serializa con el candado de la empresa
// y PersistSeal rechaza un segundo sello del mismo asiento.
func (r *EntryRepo) GetForUpdate(_ context.Context, id int64) (*entity.JournalEntry, error) {
	return r.get(id), nil
}

func (r *EntryRepo) get(id int64) *entity.JournalEntry {
	if r.tx != nil {
		if e, ok := r.tx.entries[id]; ok {
			return e
		}
	}
	r.store.mu.Lock()
	e, ok := r.store.entries[id]
	r.store.mu.Unlock()
	if !ok {
		return nil
	}
	clone := e.Clone()
	if r.tx != nil {
		r.tx.entries[id] = clone
	}
	return clone
}

func (r *EntryRepo) MarkPosted(_ context.Context, entry *entity.JournalEntry) error {
	if r.tx != nil && r.tx.readOnly {
		return ErrReadOnly
	}
	if r.tx != nil {
		r.tx.entries[entry.ID] = entry
		r.tx.dirty[entry.ID] = entry
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.entries[entry.ID]; !ok {
		return domain.ErrNotFound
	}
	r.store.entries[entry.ID] = entry.Clone()
	return nil
}

func (r *EntryRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.JournalEntry, error) {
	r.store.mu.Lock()
	var list []*entity.JournalEntry
	for _, e := range r.store.entries {
		if e.CompanyID == companyID {
			list = append(list, e.Clone())
		}
	}
	r.store.mu.Unlock()

	slices.SortFunc(list, func(a, b *entity.JournalEntry) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})
	if offset >= len(list) {
		return nil, nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}

// ── Empresas ──────────────────────────────────────────────────────────────────

// CompanyRepo guarda empresas en memoria.
type CompanyRepo struct {
	store *Store
}

func (r *CompanyRepo) Create(_ context.Context, company *entity.Company) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.companies[company.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, c := range r.store.companies {
		if strings.EqualFold(c.NIT, company.NIT) {
			return domain.ErrDuplicate
		}
	}
	c := *company
	r.store.companies[company.ID] = &c
	return nil
}

func (r *CompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.companies[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *CompanyRepo) GetByNIT(_ context.Context, nit string) (*entity.Company, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range r.store.companies {
		if strings.EqualFold(c.NIT, nit) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *CompanyRepo) List(_ context.Context, limit, offset int) ([]*entity.Company, error) {
	r.store.mu.Lock()
	list := make([]*entity.Company, 0, len(r.store.companies))
	for _, c := range r.store.companies {
		cp := *c
		list = append(list, &cp)
	}
	r.store.mu.Unlock()

	slices.SortFunc(list, func(a, b *entity.Company) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if offset >= len(list) {
		return nil, nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}

// ── Usuarios ──────────────────────────────────────────────────────────────────

// UserRepo guarda usuarios en memoria. El email es único en todo el Store.
type UserRepo struct {
	store *Store
}

func (r *UserRepo) Create(_ context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[user.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, u := range r.store.users {
		if u.Email == user.Email {
			return domain.ErrDuplicate
		}
	}
	u := *user
	r.store.users[user.ID] = &u
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *UserRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.User, error) {
	r.store.mu.Lock()
	list := make([]*entity.User, 0)
	for _, u := range r.store.users {
		if u.CompanyID == companyID {
			cp := *u
			list = append(list, &cp)
		}
	}
	r.store.mu.Unlock()

	slices.SortFunc(list, func(a, b *entity.User) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Email, b.Email)
	})
	if offset >= len(list) {
		return nil, nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}
