package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"reassignment-service/internal/repository"
)

const (
	// ResolverPageSize is the page size for full-table index builds.
	ResolverPageSize = 1000
	// ResolverMaxPages caps the paging loop so anomalous data cannot spin
	// it forever.
	ResolverMaxPages = 100
)

// Index maps natural names to IDs with exact lookup and a case-insensitive
// fallback. Ambiguous fallbacks (two names differing only by case) are
// reported, never guessed.
type Index struct {
	exact map[string]uuid.UUID
	lower map[string][]uuid.UUID
}

func newIndex(size int) *Index {
	return &Index{
		exact: make(map[string]uuid.UUID, size),
		lower: make(map[string][]uuid.UUID, size),
	}
}

func (ix *Index) add(name string, id uuid.UUID) {
	if _, dup := ix.exact[name]; dup {
		return
	}
	ix.exact[name] = id
	key := strings.ToLower(name)
	ix.lower[key] = append(ix.lower[key], id)
}

// Len returns the number of distinct names indexed.
func (ix *Index) Len() int {
	return len(ix.exact)
}

// Resolve looks a name up exactly, then case-insensitively. Returns
// ErrNameNotFound or ErrAmbiguousName on failure.
func (ix *Index) Resolve(name string) (uuid.UUID, error) {
	if id, ok := ix.exact[name]; ok {
		return id, nil
	}
	candidates := ix.lower[strings.ToLower(name)]
	switch len(candidates) {
	case 0:
		return uuid.Nil, ErrNameNotFound
	case 1:
		return candidates[0], nil
	default:
		return uuid.Nil, ErrAmbiguousName
	}
}

// EmailIndex maps lower-cased emails to IDs, exact match only. Emails are not
// typo-tolerant identifiers, so there is no fuzzy fallback.
type EmailIndex struct {
	byEmail map[string]uuid.UUID
}

func (ix *EmailIndex) Len() int {
	return len(ix.byEmail)
}

func (ix *EmailIndex) Resolve(email string) (uuid.UUID, error) {
	id, ok := ix.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return uuid.Nil, ErrNameNotFound
	}
	return id, nil
}

// Resolver builds name indexes from paginated full-table fetches and caches
// them per entity. Callers invalidate an entity after writing to it so the
// next build sees the new rows.
type Resolver struct {
	accounts repository.AccountRepository
	sellers  repository.SellerRepository
	managers repository.ManagerRepository

	pageSize int
	maxPages int

	accountIndex *Index
	sellerIndex  *Index
	profileIndex *EmailIndex
	managerIndex *EmailIndex
}

func NewResolver(accounts repository.AccountRepository, sellers repository.SellerRepository, managers repository.ManagerRepository) *Resolver {
	return &Resolver{
		accounts: accounts,
		sellers:  sellers,
		managers: managers,
		pageSize: ResolverPageSize,
		maxPages: ResolverMaxPages,
	}
}

// fetchAll runs the paging loop: full pages keep going, a short page ends the
// scan, and the page cap stops runaway loops.
func fetchAll[T any](pageSize, maxPages int, fetch func(offset, limit int) ([]T, error)) ([]T, error) {
	var all []T
	for page := 0; page < maxPages; page++ {
		rows, err := fetch(page*pageSize, pageSize)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		all = append(all, rows...)
		if len(rows) < pageSize {
			return all, nil
		}
	}
	return all, fmt.Errorf("aborted after %d pages (possible runaway scan)", maxPages)
}

// AccountIndex returns the cached account name index, building it if needed.
func (r *Resolver) AccountIndex(ctx context.Context) (*Index, error) {
	if r.accountIndex != nil {
		return r.accountIndex, nil
	}
	accounts, err := fetchAll(r.pageSize, r.maxPages, func(offset, limit int) ([]namedRow, error) {
		page, err := r.accounts.FetchPage(ctx, offset, limit)
		if err != nil {
			return nil, err
		}
		rows := make([]namedRow, len(page))
		for i, a := range page {
			rows[i] = namedRow{name: a.Name, id: a.ID}
		}
		return rows, nil
	})
	if err != nil {
		return nil, fmt.Errorf("building account index: %w", err)
	}
	ix := newIndex(len(accounts))
	for _, a := range accounts {
		ix.add(a.name, a.id)
	}
	r.accountIndex = ix
	return ix, nil
}

// SellerIndex returns the cached seller name index, building it if needed.
func (r *Resolver) SellerIndex(ctx context.Context) (*Index, error) {
	if r.sellerIndex != nil {
		return r.sellerIndex, nil
	}
	sellers, err := fetchAll(r.pageSize, r.maxPages, func(offset, limit int) ([]namedRow, error) {
		page, err := r.sellers.FetchPage(ctx, offset, limit)
		if err != nil {
			return nil, err
		}
		rows := make([]namedRow, len(page))
		for i, s := range page {
			rows[i] = namedRow{name: s.Name, id: s.ID}
		}
		return rows, nil
	})
	if err != nil {
		return nil, fmt.Errorf("building seller index: %w", err)
	}
	ix := newIndex(len(sellers))
	for _, s := range sellers {
		ix.add(s.name, s.id)
	}
	r.sellerIndex = ix
	return ix, nil
}

// ProfileIndex returns the cached email-to-profile index.
func (r *Resolver) ProfileIndex(ctx context.Context) (*EmailIndex, error) {
	if r.profileIndex != nil {
		return r.profileIndex, nil
	}
	profiles, err := fetchAll(r.pageSize, r.maxPages, func(offset, limit int) ([]emailRow, error) {
		page, err := r.managers.FetchProfilesPage(ctx, offset, limit)
		if err != nil {
			return nil, err
		}
		rows := make([]emailRow, len(page))
		for i, p := range page {
			rows[i] = emailRow{email: p.Email, id: p.ID}
		}
		return rows, nil
	})
	if err != nil {
		return nil, fmt.Errorf("building profile index: %w", err)
	}
	ix := &EmailIndex{byEmail: make(map[string]uuid.UUID, len(profiles))}
	for _, p := range profiles {
		ix.byEmail[strings.ToLower(p.email)] = p.id
	}
	r.profileIndex = ix
	return ix, nil
}

// ManagerIndex returns the cached email-to-manager index, built by joining
// managers to their backing profiles.
func (r *Resolver) ManagerIndex(ctx context.Context) (*EmailIndex, error) {
	if r.managerIndex != nil {
		return r.managerIndex, nil
	}
	profiles, err := r.ProfileIndex(ctx)
	if err != nil {
		return nil, err
	}
	byProfile := make(map[uuid.UUID]string, profiles.Len())
	for email, id := range profiles.byEmail {
		byProfile[id] = email
	}

	managers, err := fetchAll(r.pageSize, r.maxPages, func(offset, limit int) ([]managerRow, error) {
		page, err := r.managers.FetchPage(ctx, offset, limit)
		if err != nil {
			return nil, err
		}
		rows := make([]managerRow, len(page))
		for i, m := range page {
			rows[i] = managerRow{id: m.ID, profileID: m.ProfileID}
		}
		return rows, nil
	})
	if err != nil {
		return nil, fmt.Errorf("building manager index: %w", err)
	}

	ix := &EmailIndex{byEmail: make(map[string]uuid.UUID, len(managers))}
	for _, m := range managers {
		if email, ok := byProfile[m.profileID]; ok {
			ix.byEmail[email] = m.id
		}
	}
	r.managerIndex = ix
	return ix, nil
}

// InvalidateAccounts drops the cached account index so the next build
// re-fetches. Called after the accounts phase writes.
func (r *Resolver) InvalidateAccounts() { r.accountIndex = nil }

// InvalidateSellers drops the cached seller index.
func (r *Resolver) InvalidateSellers() { r.sellerIndex = nil }

// InvalidateManagers drops the cached manager index. The profile index stays:
// profiles are not written by the pipeline.
func (r *Resolver) InvalidateManagers() { r.managerIndex = nil }

type namedRow struct {
	name string
	id   uuid.UUID
}

type emailRow struct {
	email string
	id    uuid.UUID
}

type managerRow struct {
	id        uuid.UUID
	profileID uuid.UUID
}
