package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// CredentialItem is one persisted key-value pair. Timestamps let callers
// layer an expiry policy on top later without a schema change.
type CredentialItem struct {
	bun.BaseModel `bun:"table:credential_items,alias:cred"`
	Key           string     `bun:"key,pk" json:"key"`
	Value         string     `bun:"value,notnull" json:"value"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// BunCredentialStore is the durable CredentialStore, backed by sqlite through
// bun so tokens and the remembered email survive client restarts.
type BunCredentialStore struct {
	db  *bun.DB
	now Clock
}

// OpenCredentialDB opens (or creates) the sqlite database backing the store.
func OpenCredentialDB(path string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not open credential database")
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// NewBunCredentialStore creates the backing table if needed and returns the
// store.
func NewBunCredentialStore(ctx context.Context, db *bun.DB) (*BunCredentialStore, error) {
	if _, err := db.NewCreateTable().
		Model((*CredentialItem)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create credential table")
	}

	return &BunCredentialStore{db: db, now: time.Now}, nil
}

// WithClock overrides the timestamp source (useful for tests).
func (s *BunCredentialStore) WithClock(clock Clock) *BunCredentialStore {
	if clock != nil {
		s.now = clock
	}
	return s
}

func (s *BunCredentialStore) Token(ctx context.Context) (string, error) {
	return s.Get(ctx, credKeyToken)
}

func (s *BunCredentialStore) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return s.ClearToken(ctx)
	}
	return s.Set(ctx, credKeyToken, token)
}

func (s *BunCredentialStore) ClearToken(ctx context.Context) error {
	return s.Remove(ctx, credKeyToken)
}

func (s *BunCredentialStore) Get(ctx context.Context, key string) (string, error) {
	item := &CredentialItem{}
	err := s.db.NewSelect().
		Model(item).
		Where("?TableAlias.key = ?", key).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "could not read credential item")
	}
	return item.Value, nil
}

func (s *BunCredentialStore) Set(ctx context.Context, key, value string) error {
	now := s.now()
	item := &CredentialItem{
		Key:       key,
		Value:     value,
		CreatedAt: &now,
		UpdatedAt: &now,
	}

	_, err := s.db.NewInsert().
		Model(item).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not write credential item")
	}
	return nil
}

func (s *BunCredentialStore) Remove(ctx context.Context, key string) error {
	_, err := s.db.NewDelete().
		Model((*CredentialItem)(nil)).
		Where("key = ?", key).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not remove credential item")
	}
	return nil
}

// ProfileCacheKey derives the credential key holding a user's cached profile
// copy. Keys are deterministic per email via hashid so repeated logins reuse
// the same row.
func ProfileCacheKey(email string) string {
	if id, err := hashid.NewUUID(email); err == nil {
		return credKeyProfilePrefix + id.String()
	}
	return credKeyProfilePrefix + email
}

var _ CredentialStore = &BunCredentialStore{}
var _ TokenProvider = &BunCredentialStore{}
