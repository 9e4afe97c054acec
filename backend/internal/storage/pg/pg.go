package pg

import (
	"context"
	"database/sql"
	"time"

	"github.com/itchan-dev/forum/shared/config"
	"github.com/itchan-dev/forum/shared/domain"
	sharedpg "github.com/itchan-dev/forum/shared/storage/pg"
	"golang.org/x/crypto/blake2b"

	_ "github.com/lib/pq"
)

// Storage is the hierarchy store. Every method that touches more than one
// row runs in a single transaction together with its counter updates.
type Storage struct {
	db  *sql.DB
	cfg *config.Config
}

// New connects to postgres and applies pending migrations.
func New(cfg *config.Config) (*Storage, error) {
	db, err := sharedpg.Connect(cfg.Private.Pg, sharedpg.DefaultConnectionConfig())
	if err != nil {
		return nil, err
	}
	if err := sharedpg.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return NewWithDB(db, cfg), nil
}

// NewWithDB wraps an already opened and migrated pool.
func NewWithDB(db *sql.DB, cfg *config.Config) *Storage {
	return &Storage{db: db, cfg: cfg}
}

func (s *Storage) Cleanup() error {
	return s.db.Close()
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	return sharedpg.WithTx(ctx, s.db, fn)
}

type scanner interface {
	Scan(dest ...any) error
}

// textHash is the digest stored next to every body so the duplicate
// window lookup can use a btree index instead of comparing long text.
func textHash(text domain.PostText) []byte {
	sum := blake2b.Sum256([]byte(text))
	return sum[:]
}

// nullSignature scans the three nullable columns of an optional signature.
type nullSignature struct {
	actor sql.NullInt64
	ip    sql.NullString
	at    sql.NullTime
}

func (n *nullSignature) dest() []any {
	return []any{&n.actor, &n.ip, &n.at}
}

func (n *nullSignature) ptr() *domain.Signature {
	if !n.at.Valid {
		return nil
	}
	return &domain.Signature{Actor: n.actor.Int64, IP: n.ip.String, At: n.at.Time.UTC()}
}

func sigDest(sig *domain.Signature) []any {
	return []any{&sig.Actor, &sig.IP, &sig.At}
}

// sigArgs flattens an optional signature into three nullable query args.
func sigArgs(sig *domain.Signature) (any, any, any) {
	if sig == nil {
		return nil, nil, nil
	}
	return sig.Actor, sig.IP, sig.At
}

func utc(sig *domain.Signature) {
	sig.At = sig.At.UTC()
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
