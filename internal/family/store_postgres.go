package family

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "custos/pkg/domain"
	"custos/pkg/platform/sentinel"
)

// PostgresStore persists families and dependents in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed family store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SaveFamily(ctx context.Context, f Family) error {
	query := `
		INSERT INTO families (id, guardian_wallet, reference_currency)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			guardian_wallet = EXCLUDED.guardian_wallet,
			reference_currency = EXCLUDED.reference_currency
	`
	_, err := s.db.ExecContext(ctx, query, uuid.UUID(f.ID), string(f.GuardianWallet), f.ReferenceCurrency)
	if err != nil {
		return fmt.Errorf("save family: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetFamily(ctx context.Context, familyID id.FamilyID) (Family, error) {
	var (
		wallet   string
		currency string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT guardian_wallet, reference_currency FROM families WHERE id = $1`,
		uuid.UUID(familyID),
	).Scan(&wallet, &currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Family{}, sentinel.ErrNotFound
		}
		return Family{}, fmt.Errorf("get family: %w", err)
	}
	return Family{ID: familyID, GuardianWallet: WalletRef(wallet), ReferenceCurrency: currency}, nil
}

func (s *PostgresStore) SaveDependent(ctx context.Context, d Dependent) error {
	query := `
		INSERT INTO dependents (id, family_id, wallet, nickname)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			family_id = EXCLUDED.family_id,
			wallet = EXCLUDED.wallet,
			nickname = EXCLUDED.nickname
	`
	_, err := s.db.ExecContext(ctx, query, uuid.UUID(d.ID), uuid.UUID(d.FamilyID), string(d.Wallet), d.Nickname)
	if err != nil {
		return fmt.Errorf("save dependent: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDependent(ctx context.Context, dependentID id.DependentID) (Dependent, error) {
	var (
		familyID uuid.UUID
		wallet   string
		nickname string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT family_id, wallet, nickname FROM dependents WHERE id = $1`,
		uuid.UUID(dependentID),
	).Scan(&familyID, &wallet, &nickname)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Dependent{}, sentinel.ErrNotFound
		}
		return Dependent{}, fmt.Errorf("get dependent: %w", err)
	}
	return Dependent{
		ID:       dependentID,
		FamilyID: id.FamilyID(familyID),
		Wallet:   WalletRef(wallet),
		Nickname: nickname,
	}, nil
}
