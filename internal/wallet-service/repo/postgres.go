package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

// Postgres implementa operações de carteira em banco
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
)

// Schema é aplicado pelo main via db.EnsureSchema. NUMERIC(78,0) comporta um uint256.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS wallets (
		id          UUID PRIMARY KEY,
		address     TEXT NOT NULL UNIQUE,
		balance_wei NUMERIC(78,0) NOT NULL DEFAULT 0 CHECK (balance_wei >= 0),
		version     BIGINT NOT NULL DEFAULT 1,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS wallet_ledger (
		id             BIGSERIAL PRIMARY KEY,
		wallet_id      UUID NOT NULL REFERENCES wallets(id),
		operation_type TEXT NOT NULL,
		amount_wei     NUMERIC(78,0) NOT NULL,
		external_ref   TEXT,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS wallet_ledger_ref_uq
		ON wallet_ledger(wallet_id, operation_type, external_ref)
		WHERE external_ref IS NOT NULL`,
}

// GetOrCreateWallet retorna o walletId e saldo de um endereço, criando a carteira se não existir
func (p *Postgres) GetOrCreateWallet(ctx context.Context, address string) (walletID string, balance *uint256.Int, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", nil, err
	}
	defer tx.Rollback()

	walletID, balance, err = lockWallet(ctx, tx, address, true)
	if err != nil {
		return "", nil, err
	}
	if err = tx.Commit(); err != nil {
		return "", nil, err
	}
	return walletID, balance, nil
}

// Deposit incrementa o saldo da carteira e registra a operação no ledger
func (p *Postgres) Deposit(ctx context.Context, address string, amount *uint256.Int, externalRef string) (walletID string, newBalance *uint256.Int, err error) {
	walletID, newBalance, err = p.move(ctx, "DEPOSIT", address, amount, externalRef, true)
	return
}

// Credit é usado pelo settlement para pagar prêmios, reembolsos e saques da casa
func (p *Postgres) Credit(ctx context.Context, address string, amount *uint256.Int, externalRef string) (*uint256.Int, error) {
	_, bal, err := p.move(ctx, "CREDIT", address, amount, externalRef, true)
	return bal, err
}

// Debit retira o stake. Falha com ErrInsufficientFunds sem tocar no saldo.
func (p *Postgres) Debit(ctx context.Context, address string, amount *uint256.Int, externalRef string) (*uint256.Int, error) {
	_, bal, err := p.move(ctx, "DEBIT", address, amount, externalRef, false)
	return bal, err
}

// move aplica crédito ou débito com lock pessimista na linha da carteira.
// Idempotente por (wallet_id, op, external_ref): repetição devolve o saldo atual.
func (p *Postgres) move(ctx context.Context, op, address string, amount *uint256.Int, externalRef string, credit bool) (string, *uint256.Int, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", nil, err
	}
	defer tx.Rollback()

	walletID, balance, err := lockWallet(ctx, tx, address, credit)
	if err != nil {
		return "", nil, err
	}

	if externalRef != "" {
		var exists int64
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM wallet_ledger WHERE wallet_id=$1 AND operation_type=$2 AND external_ref=$3`,
			walletID, op, externalRef).Scan(&exists)
		if err == nil {
			return walletID, balance, nil // já aplicado
		} else if !errors.Is(err, sql.ErrNoRows) {
			return "", nil, err
		}
	}

	next := new(uint256.Int)
	if credit {
		if _, overflow := next.AddOverflow(balance, amount); overflow {
			return "", nil, fmt.Errorf("balance overflow for %s", address)
		}
	} else {
		if balance.Lt(amount) {
			return "", nil, ErrInsufficientFunds
		}
		next.Sub(balance, amount)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE wallets SET balance_wei = $1::numeric, version = version + 1 WHERE id=$2`,
		next.Dec(), walletID); err != nil {
		return "", nil, err
	}

	var ref any
	if externalRef != "" {
		ref = externalRef
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO wallet_ledger(wallet_id, operation_type, amount_wei, external_ref) VALUES($1,$2,$3::numeric,$4)`,
		walletID, op, amount.Dec(), ref); err != nil {
		return "", nil, err
	}

	if err = tx.Commit(); err != nil {
		return "", nil, err
	}
	return walletID, next, nil
}

// lockWallet trava a carteira (FOR UPDATE). Com create=true cria se não existir.
func lockWallet(ctx context.Context, tx *sql.Tx, address string, create bool) (string, *uint256.Int, error) {
	var id, raw string
	err := tx.QueryRowContext(ctx,
		`SELECT id, balance_wei::text FROM wallets WHERE address=$1 FOR UPDATE`, address).Scan(&id, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		if !create {
			return "", nil, ErrNotFound
		}
		id = uuid.New().String()
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO wallets(id, address, balance_wei, version) VALUES($1,$2,0,1)`, id, address); err != nil {
			return "", nil, err
		}
		return id, new(uint256.Int), nil
	}
	if err != nil {
		return "", nil, err
	}

	bal, err := uint256.FromDecimal(raw)
	if err != nil {
		return "", nil, fmt.Errorf("wallet %s: bad balance %q: %w", id, raw, err)
	}
	return id, bal, nil
}
