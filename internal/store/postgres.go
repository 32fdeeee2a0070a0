package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pressquote/quote-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// Monetary values are stored as NUMERIC for exact decimal precision; sheet
// sizes and extra variants are JSONB on their parent row.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Connect opens a pool to databaseURL and pings it, retrying with
// exponential backoff for up to maxElapsed. A malformed URL fails at once.
func Connect(ctx context.Context, databaseURL string, maxElapsed time.Duration) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = maxElapsed
	policy.MaxInterval = 15 * time.Second

	var pool *pgxpool.Pool
	err = backoff.RetryNotify(
		func() error {
			p, err := pgxpool.NewWithConfig(ctx, cfg)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			if err := p.Ping(ctx); err != nil {
				p.Close()
				return fmt.Errorf("ping: %w", err)
			}
			pool = p
			return nil
		},
		backoff.WithContext(policy, ctx),
		func(err error, next time.Duration) {
			slog.Warn("postgres connection failed, retrying", "err", err, "next_attempt_in", next)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return pool, nil
}

// pgxRows is the subset of pgx.Rows the scanners need.
type pgxRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func notFound(err error, what string, id any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("get %s %v: %w", what, id, err)
}

// syncSequence moves the id sequence past ids inserted explicitly (seed data).
func (s *PostgresStore) syncSequence(ctx context.Context, table string) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(
		`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), GREATEST((SELECT MAX(id) FROM %[1]s), 1))`, table))
	return err
}

// --- Papers ---

const paperColumns = `id, name, gsm, price_per_ton::TEXT, currency, stock_sheet_sizes`

func scanPaper(row rowScanner) (*model.PaperStock, error) {
	var p model.PaperStock
	var price string
	var sizes []byte
	if err := row.Scan(&p.ID, &p.Name, &p.GSM, &price, &p.Currency, &sizes); err != nil {
		return nil, err
	}
	p.PricePerTon, _ = decimal.NewFromString(price)
	if err := json.Unmarshal(sizes, &p.StockSheetSizes); err != nil {
		return nil, fmt.Errorf("decode stock sheet sizes: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) ListPaperTypes(ctx context.Context) ([]model.PaperStock, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+paperColumns+` FROM paper_types ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	papers := []model.PaperStock{}
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		papers = append(papers, *p)
	}
	return papers, rows.Err()
}

func (s *PostgresStore) GetPaperType(ctx context.Context, id int64) (*model.PaperStock, error) {
	p, err := scanPaper(s.pool.QueryRow(ctx, `SELECT `+paperColumns+` FROM paper_types WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "paper type", id)
	}
	return p, nil
}

func (s *PostgresStore) CreatePaperType(ctx context.Context, p *model.PaperStock) error {
	sizes, err := json.Marshal(p.StockSheetSizes)
	if err != nil {
		return err
	}
	if p.ID == 0 {
		return s.pool.QueryRow(ctx,
			`INSERT INTO paper_types (name, gsm, price_per_ton, currency, stock_sheet_sizes)
			 VALUES ($1, $2, $3::NUMERIC, $4, $5::JSONB) RETURNING id`,
			p.Name, p.GSM, p.PricePerTon.String(), p.Currency, sizes,
		).Scan(&p.ID)
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO paper_types (id, name, gsm, price_per_ton, currency, stock_sheet_sizes)
		 VALUES ($1, $2, $3, $4::NUMERIC, $5, $6::JSONB)`,
		p.ID, p.Name, p.GSM, p.PricePerTon.String(), p.Currency, sizes,
	); err != nil {
		return err
	}
	return s.syncSequence(ctx, "paper_types")
}

// --- Machines ---

const machineColumns = `id, name, setup_cost::TEXT, setup_cost_currency, press_sheet_sizes`

func scanMachine(row rowScanner) (*model.Machine, error) {
	var m model.Machine
	var setup string
	var sizes []byte
	if err := row.Scan(&m.ID, &m.Name, &setup, &m.SetupCostCurrency, &sizes); err != nil {
		return nil, err
	}
	m.SetupCost, _ = decimal.NewFromString(setup)
	if err := json.Unmarshal(sizes, &m.PressSheetSizes); err != nil {
		return nil, fmt.Errorf("decode press sheet sizes: %w", err)
	}
	return &m, nil
}

func (s *PostgresStore) ListMachines(ctx context.Context) ([]model.Machine, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+machineColumns+` FROM machines ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	machines := []model.Machine{}
	for rows.Next() {
		m, err := scanMachine(rows)
		if err != nil {
			return nil, err
		}
		machines = append(machines, *m)
	}
	return machines, rows.Err()
}

func (s *PostgresStore) GetMachine(ctx context.Context, id int64) (*model.Machine, error) {
	m, err := scanMachine(s.pool.QueryRow(ctx, `SELECT `+machineColumns+` FROM machines WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "machine", id)
	}
	return m, nil
}

func (s *PostgresStore) CreateMachine(ctx context.Context, m *model.Machine) error {
	sizes, err := json.Marshal(m.PressSheetSizes)
	if err != nil {
		return err
	}
	if m.ID == 0 {
		return s.pool.QueryRow(ctx,
			`INSERT INTO machines (name, setup_cost, setup_cost_currency, press_sheet_sizes)
			 VALUES ($1, $2::NUMERIC, $3, $4::JSONB) RETURNING id`,
			m.Name, m.SetupCost.String(), m.SetupCostCurrency, sizes,
		).Scan(&m.ID)
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO machines (id, name, setup_cost, setup_cost_currency, press_sheet_sizes)
		 VALUES ($1, $2, $3::NUMERIC, $4, $5::JSONB)`,
		m.ID, m.Name, m.SetupCost.String(), m.SetupCostCurrency, sizes,
	); err != nil {
		return err
	}
	return s.syncSequence(ctx, "machines")
}

// --- Extras ---

const extraColumns = `id, name, pricing_type, inside_outside_same, supports_double_sided,
	apply_to_print_sheet, scope, setup_cost::TEXT, setup_cost_currency, variants`

func scanExtra(row rowScanner) (*model.Extra, error) {
	var e model.Extra
	var setup string
	var variants []byte
	if err := row.Scan(&e.ID, &e.Name, &e.PricingType, &e.InsideOutsideSame, &e.SupportsDoubleSided,
		&e.ApplyToPrintSheet, &e.Scope, &setup, &e.SetupCostCurrency, &variants); err != nil {
		return nil, err
	}
	e.SetupCost, _ = decimal.NewFromString(setup)
	if err := json.Unmarshal(variants, &e.Variants); err != nil {
		return nil, fmt.Errorf("decode extra variants: %w", err)
	}
	return &e, nil
}

func (s *PostgresStore) ListExtras(ctx context.Context) ([]model.Extra, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+extraColumns+` FROM extras ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	extras := []model.Extra{}
	for rows.Next() {
		e, err := scanExtra(rows)
		if err != nil {
			return nil, err
		}
		extras = append(extras, *e)
	}
	return extras, rows.Err()
}

func (s *PostgresStore) GetExtra(ctx context.Context, id int64) (*model.Extra, error) {
	e, err := scanExtra(s.pool.QueryRow(ctx, `SELECT `+extraColumns+` FROM extras WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "extra", id)
	}
	return e, nil
}

func (s *PostgresStore) CreateExtra(ctx context.Context, e *model.Extra) error {
	variants, err := json.Marshal(e.Variants)
	if err != nil {
		return err
	}
	if e.ID == 0 {
		return s.pool.QueryRow(ctx,
			`INSERT INTO extras (name, pricing_type, inside_outside_same, supports_double_sided,
			                     apply_to_print_sheet, scope, setup_cost, setup_cost_currency, variants)
			 VALUES ($1, $2, $3, $4, $5, $6, $7::NUMERIC, $8, $9::JSONB) RETURNING id`,
			e.Name, e.PricingType, e.InsideOutsideSame, e.SupportsDoubleSided,
			e.ApplyToPrintSheet, e.Scope, e.SetupCost.String(), e.SetupCostCurrency, variants,
		).Scan(&e.ID)
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO extras (id, name, pricing_type, inside_outside_same, supports_double_sided,
		                     apply_to_print_sheet, scope, setup_cost, setup_cost_currency, variants)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8::NUMERIC, $9, $10::JSONB)`,
		e.ID, e.Name, e.PricingType, e.InsideOutsideSame, e.SupportsDoubleSided,
		e.ApplyToPrintSheet, e.Scope, e.SetupCost.String(), e.SetupCostCurrency, variants,
	); err != nil {
		return err
	}
	return s.syncSequence(ctx, "extras")
}

// --- Saved quotes ---

func (s *PostgresStore) SaveQuote(ctx context.Context, q *model.SavedQuote) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO saved_quotes (id, name, data, total_cost_eur, created_at)
		 VALUES ($1, $2, $3::JSONB, $4::NUMERIC, $5)`,
		q.ID, q.Name, []byte(q.Data), q.TotalCostEUR.String(), q.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetQuote(ctx context.Context, id string) (*model.SavedQuote, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, data, total_cost_eur::TEXT, created_at
		 FROM saved_quotes WHERE id = $1`, id)

	var q model.SavedQuote
	var total string
	if err := row.Scan(&q.ID, &q.Name, &q.Data, &total, &q.CreatedAt); err != nil {
		return nil, notFound(err, "quote", id)
	}
	q.TotalCostEUR, _ = decimal.NewFromString(total)
	return &q, nil
}

func (s *PostgresStore) ListQuotes(ctx context.Context) ([]model.SavedQuote, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, data, total_cost_eur::TEXT, created_at
		 FROM saved_quotes ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanQuotes(rows)
}

func scanQuotes(rows pgxRows) ([]model.SavedQuote, error) {
	quotes := []model.SavedQuote{}
	for rows.Next() {
		var q model.SavedQuote
		var total string
		if err := rows.Scan(&q.ID, &q.Name, &q.Data, &total, &q.CreatedAt); err != nil {
			return nil, err
		}
		q.TotalCostEUR, _ = decimal.NewFromString(total)
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}
