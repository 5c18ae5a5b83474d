package sink

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amishk599/jobflow/internal/model"
)

var _ model.Sink = (*WarehouseSink)(nil)

// DefaultWarehouseTable is the table read by the job dashboard.
const DefaultWarehouseTable = "job_total_info"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// warehouseColumns lists the insert columns in argument order.
var warehouseColumns = []string{
	"company",
	"job_title",
	"wage_type",
	"wage_value_krw",
	"region",
	"career",
	"rcrit_jssfc_cmmn_code_se",
	"jobcode_nm",
	"career_cnd_cmmn_code_se",
	"acdmcr_cmmn_code_se",
	"wage_value_monthly",
	"eventprocessedutctime",
}

// pgDB is the subset of *pgxpool.Pool used by the sink.
type pgDB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// WarehouseSink inserts batches into a Postgres table, one transaction per
// batch.
type WarehouseSink struct {
	db     pgDB
	table  string // sanitized, possibly schema-qualified
	logger *slog.Logger
}

// NewWarehouseSink creates a sink on pool. table may be "name" or
// "schema.name"; each part must be a plain SQL identifier.
func NewWarehouseSink(pool *pgxpool.Pool, table string, logger *slog.Logger) (*WarehouseSink, error) {
	return newWarehouseSink(pool, table, logger)
}

func newWarehouseSink(db pgDB, table string, logger *slog.Logger) (*WarehouseSink, error) {
	ident, err := tableIdentifier(table)
	if err != nil {
		return nil, err
	}
	return &WarehouseSink{db: db, table: ident.Sanitize(), logger: logger}, nil
}

// ConnectWarehouse opens a pool and verifies connectivity.
func ConnectWarehouse(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening warehouse pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging warehouse: %w", err)
	}
	return pool, nil
}

func tableIdentifier(table string) (pgx.Identifier, error) {
	if table == "" {
		table = DefaultWarehouseTable
	}
	parts := strings.Split(table, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("invalid warehouse table %q", table)
	}
	for _, p := range parts {
		if !identRe.MatchString(p) {
			return nil, fmt.Errorf("invalid warehouse table %q", table)
		}
	}
	return pgx.Identifier(parts), nil
}

// EnsureTable creates the target table if it does not exist.
func (s *WarehouseSink) EnsureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	company TEXT NOT NULL DEFAULT '',
	job_title TEXT NOT NULL DEFAULT '',
	wage_type TEXT NOT NULL DEFAULT '',
	wage_value_krw DOUBLE PRECISION,
	region TEXT NOT NULL DEFAULT '',
	career TEXT NOT NULL DEFAULT '',
	rcrit_jssfc_cmmn_code_se TEXT NOT NULL DEFAULT '',
	jobcode_nm TEXT NOT NULL DEFAULT '',
	career_cnd_cmmn_code_se TEXT NOT NULL DEFAULT '',
	acdmcr_cmmn_code_se TEXT NOT NULL DEFAULT '',
	wage_value_monthly DOUBLE PRECISION,
	eventprocessedutctime TIMESTAMPTZ NOT NULL
)`, s.table)
	if _, err := s.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("creating table %s: %w", s.table, err)
	}
	return nil
}

// Deliver inserts all records of the batch atomically.
func (s *WarehouseSink) Deliver(ctx context.Context, b model.Batch) (string, error) {
	if len(b.Records) == 0 {
		return "", nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("beginning warehouse transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := insertSQL(s.table)
	batch := &pgx.Batch{}
	for _, r := range b.Records {
		batch.Queue(query, insertArgs(r, b)...)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range b.Records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return "", fmt.Errorf("inserting record %d of %s batch: %w", i, b.Source, err)
		}
	}
	if err := br.Close(); err != nil {
		return "", fmt.Errorf("closing warehouse batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("committing warehouse transaction: %w", err)
	}

	s.logger.Info("batch loaded into warehouse", "source", b.Source, "table", s.table, "rows", len(b.Records))
	return "", nil
}

func insertSQL(table string) string {
	placeholders := make([]string, len(warehouseColumns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(warehouseColumns, ", "),
		strings.Join(placeholders, ", "),
	)
}

func insertArgs(r model.Record, b model.Batch) []any {
	return []any{
		r.Company,
		r.JobTitle,
		string(r.WageType),
		r.WageValue,
		r.Region,
		r.Career,
		r.JobCode,
		r.JobCodeName,
		r.CareerCode,
		r.EducationCode,
		r.WageValueMonthly,
		b.FetchedAt.UTC(),
	}
}
