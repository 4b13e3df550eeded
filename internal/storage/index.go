// Package storage indexes the records of a run in an in-memory SQLite
// database. Every RecordIndex owns a private database that disappears
// with it; nothing is written to disk.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"saoke/internal/core"
	"saoke/internal/table"
)

type RecordIndex struct {
	db  *sql.DB
	dsn string
}

// orderColumns whitelists ORDER BY expressions per sortable column.
var orderColumns = map[table.Column]string{
	table.ColDate:      "date",
	table.ColDocNumber: "doc_number",
	table.ColMoney:     "amount",
	table.ColDetail:    "detail",
	table.ColPage:      "page",
}

func NewRecordIndex() (*RecordIndex, error) {
	dsn := fmt.Sprintf("file:saoke-%s?mode=memory&cache=shared", uuid.NewString())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one connection: it keeps the memory database alive and serializes access
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &RecordIndex{db: db, dsn: dsn}, nil
}

func (x *RecordIndex) Close() error {
	if x.db != nil {
		return x.db.Close()
	}
	return nil
}

// Load implements table.Index
func (x *RecordIndex) Load(ctx context.Context, records []core.Record) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records
		(seq, date, doc_number, raw_money, amount, amount_ok, detail, page, haystack)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		ok := 0
		if r.AmountOK {
			ok = 1
		}
		if _, err := stmt.ExecContext(ctx, i, r.Date, r.DocNumber, r.RawMoney, r.Amount.Units, ok, r.Detail, r.Page, table.Haystack(r)); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit load: %w", err)
	}

	slog.DebugContext(ctx, "Records indexed in SQLite", "records", len(records))
	return nil
}

// Query implements table.Index
func (x *RecordIndex) Query(ctx context.Context, q table.Query) (table.Page, error) {
	q = q.Normalize(table.DefaultPageSize)
	page := table.Page{Page: q.Page, Size: q.Size}

	if err := x.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("count records: %w", err)
	}

	where := ""
	var args []any
	if q.Search != "" {
		where = "WHERE instr(haystack, ?) > 0"
		args = append(args, q.Search)
	}

	if err := x.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records `+where, args...).Scan(&page.Filtered); err != nil {
		return page, fmt.Errorf("count filtered records: %w", err)
	}

	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	query := fmt.Sprintf(`SELECT date, doc_number, raw_money, amount, amount_ok, detail, page
		FROM records %s ORDER BY %s %s, seq ASC LIMIT ? OFFSET ?`, where, orderColumns[q.SortBy], dir)
	args = append(args, q.Size, q.Offset())

	rows, err := x.db.QueryContext(ctx, query, args...)
	if err != nil {
		return page, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	page.Records = []core.Record{}
	for rows.Next() {
		var r core.Record
		var ok int
		if err := rows.Scan(&r.Date, &r.DocNumber, &r.RawMoney, &r.Amount.Units, &ok, &r.Detail, &r.Page); err != nil {
			return page, fmt.Errorf("scan record: %w", err)
		}
		r.AmountOK = ok == 1
		page.Records = append(page.Records, r)
	}
	if err := rows.Err(); err != nil {
		return page, fmt.Errorf("iterate records: %w", err)
	}
	return page, nil
}
