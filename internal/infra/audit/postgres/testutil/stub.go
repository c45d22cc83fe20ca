// Package testutil provides a stub database/sql driver for postgres audit tests.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var stubSeq atomic.Int64

// StubConn keeps inserted rows per table and records every statement.
type StubConn struct {
	mu        sync.Mutex
	Execs     []string
	Tables    map[string][]map[string]any
	FailPing  bool
	FailExec  bool
	FailQuery bool
	RowsErr   error
}

// NewStubDB registers a sql.DB backed by an in-memory stub connection.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{Tables: make(map[string][]map[string]any)}
	name := fmt.Sprintf("stubpg%d-%d", time.Now().UnixNano(), stubSeq.Add(1))
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

// Rows returns a copy of the rows stored for table.
func (c *StubConn) Rows(table string) []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]map[string]any(nil), c.Tables[table]...)
}

// Statements returns a copy of the recorded statements.
func (c *StubConn) Statements() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.Execs...)
}

type stubDriver struct {
	conn *StubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) {
	return d.conn, nil
}

// Prepare implements driver.Conn.
func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) { return nil, fmt.Errorf("transactions not supported") }

// Ping implements driver.Pinger.
func (c *StubConn) Ping(_ context.Context) error {
	if c.FailPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

// ExecContext implements driver.ExecerContext.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Execs = append(c.Execs, query)
	if c.FailExec {
		return nil, fmt.Errorf("exec fail")
	}
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "INSERT INTO") {
		return driver.RowsAffected(0), nil
	}
	table, cols, err := parseInsert(query)
	if err != nil {
		return nil, err
	}
	if len(cols) != len(args) {
		return nil, fmt.Errorf("column/arg mismatch for %s", table)
	}
	row := make(map[string]any, len(cols))
	for i, col := range cols {
		row[col] = args[i].Value
	}
	c.Tables[table] = append(c.Tables[table], row)
	return driver.RowsAffected(1), nil
}

// QueryContext implements driver.QueryerContext. It understands a single
// "col = $n" predicate, "ORDER BY col DESC" on time columns and "LIMIT $n".
func (c *StubConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailQuery {
		return nil, fmt.Errorf("query fail")
	}
	q, err := parseSelect(query)
	if err != nil {
		return nil, err
	}
	var matched []map[string]any
	for _, row := range c.Tables[q.table] {
		if q.whereCol != "" {
			v, err := argAt(args, q.whereArg)
			if err != nil {
				return nil, err
			}
			if row[q.whereCol] != v {
				continue
			}
		}
		matched = append(matched, row)
	}
	if q.orderCol != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			a, _ := matched[i][q.orderCol].(time.Time)
			b, _ := matched[j][q.orderCol].(time.Time)
			if q.desc {
				return a.After(b)
			}
			return a.Before(b)
		})
	}
	if q.limitArg > 0 {
		v, err := argAt(args, q.limitArg)
		if err != nil {
			return nil, err
		}
		if n, ok := v.(int64); ok && int(n) < len(matched) {
			matched = matched[:n]
		}
	}
	values := make([][]driver.Value, 0, len(matched))
	for _, row := range matched {
		vals := make([]driver.Value, len(q.cols))
		for i, col := range q.cols {
			vals[i] = row[col]
		}
		values = append(values, vals)
	}
	return &stubRows{cols: q.cols, rows: values, err: c.RowsErr}, nil
}

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
	err  error
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}

func argAt(args []driver.NamedValue, ordinal int) (any, error) {
	if ordinal < 1 || ordinal > len(args) {
		return nil, fmt.Errorf("missing argument $%d", ordinal)
	}
	return args[ordinal-1].Value, nil
}

func parseInsert(query string) (string, []string, error) {
	up := strings.ToUpper(query)
	intoIdx := strings.Index(up, "INTO ")
	if intoIdx == -1 {
		return "", nil, fmt.Errorf("cannot parse insert: %s", query)
	}
	rest := strings.TrimSpace(query[intoIdx+len("INTO "):])
	open := strings.Index(rest, "(")
	closeIdx := strings.Index(rest, ")")
	if open == -1 || closeIdx == -1 || closeIdx <= open {
		return "", nil, fmt.Errorf("cannot parse insert: %s", query)
	}
	table := strings.ToLower(strings.TrimSpace(rest[:open]))
	return table, splitColumns(rest[open+1 : closeIdx]), nil
}

type selectQuery struct {
	table    string
	cols     []string
	whereCol string
	whereArg int
	orderCol string
	desc     bool
	limitArg int
}

func parseSelect(query string) (selectQuery, error) {
	var q selectQuery
	lower := strings.ToLower(strings.TrimSpace(query))
	if !strings.HasPrefix(lower, "select ") {
		return q, fmt.Errorf("cannot parse select: %s", query)
	}
	fromIdx := strings.Index(lower, " from ")
	if fromIdx == -1 {
		return q, fmt.Errorf("cannot parse select: %s", query)
	}
	q.cols = splitColumns(lower[len("select "):fromIdx])
	fields := strings.Fields(lower[fromIdx+len(" from "):])
	if len(fields) == 0 {
		return q, fmt.Errorf("cannot parse select: %s", query)
	}
	q.table = fields[0]
	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "where":
			if i+3 >= len(fields) || fields[i+2] != "=" {
				return q, fmt.Errorf("cannot parse predicate: %s", query)
			}
			q.whereCol = fields[i+1]
			n, err := placeholder(fields[i+3])
			if err != nil {
				return q, err
			}
			q.whereArg = n
			i += 3
		case "order":
			if i+2 >= len(fields) || fields[i+1] != "by" {
				return q, fmt.Errorf("cannot parse order: %s", query)
			}
			q.orderCol = strings.TrimSuffix(fields[i+2], ",")
			i += 2
			if i+1 < len(fields) && fields[i+1] == "desc" {
				q.desc = true
				i++
			}
		case "limit":
			if i+1 >= len(fields) {
				return q, fmt.Errorf("cannot parse limit: %s", query)
			}
			n, err := placeholder(fields[i+1])
			if err != nil {
				return q, err
			}
			q.limitArg = n
			i++
		}
	}
	return q, nil
}

func placeholder(tok string) (int, error) {
	if !strings.HasPrefix(tok, "$") {
		return 0, fmt.Errorf("expected placeholder, got %q", tok)
	}
	return strconv.Atoi(tok[1:])
}

func splitColumns(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.ToLower(strings.TrimSpace(part)))
	}
	return out
}
