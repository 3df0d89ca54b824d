package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Pool hands out store connections. Implementations must be safe for
// concurrent use.
type Pool interface {
	// Acquire returns a connection or fails when the store is unreachable
	// or no connection frees up within the pool's acquire timeout.
	Acquire(ctx context.Context) (Conn, error)
}

// Conn is a single acquired connection. Release must be called exactly once.
type Conn interface {
	// QueryRows runs query and returns every row, in store order.
	QueryRows(ctx context.Context, query string) ([]Row, error)

	// Exec runs query and discards any result.
	Exec(ctx context.Context, query string) error

	// Release hands the connection back to the pool.
	Release() error
}

// SQLPool implements Pool on top of database/sql's connection pool
type SQLPool struct {
	db             *sql.DB
	acquireTimeout time.Duration
}

// NewMySQLPool - MySQL 커넥션 풀 생성
// The store is not contacted here; connection errors surface on Acquire.
func NewMySQLPool(cfg DBConfig) (*SQLPool, error) {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = cfg.Addr()
	mc.DBName = cfg.Name
	mc.Timeout = cfg.ConnectTimeout
	mc.ParseTime = true
	mc.Loc = time.UTC

	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("MySQL 커넥터 생성 실패: %w", err)
	}

	return NewSQLPool(sql.OpenDB(connector), cfg.PoolSize, cfg.ConnectTimeout), nil
}

// NewSQLPool wraps db, capping it at size open connections.
func NewSQLPool(db *sql.DB, size int, acquireTimeout time.Duration) *SQLPool {
	db.SetMaxOpenConns(size)
	db.SetMaxIdleConns(size)
	return &SQLPool{db: db, acquireTimeout: acquireTimeout}
}

// Acquire pins one connection from the pool. Driver errors are returned
// as-is so callers can surface the driver's own message.
func (p *SQLPool) Acquire(ctx context.Context) (Conn, error) {
	if p.acquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.acquireTimeout)
		defer cancel()
	}

	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &sqlConn{conn: conn}, nil
}

// DB exposes the underlying handle for stats collection.
func (p *SQLPool) DB() *sql.DB {
	return p.db
}

// Stats reports pool usage.
func (p *SQLPool) Stats() sql.DBStats {
	return p.db.Stats()
}

// Close closes every connection in the pool.
func (p *SQLPool) Close() error {
	return p.db.Close()
}

type sqlConn struct {
	conn *sql.Conn
}

func (c *sqlConn) QueryRows(ctx context.Context, query string) ([]Row, error) {
	rows, err := c.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRows(rows)
}

func (c *sqlConn) Exec(ctx context.Context, query string) error {
	_, err := c.conn.ExecContext(ctx, query)
	return err
}

func (c *sqlConn) Release() error {
	return c.conn.Close()
}
