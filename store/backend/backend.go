// Package backend opens a store.Store by driver name, so binaries can pick
// the persistence layer from configuration.
package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/drivers/sqlitedriver"

	"github.com/xraph/academy/store"
	"github.com/xraph/academy/store/memory"
	"github.com/xraph/academy/store/mongo"
	"github.com/xraph/academy/store/postgres"
	"github.com/xraph/academy/store/sqlite"
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Drivers lists the supported driver names.
func Drivers() []string {
	return []string{DriverMemory, DriverSQLite, DriverPostgres, DriverMongo}
}

// Open connects to the named backend and verifies connectivity. The dsn is
// ignored for the memory driver.
func Open(ctx context.Context, driver, dsn string) (store.Store, error) {
	var (
		s   store.Store
		err error
	)

	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverMemory, "":
		return memory.New(), nil
	case DriverSQLite, "sqlite3":
		var db *grove.DB
		d := sqlitedriver.New()
		if err = d.Open(ctx, dsn); err == nil {
			db, err = grove.Open(d)
		}
		if err == nil {
			s = sqlite.New(db)
		}
	case DriverPostgres, "pg", "postgresql":
		var db *grove.DB
		d := pgdriver.New()
		if err = d.Open(ctx, dsn); err == nil {
			db, err = grove.Open(d)
		}
		if err == nil {
			s = postgres.New(db)
		}
	case DriverMongo, "mongodb":
		var db *grove.DB
		d := mongodriver.New()
		if err = d.Open(ctx, dsn); err == nil {
			db, err = grove.Open(d)
		}
		if err == nil {
			s = mongo.New(db)
		}
	default:
		return nil, fmt.Errorf("backend: unknown driver %q (want one of %s)",
			driver, strings.Join(Drivers(), ", "))
	}
	if err != nil {
		return nil, fmt.Errorf("backend: open %s: %w", driver, err)
	}

	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("backend: ping %s: %w", driver, err)
	}
	return s, nil
}
