// Package mysql provides a MySQL implementation of catalog.Catalog
// backed by database/sql.
package mysql

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql" // register "mysql" driver

	"github.com/aquastor/depot/internal/catalog"
	"github.com/aquastor/depot/internal/errs"
)

// Driver is a MySQL implementation of catalog.Catalog.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	db *sql.DB
}

// New opens a MySQL connection pool using the provided Config and returns
// a Driver. It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *catalog.Config) (*Driver, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}

	db.SetMaxOpenConns(int(cfg.MaxConns))
	db.SetMaxIdleConns(int(cfg.MinConns))
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	d := &Driver{db: db}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := d.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return d, nil
}

// --- catalog.Catalog implementation ---

// Ping verifies the registry database is reachable.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close drains the connection pool.
func (d *Driver) Close() {
	_ = d.db.Close()
}

// ResourceShow returns the registry record for a resource ID.
func (d *Driver) ResourceShow(ctx context.Context, id string) (*catalog.Resource, error) {
	const q = `
		SELECT id, package_id
		FROM resource
		WHERE id = ?`

	var res catalog.Resource
	if err := d.db.QueryRowContext(ctx, q, id).Scan(&res.ID, &res.PackageID); err != nil {
		return nil, mapError(err, "resource lookup failed")
	}
	return &res, nil
}

// PackageShow returns the registry record for a dataset ID.
func (d *Driver) PackageShow(ctx context.Context, id string) (*catalog.Package, error) {
	const q = `
		SELECT id, owner_org, private
		FROM package
		WHERE id = ?`

	var pkg catalog.Package
	if err := d.db.QueryRowContext(ctx, q, id).Scan(&pkg.ID, &pkg.OrganizationID, &pkg.Private); err != nil {
		return nil, mapError(err, "package lookup failed")
	}
	return &pkg, nil
}
