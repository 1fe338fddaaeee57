// Package postgres provides a PostgreSQL implementation of
// catalog.Catalog backed by pgxpool.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aquastor/depot/internal/catalog"
	"github.com/aquastor/depot/internal/errs"
)

// Driver is a PostgreSQL implementation of catalog.Catalog.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	pool *pgxpool.Pool
}

// New connects to the registry database using the provided Config and
// returns a Driver. It calls Ping to validate the connection before
// returning.
func New(ctx context.Context, cfg *catalog.Config) (*Driver, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create connection pool", err)
	}

	d := &Driver{pool: pool}

	if err := d.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return d, nil
}

// --- catalog.Catalog implementation ---

// Ping verifies the registry database is reachable.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.pool.Ping(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close drains the connection pool.
func (d *Driver) Close() {
	d.pool.Close()
}

// ResourceShow returns the registry record for a resource ID.
func (d *Driver) ResourceShow(ctx context.Context, id string) (*catalog.Resource, error) {
	const q = `
		SELECT id, package_id
		FROM resource
		WHERE id = $1`

	var res catalog.Resource
	if err := d.pool.QueryRow(ctx, q, id).Scan(&res.ID, &res.PackageID); err != nil {
		return nil, mapError(err, "resource lookup failed")
	}
	return &res, nil
}

// PackageShow returns the registry record for a dataset ID.
func (d *Driver) PackageShow(ctx context.Context, id string) (*catalog.Package, error) {
	const q = `
		SELECT id, owner_org, private
		FROM package
		WHERE id = $1`

	var pkg catalog.Package
	if err := d.pool.QueryRow(ctx, q, id).Scan(&pkg.ID, &pkg.OrganizationID, &pkg.Private); err != nil {
		return nil, mapError(err, "package lookup failed")
	}
	return &pkg, nil
}
