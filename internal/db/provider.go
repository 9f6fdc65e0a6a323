package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Provider owns the two logical databases: CIMS (members, credentials, group
// mappings) and Project (teams, events, venues, equipment).
type Provider struct {
	CIMS    *gorm.DB
	Project *gorm.DB
}

// Open builds both pools.
func Open(cimsDSN, projectDSN string, opts PoolOptions) (*Provider, error) {
	cims, err := NewMySQL(cimsDSN, opts)
	if err != nil {
		return nil, fmt.Errorf("cims database: %w", err)
	}
	project, err := NewMySQL(projectDSN, opts)
	if err != nil {
		return nil, fmt.Errorf("project database: %w", err)
	}
	return &Provider{CIMS: cims, Project: project}, nil
}

// Ping reports the reachability of each database by name.
func (p *Provider) Ping(ctx context.Context) map[string]error {
	return map[string]error{
		"cims":    ping(ctx, p.CIMS),
		"project": ping(ctx, p.Project),
	}
}

// Close releases both pools.
func (p *Provider) Close() error {
	var errs []error
	for _, gdb := range []*gorm.DB{p.CIMS, p.Project} {
		if gdb == nil {
			continue
		}
		if sqlDB, err := gdb.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

func ping(ctx context.Context, gdb *gorm.DB) error {
	return Acquire(ctx, gdb, func(*gorm.DB) error { return nil })
}
