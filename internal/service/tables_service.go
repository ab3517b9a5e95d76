package service

import (
	"context"
	"fmt"

	"mosaicboard/internal/repository"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type TablesService interface {
	Health(ctx context.Context) (int, error)
}

type tablesService struct {
	tablesRepo repository.TablesRepository
	pinger     Pinger
}

func NewTablesService(tablesRepo repository.TablesRepository, pinger Pinger) TablesService {
	return &tablesService{tablesRepo: tablesRepo, pinger: pinger}
}

// Health pings the database and returns the number of public tables.
func (t *tablesService) Health(ctx context.Context) (int, error) {
	if err := t.pinger.PingContext(ctx); err != nil {
		return 0, fmt.Errorf("database is unreachable: %w", err)
	}

	countTables, err := t.tablesRepo.CountTablesDB(ctx)
	if err != nil {
		return 0, err
	}

	return countTables, nil
}
