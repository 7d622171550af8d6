package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/yzGabiru/callback/core/bus"
)

type busRepository struct {
	db *busTable
}

func NewBusRepository(db *DB) bus.Repository {
	return &busRepository{db: db.bus}
}

func (repo *busRepository) query() []bus.Bus {
	buses := make([]bus.Bus, 0, len(repo.db.table))
	for _, b := range repo.db.table {
		buses = append(buses, *b)
	}
	sort.Slice(buses, func(i, j int) bool { return buses[i].Name < buses[j].Name })
	return buses
}

func (repo *busRepository) CheckNameUniqueness(_ context.Context, name string, excludedBuses ...bus.Bus) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, b := range repo.query() {
		if b.Name != name {
			continue
		}
		var excluded bool
		for _, excl := range excludedBuses {
			if excl.ID == b.ID {
				excluded = true
				break
			}
		}
		if !excluded {
			return bus.ErrNameExists
		}
	}
	return nil
}

func (repo *busRepository) CreateBus(_ context.Context, b bus.Bus) (bus.Bus, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table[b.ID] = &b
	return b, nil
}

func (repo *busRepository) QueryAllBuses(_ context.Context) ([]bus.Bus, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *busRepository) GetBusByID(_ context.Context, id string) (bus.Bus, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if b, ok := repo.db.table[id]; ok {
		return *b, nil
	}
	return bus.Bus{}, bus.ErrNotFound
}

func (repo *busRepository) UpdateBus(_ context.Context, b bus.Bus) (bus.Bus, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	origBus, ok := repo.db.table[b.ID]
	if !ok {
		return bus.Bus{}, bus.ErrNotFound
	}
	if b.Name != "" {
		origBus.Name = b.Name
	}
	if b.Description != "" {
		origBus.Description = b.Description
	}
	if !b.UpdatedAt.IsZero() {
		origBus.UpdatedAt = b.UpdatedAt
	} else {
		origBus.UpdatedAt = time.Now().UTC()
	}

	repo.db.table[b.ID] = origBus
	return *origBus, nil
}

func (repo *busRepository) DeleteBusesByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var matched bool
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			matched = true
			delete(repo.db.table, id)
		}
	}
	if !matched {
		return bus.ErrNotFound
	}
	return nil
}
