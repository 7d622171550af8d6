package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/yzGabiru/callback/core/presence"
)

type presenceRepository struct {
	db *presenceTable
}

func NewPresenceRepository(db *DB) presence.Repository {
	return &presenceRepository{db: db.presence}
}

func (repo *presenceRepository) query() []presence.Presence {
	prss := make([]presence.Presence, 0, len(repo.db.table))
	for _, prs := range repo.db.table {
		prss = append(prss, *prs)
	}
	// most recent first, as the SQL layer orders them
	sort.Slice(prss, func(i, j int) bool { return prss[i].CallDate > prss[j].CallDate })
	return prss
}

func (repo *presenceRepository) CreatePresence(_ context.Context, prs presence.Presence) (presence.Presence, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// enforce the (student, call date) unique constraint
	for _, p := range repo.db.table {
		if p.StudentID == prs.StudentID && p.CallDate == prs.CallDate {
			return presence.Presence{}, &presence.DuplicateRegistrationError{Weekday: prs.Weekday}
		}
	}
	repo.db.table[prs.ID] = &prs
	return prs, nil
}

func (repo *presenceRepository) GetPresence(_ context.Context, studentID, callDate string) (presence.Presence, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, prs := range repo.db.table {
		if prs.StudentID == studentID && prs.CallDate == callDate {
			return *prs, nil
		}
	}
	return presence.Presence{}, presence.ErrNotFound
}

func (repo *presenceRepository) GetBusPresence(_ context.Context, busID, studentID, callDate string) (presence.Presence, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, prs := range repo.db.table {
		if prs.BusID == busID && prs.StudentID == studentID && prs.CallDate == callDate {
			return *prs, nil
		}
	}
	return presence.Presence{}, presence.ErrNotFound
}

func (repo *presenceRepository) QueryPresencesByStudent(_ context.Context, studentID, busID string) ([]presence.Presence, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	prss := make([]presence.Presence, 0)
	for _, prs := range repo.query() {
		if prs.StudentID != studentID {
			continue
		}
		if busID != "" && prs.BusID != busID {
			continue
		}
		prss = append(prss, prs)
	}
	return prss, nil
}

func (repo *presenceRepository) QueryPresencesByBus(_ context.Context, busID string) ([]presence.Presence, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	prss := make([]presence.Presence, 0)
	for _, prs := range repo.query() {
		if prs.BusID == busID {
			prss = append(prss, prs)
		}
	}
	return prss, nil
}

func (repo *presenceRepository) QueryPresencesByDate(_ context.Context, callDate string) ([]presence.Presence, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	prss := make([]presence.Presence, 0)
	for _, prs := range repo.query() {
		if prs.CallDate == callDate {
			prss = append(prss, prs)
		}
	}
	return prss, nil
}

func (repo *presenceRepository) UpdateConfirmation(
	_ context.Context,
	id, busID string,
	intendsOutbound, intendsReturn, outboundConfirmed, returnConfirmed bool,
) (presence.Presence, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	prs, ok := repo.db.table[id]
	if !ok || prs.BusID != busID {
		return presence.Presence{}, presence.ErrNotFound
	}
	prs.IntendsOutbound = intendsOutbound
	prs.IntendsReturn = intendsReturn
	prs.OutboundConfirmed = outboundConfirmed
	prs.ReturnConfirmed = returnConfirmed
	prs.UpdatedAt = time.Now().UTC()
	return *prs, nil
}

func (repo *presenceRepository) SetConfirmation(_ context.Context, id string, outboundConfirmed, returnConfirmed bool) (presence.Presence, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	prs, ok := repo.db.table[id]
	if !ok {
		return presence.Presence{}, presence.ErrNotFound
	}
	prs.OutboundConfirmed = outboundConfirmed
	prs.ReturnConfirmed = returnConfirmed
	prs.UpdatedAt = time.Now().UTC()
	return *prs, nil
}

func (repo *presenceRepository) DeletePresencesByStudent(_ context.Context, studentID string) (int64, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int64
	for id, prs := range repo.db.table {
		if prs.StudentID == studentID {
			delete(repo.db.table, id)
			n++
		}
	}
	return n, nil
}
