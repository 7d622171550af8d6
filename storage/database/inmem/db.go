// Package inmemdb provides in-memory repositories backing the services in
// tests and local development, with the same semantics as the SQL layer.
package inmemdb

import (
	"sync"

	"github.com/yzGabiru/callback/core/bus"
	"github.com/yzGabiru/callback/core/presence"
	"github.com/yzGabiru/callback/core/user"
)

type (
	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User // {id: user}
	}

	busTable struct {
		mutex sync.RWMutex
		table map[string]*bus.Bus // {id: bus}
	}

	presenceTable struct {
		mutex sync.RWMutex
		table map[string]*presence.Presence // {id: presence}
	}

	DB struct {
		user     *userTable
		bus      *busTable
		presence *presenceTable
	}
)

func NewDB() *DB {
	return &DB{
		user:     &userTable{table: make(map[string]*user.User)},
		bus:      &busTable{table: make(map[string]*bus.Bus)},
		presence: &presenceTable{table: make(map[string]*presence.Presence)},
	}
}
