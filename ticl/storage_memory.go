package ticl

import (
	"fmt"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// MemoryStorage is an in-memory Storage delegate. Completions are invoked
// on a fresh goroutine, like a real store would.
type MemoryStorage struct {
	stateLock sync.Mutex
	values    map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		values: map[string][]byte{},
	}
}

func (self *MemoryStorage) WriteKey(key string, value []byte, done func(err error)) {
	self.stateLock.Lock()
	self.values[key] = slices.Clone(value)
	self.stateLock.Unlock()
	go done(nil)
}

func (self *MemoryStorage) ReadKey(key string, done func(value []byte, err error)) {
	self.stateLock.Lock()
	value, ok := self.values[key]
	if ok {
		value = slices.Clone(value)
	}
	self.stateLock.Unlock()
	if !ok {
		go done(nil, fmt.Errorf("No such key %q.", key))
		return
	}
	go done(value, nil)
}

func (self *MemoryStorage) DeleteKey(key string, done func(err error)) {
	self.stateLock.Lock()
	delete(self.values, key)
	self.stateLock.Unlock()
	go done(nil)
}

func (self *MemoryStorage) ReadAllKeys(done func(keys []string, err error)) {
	self.stateLock.Lock()
	keys := maps.Keys(self.values)
	self.stateLock.Unlock()
	slices.Sort(keys)
	go done(keys, nil)
}
