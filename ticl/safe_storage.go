package ticl

// Storage is the persistent key-value delegate beneath the client. The
// delegate may invoke a completion on any goroutine, synchronously or not.
type Storage interface {
	WriteKey(key string, value []byte, done func(err error))
	ReadKey(key string, done func(value []byte, err error))
	DeleteKey(key string, done func(err error))
	ReadAllKeys(done func(keys []string, err error))
}

// SafeStorage wraps a Storage delegate so that every completion is
// delivered on the internal scheduler goroutine. The result values are
// moved into the scheduled task, so a completion runs exactly once or is
// dropped with the task, never both.
type SafeStorage struct {
	scheduler Scheduler
	delegate  Storage
}

func NewSafeStorage(scheduler Scheduler, delegate Storage) *SafeStorage {
	return &SafeStorage{
		scheduler: scheduler,
		delegate:  delegate,
	}
}

func (self *SafeStorage) WriteKey(key string, value []byte, done func(err error)) {
	self.delegate.WriteKey(key, value, func(err error) {
		self.scheduler.Post(func() {
			done(err)
		})
	})
}

func (self *SafeStorage) ReadKey(key string, done func(value []byte, err error)) {
	self.delegate.ReadKey(key, func(value []byte, err error) {
		self.scheduler.Post(func() {
			done(value, err)
		})
	})
}

func (self *SafeStorage) DeleteKey(key string, done func(err error)) {
	self.delegate.DeleteKey(key, func(err error) {
		self.scheduler.Post(func() {
			done(err)
		})
	})
}

func (self *SafeStorage) ReadAllKeys(done func(keys []string, err error)) {
	self.delegate.ReadAllKeys(func(keys []string, err error) {
		self.scheduler.Post(func() {
			done(keys, err)
		})
	})
}
