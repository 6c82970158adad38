package persist

import (
	"context"
	"sync"
)

// Sink accepts serialized saves. Write replaces whatever was stored before.
type Sink interface {
	Write(ctx context.Context, blob []byte) error
}

// Source yields the most recent save. found is false when nothing has been
// saved yet; err is reserved for an unreachable medium.
type Source interface {
	Read(ctx context.Context) (blob []byte, found bool, err error)
}

// Medium is a save slot that can be both written and read.
type Medium interface {
	Sink
	Source
}

// Wiper is a Sink that can forget everything it stored. A confirmed reset
// wipes the slot when the sink supports it.
type Wiper interface {
	Delete(ctx context.Context) error
}

// Memory is an in-process Medium for tests and ephemeral sessions.
// SetFail injects an error returned by every later call.
type Memory struct {
	mu     sync.Mutex
	blob   []byte
	writes int
	fail   error
}

// NewMemory returns an empty Memory medium.
func NewMemory() *Memory {
	return &Memory{}
}

// Write stores a copy of blob.
func (m *Memory) Write(_ context.Context, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.blob = append([]byte(nil), blob...)
	m.writes++
	return nil
}

// Read returns a copy of the stored blob.
func (m *Memory) Read(_ context.Context) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, false, m.fail
	}
	if m.blob == nil {
		return nil, false, nil
	}
	return append([]byte(nil), m.blob...), true, nil
}

// Writes returns how many writes succeeded.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// SetFail changes the injected failure under the lock.
func (m *Memory) SetFail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

// Delete forgets the stored blob.
func (m *Memory) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.blob = nil
	return nil
}
