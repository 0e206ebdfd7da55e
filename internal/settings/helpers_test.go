package settings

import (
	"context"
	"errors"
	"sync"

	"github.com/Veraticus/inbox-triage/internal/common"
)

// memPersister keeps the settings blob in memory.
type memPersister struct {
	loadErr error
	saveErr error
	blob    []byte
	saves   int
	mu      sync.Mutex
}

func (p *memPersister) LoadSettings(_ context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	if p.blob == nil {
		return nil, common.ErrNotFound
	}
	return append([]byte(nil), p.blob...), nil
}

func (p *memPersister) SaveSettings(ctx context.Context, blob []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.saveErr != nil {
		return p.saveErr
	}
	p.blob = append([]byte(nil), blob...)
	p.saves++
	return nil
}

func (p *memPersister) stored() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.blob...)
}

var errDiskFull = errors.New("disk full")
