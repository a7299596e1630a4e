package sandbox

import (
	"sync"

	"github.com/testcontainers/testcontainers-go"
)

// containerRegistry tracks live containers by id so CleanupContainer can
// force-remove one that is still running from outside the Execute call that
// launched it (§5 "the executor must ensure that ... leaked containers are
// force-removed on cleanup"). Mirrors the teacher's
// RegisterSession/UnregisterSession cancel-handle map.
type containerRegistry struct {
	mu         sync.Mutex
	containers map[string]testcontainers.Container
}

func newContainerRegistry() *containerRegistry {
	return &containerRegistry{containers: make(map[string]testcontainers.Container)}
}

func (r *containerRegistry) put(id string, c testcontainers.Container) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.containers[id] = c
}

// take removes and returns the container for id, if present.
func (r *containerRegistry) take(id string) (testcontainers.Container, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.containers[id]
	if ok {
		delete(r.containers, id)
	}
	return c, ok
}
