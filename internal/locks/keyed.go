package locks

import (
	"sync"

	"github.com/google/uuid"
)

// StudentLocks serializes writes per student. Reads never take these locks;
// cross-student operations need no ordering.
type StudentLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewStudentLocks() *StudentLocks {
	return &StudentLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Lock acquires the write lock for one student and returns the unlock func.
func (s *StudentLocks) Lock(studentID uuid.UUID) func() {
	s.mu.Lock()
	l, ok := s.locks[studentID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[studentID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}
