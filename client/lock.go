package client

import (
	"runtime"
	"strconv"
	"sync"
)

// reentrantMutex is the "core lock" spec.md §5 and §9 require to be
// either recursive or paired with unlocked-internals API variants.
// cellmqtt takes the recursive horn: the user's EventHandler is invoked
// synchronously while the lock is held, and spec.md explicitly allows it
// to call back into Publish/Subscribe/Unsubscribe re-entrantly.
//
// No reentrant-mutex library appears anywhere in the retrieval pack (see
// DESIGN.md), so this is a small stdlib-only implementation keyed on the
// calling goroutine's id, the same trick used by goroutine-local-storage
// packages in the wild (e.g. petermattis/goid) — parsing the id out of
// runtime.Stack's header line, since the runtime does not expose it
// directly.
type reentrantMutex struct {
	mu     sync.Mutex
	owner  int64
	depth  int
	holder sync.Mutex // guards owner/depth
}

func (m *reentrantMutex) Lock() {
	id := goroutineID()

	m.holder.Lock()
	if m.depth > 0 && m.owner == id {
		m.depth++
		m.holder.Unlock()
		return
	}
	m.holder.Unlock()

	m.mu.Lock()

	m.holder.Lock()
	m.owner = id
	m.depth = 1
	m.holder.Unlock()
}

func (m *reentrantMutex) Unlock() {
	id := goroutineID()

	m.holder.Lock()
	defer m.holder.Unlock()
	if m.depth == 0 || m.owner != id {
		panic("cellmqtt: Unlock of reentrantMutex not held by calling goroutine")
	}
	m.depth--
	if m.depth == 0 {
		m.mu.Unlock()
	}
}

// goroutineID extracts the calling goroutine's numeric id from the
// standard "goroutine NNN [running]:" header runtime.Stack prints. It is
// only ever used to tell "is this the same call chain that already holds
// the lock" apart from "is this a different, concurrent goroutine". If
// the header cannot be parsed it returns -1; every goroutine would then
// share that id, and Lock would treat a second goroutine as the owner.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]

	const prefix = "goroutine "
	if len(b) < len(prefix) || string(b[:len(prefix)]) != prefix {
		return -1
	}
	b = b[len(prefix):]

	i := 0
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		i++
	}
	id, err := strconv.ParseInt(string(b[:i]), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
