package component

import (
	"context"
	"sync"
)

// slotMedia tracks, per slot, which source was requested and what it
// resolved to. Resolution runs on a goroutine; a result is only applied if
// the slot still wants the same source.
type slotMedia struct {
	mu    sync.Mutex
	slots map[string]*mediaSlot

	// settled runs after a successful resolution, outside the lock.
	settled func(slotID, src, path string)
}

type mediaSlot struct {
	src    string
	path   string
	status MediaStatus
	extra  any
}

func (m *slotMedia) resolve(componentID, slotID, src string, rc RenderContext) mediaSlot {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.slots == nil {
		m.slots = make(map[string]*mediaSlot)
	}
	st, ok := m.slots[slotID]
	if !ok {
		st = &mediaSlot{}
		m.slots[slotID] = st
	}

	if !ok || st.src != src {
		*st = mediaSlot{src: src}
		switch {
		case src == "":
			st.status = MediaNone
		case rc.Media == nil:
			st.status = MediaFailed
		default:
			st.status = MediaLoading
			go m.fetch(rc.Media, componentID, slotID, src)
		}
	}
	return *st
}

func (m *slotMedia) fetch(media MediaRequester, componentID, slotID, src string) {
	path, ok := media.RequestMedia(context.Background(), componentID, src, false)

	m.mu.Lock()
	st, live := m.slots[slotID]
	if !live || st.src != src {
		m.mu.Unlock()
		return
	}
	if ok {
		st.path = path
		st.status = MediaReady
	} else {
		st.status = MediaFailed
	}
	settled := m.settled
	m.mu.Unlock()

	if ok && settled != nil {
		settled(slotID, src, path)
	}
}

func (m *slotMedia) setExtra(slotID, src string, extra any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.slots[slotID]; ok && st.src == src {
		st.extra = extra
	}
}

func (m *slotMedia) forget(slotID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, slotID)
}

func (m *slotMedia) slotCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}
