package net

import "sort"

// Hub tracks the live sessions. Game loop goroutine only.
type Hub struct {
	sessions map[uint64]*Session
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[uint64]*Session)}
}

func (h *Hub) Add(s *Session) {
	h.sessions[s.ID] = s
}

func (h *Hub) Remove(id uint64) {
	delete(h.sessions, id)
}

func (h *Hub) Get(id uint64) *Session {
	return h.sessions[id]
}

func (h *Hub) Len() int {
	return len(h.sessions)
}

// ForEach visits sessions in ascending ID order.
func (h *Hub) ForEach(fn func(*Session)) {
	ids := make([]uint64, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fn(h.sessions[id])
	}
}

// Broadcast queues a frame on every open session.
func (h *Hub) Broadcast(frame []byte) {
	for _, s := range h.sessions {
		s.Send(frame)
	}
}

// CloseAll closes and forgets every session.
func (h *Hub) CloseAll() {
	for id, s := range h.sessions {
		s.Close()
		delete(h.sessions, id)
	}
}
