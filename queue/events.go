package queue

import (
	"time"
)

type EventType string

const (
	EventSongAdded      EventType = "song_added"
	EventSongRemoved    EventType = "song_removed"
	EventAutoMixAdded   EventType = "auto_mix_added"
	EventSongPlayed     EventType = "song_played"
	EventQueueReordered EventType = "queue_reordered"
	EventQueueCleared   EventType = "queue_cleared"
)

type Event struct {
	Type     EventType `json:"type"`
	TrackID  string    `json:"track_id,omitempty"`
	Position int       `json:"position"`
	At       time.Time `json:"at"`
}

// eventLog keeps the most recent limit events, oldest first on read.
type eventLog struct {
	buf   []Event
	next  int
	full  bool
	total int
}

func newEventLog(limit int) *eventLog {
	return &eventLog{buf: make([]Event, max(1, limit)), next: 0, full: false, total: 0}
}

func (l *eventLog) append(e Event) {
	l.buf[l.next] = e
	l.next = (l.next + 1) % len(l.buf)
	if l.next == 0 {
		l.full = true
	}
	l.total++
}

func (l *eventLog) events() []Event {
	if !l.full {
		return append([]Event(nil), l.buf[:l.next]...)
	}
	out := make([]Event, 0, len(l.buf))
	out = append(out, l.buf[l.next:]...)
	return append(out, l.buf[:l.next]...)
}
