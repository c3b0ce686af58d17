package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/TobiSchelling/storedash/internal/dataset"
	"github.com/TobiSchelling/storedash/internal/table"
)

// MaxFeedbackLength is the longest feedback text accepted, in characters.
const MaxFeedbackLength = 100

var (
	ErrEmptyFeedback   = errors.New("feedback text is empty")
	ErrFeedbackTooLong = fmt.Errorf("feedback text exceeds %d characters", MaxFeedbackLength)
)

// Feedback is one submitted note.
type Feedback struct {
	Date       time.Time `json:"date"`
	Text       string    `json:"text"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Session holds the feedback list of one browser session. Entries are only
// appended or removed from the end.
type Session struct {
	ID string

	mu       sync.Mutex
	entries  []Feedback
	lastSeen time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{ID: id, lastSeen: now}
}

// Add appends a feedback entry recorded at now.
func (s *Session) Add(date time.Time, text string, now time.Time) (Feedback, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Feedback{}, ErrEmptyFeedback
	}
	if utf8.RuneCountInString(text) > MaxFeedbackLength {
		return Feedback{}, ErrFeedbackTooLong
	}
	f := Feedback{
		Date:       time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		Text:       text,
		RecordedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, f)
	return f, nil
}

// RemoveLast drops the most recent entry. It reports false when the list
// was already empty.
func (s *Session) RemoveLast() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return false
	}
	s.entries = s.entries[:len(s.entries)-1]
	return true
}

// Entries returns a copy of the feedback list in submission order.
func (s *Session) Entries() []Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Feedback(nil), s.entries...)
}

// Table renders the feedback list for display and download.
func (s *Session) Table() table.Table {
	t := table.New("Date", "Feedback", "Timestamp")
	for _, f := range s.Entries() {
		t.Rows = append(t.Rows, []string{
			f.Date.Format(dataset.DateLayout),
			f.Text,
			f.RecordedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return t
}

// Store keeps sessions in memory and forgets the ones idle for longer than
// the TTL.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session
	now      func() time.Time
}

// NewStore creates a store. A non-positive ttl keeps sessions forever.
func NewStore(ttl time.Duration) *Store {
	return &Store{ttl: ttl, sessions: make(map[string]*Session), now: time.Now}
}

// Get returns the session for id, creating a new one with a fresh id when
// id is unknown, expired or malformed.
func (st *Store) Get(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	st.evictLocked(now)

	if s, ok := st.sessions[id]; ok {
		s.lastSeen = now
		return s
	}
	s := newSession(uuid.NewString(), now)
	st.sessions[s.ID] = s
	return s
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.evictLocked(st.now())
	return len(st.sessions)
}

func (st *Store) evictLocked(now time.Time) {
	if st.ttl <= 0 {
		return
	}
	for id, s := range st.sessions {
		if now.Sub(s.lastSeen) > st.ttl {
			delete(st.sessions, id)
		}
	}
}
