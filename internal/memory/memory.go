// Package memory implements bounded per-session conversation memory.
//
// A Memory holds an ordered sequence of exchanges (one student question
// paired with one tutor answer). Capacity is bounded and always even so
// question/answer pairs stay aligned: query reformulation must never see a
// question without its answer. When the bound is reached, the oldest pair
// is evicted first (FIFO).
//
// Memory is safe for concurrent use by multiple goroutines, though the
// session registry guarantees a given Memory is only touched by requests
// carrying that session's id.
package memory

import (
	"strings"
	"sync"
)

// Role identifies the author of a stored message.
type Role string

// Message roles in conversation order: the student asks, the tutor answers.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultCapacity is the default maximum number of stored messages
// (5 question/answer pairs).
const DefaultCapacity = 10

// Exchange is a single stored message. Immutable once stored; slice order
// is conversation order.
type Exchange struct {
	Role    Role
	Content string
}

// Pair is one complete question/answer exchange.
type Pair struct {
	Question string
	Answer   string
}

// Memory is a fixed-capacity ordered sequence of exchanges.
type Memory struct {
	mu       sync.Mutex
	capacity int // always even, >= 2
	messages []Exchange
}

// New creates a Memory bounded to capacity messages.
// Odd capacities are rounded up to the next even value so pairs stay
// aligned; capacities below 2 fall back to DefaultCapacity.
func New(capacity int) *Memory {
	if capacity < 2 {
		capacity = DefaultCapacity
	}
	if capacity%2 != 0 {
		capacity++
	}
	return &Memory{
		capacity: capacity,
		messages: make([]Exchange, 0, capacity),
	}
}

// Capacity returns the maximum number of stored messages.
func (m *Memory) Capacity() int {
	return m.capacity
}

// AddExchange appends a question/answer pair atomically, evicting the
// oldest pair first when the memory is full. It has no error conditions.
func (m *Memory) AddExchange(question, answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.messages)+2 > m.capacity {
		m.messages = m.messages[2:]
	}
	m.messages = append(m.messages,
		Exchange{Role: RoleUser, Content: question},
		Exchange{Role: RoleAssistant, Content: answer},
	)
}

// Recent returns the most recent min(nPairs, available) pairs, oldest
// first. It never mutates the memory.
func (m *Memory) Recent(nPairs int) []Pair {
	m.mu.Lock()
	defer m.mu.Unlock()

	if nPairs <= 0 {
		return nil
	}
	available := len(m.messages) / 2
	if nPairs > available {
		nPairs = available
	}
	if nPairs == 0 {
		return nil
	}

	pairs := make([]Pair, 0, nPairs)
	start := len(m.messages) - nPairs*2
	for i := start; i < len(m.messages); i += 2 {
		pairs = append(pairs, Pair{
			Question: m.messages[i].Content,
			Answer:   m.messages[i+1].Content,
		})
	}
	return pairs
}

// LastQuestion returns the most recent student question, or false when the
// memory is empty.
func (m *Memory) LastQuestion() (string, bool) {
	pairs := m.Recent(1)
	if len(pairs) == 0 {
		return "", false
	}
	return pairs[0].Question, true
}

// Len returns the number of stored messages (two per pair).
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// IsEmpty reports whether the memory holds no exchanges.
func (m *Memory) IsEmpty() bool {
	return m.Len() == 0
}

// Clear empties the memory. Idempotent.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = m.messages[:0]
}

// PromptHistory renders the most recent nPairs exchanges as Student/Tutor
// lines for inclusion in a generation prompt. Returns "" when empty.
func (m *Memory) PromptHistory(nPairs int) string {
	pairs := m.Recent(nPairs)
	if len(pairs) == 0 {
		return ""
	}

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("Student: ")
		b.WriteString(p.Question)
		b.WriteString("\nTutor: ")
		b.WriteString(p.Answer)
	}
	return b.String()
}
