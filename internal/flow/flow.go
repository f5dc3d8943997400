// Package flow implements the post collection dialogue as an explicit
// finite-state machine, independent of any chat transport. One session per
// user; the caller feeds it text and choices and gets back the next prompt.
package flow

import (
	"errors"
	"strings"
	"sync"

	"github.com/moviegate/postbot/internal/models"
)

type State int

const (
	StateIdle State = iota
	StateName
	StatePoster
	StateYear
	StateLanguage
	StateQuality
	StateLink
	StateConfirm
)

// Choice is the typed input for the confirm step.
type Choice int

const (
	ChoiceAddMore Choice = iota
	ChoiceFinalize
)

// Prompt tells the caller what to ask the user next. Wording belongs to the
// transport layer.
type Prompt int

const (
	PromptNone Prompt = iota
	PromptName
	PromptPoster
	PromptYear
	PromptLanguage
	PromptQuality
	PromptLink
	PromptConfirm
)

var ErrNoSession = errors.New("no collection in progress")
var ErrEmptyInput = errors.New("input is empty")
var ErrAwaitingChoice = errors.New("awaiting add-more/finalize choice")
var ErrNotConfirming = errors.New("not at the confirm step")

type session struct {
	state          State
	draft          models.Draft
	pendingQuality string
}

// Manager holds per-user sessions behind a mutex. Exactly one draft may be in
// flight per user; starting again discards the previous one.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[int64]*session)}
}

// Start begins (or restarts) a collection. Last start wins.
func (m *Manager) Start(userID int64) Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = &session{state: StateName}
	return PromptName
}

// State reports the user's current position, StateIdle when no session
// exists.
func (m *Manager) State(userID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s.state
	}
	return StateIdle
}

// Active reports whether a draft is in flight.
func (m *Manager) Active(userID int64) bool {
	return m.State(userID) != StateIdle
}

// Input feeds one text value into the dialogue and returns the next prompt.
// Blank input re-prompts the same step. Fields are accepted as-is beyond the
// non-empty check; the dialogue does not second-guess the author.
func (m *Manager) Input(userID int64, text string) (Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok || s.state == StateIdle {
		return PromptNone, ErrNoSession
	}
	if s.state == StateConfirm {
		return PromptConfirm, ErrAwaitingChoice
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return promptFor(s.state), ErrEmptyInput
	}

	switch s.state {
	case StateName:
		s.draft.Title = text
		s.state = StatePoster
	case StatePoster:
		s.draft.PosterURL = text
		s.state = StateYear
	case StateYear:
		s.draft.Year = text
		s.state = StateLanguage
	case StateLanguage:
		s.draft.Language = text
		s.state = StateQuality
	case StateQuality:
		s.pendingQuality = text
		s.state = StateLink
	case StateLink:
		s.draft.Links = append(s.draft.Links, models.QualityLink{
			Quality: s.pendingQuality,
			URL:     text,
		})
		s.pendingQuality = ""
		s.state = StateConfirm
	}
	return promptFor(s.state), nil
}

// Choose resolves the confirm step. ChoiceAddMore loops back to the quality
// step; ChoiceFinalize returns the completed draft and ends the session. The
// confirm step is only reachable after a pair was stored, so a finalized
// draft always has at least one link.
func (m *Manager) Choose(userID int64, choice Choice) (models.Draft, Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok || s.state != StateConfirm {
		return models.Draft{}, PromptNone, ErrNotConfirming
	}

	if choice == ChoiceAddMore {
		s.state = StateQuality
		return models.Draft{}, PromptQuality, nil
	}

	draft := s.draft
	delete(m.sessions, userID)
	if !draft.Ready() {
		return models.Draft{}, PromptNone, ErrNoSession
	}
	return draft, PromptNone, nil
}

// Cancel discards any in-flight draft. It reports whether there was one.
func (m *Manager) Cancel(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[userID]; !ok {
		return false
	}
	delete(m.sessions, userID)
	return true
}

func promptFor(state State) Prompt {
	switch state {
	case StateName:
		return PromptName
	case StatePoster:
		return PromptPoster
	case StateYear:
		return PromptYear
	case StateLanguage:
		return PromptLanguage
	case StateQuality:
		return PromptQuality
	case StateLink:
		return PromptLink
	case StateConfirm:
		return PromptConfirm
	default:
		return PromptNone
	}
}
