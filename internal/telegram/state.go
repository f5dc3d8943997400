package telegram

import "sync"

// pendingAction marks a one-shot side dialogue awaiting the user's next
// message. The post collection dialogue itself lives in the flow package;
// these are the short settings and owner prompts around it.
type pendingAction int

const (
	pendingNone pendingAction = iota
	pendingClickThreshold
	pendingAdRedirectURL
	pendingChannelName
	pendingChannelURL
	pendingRedeemCode
	pendingGrant
	pendingRevoke
	pendingGenerateCodes
)

type pendingState struct {
	action pendingAction
	// channelName buffers the first answer of the two-step channel dialogue.
	channelName string
}

type StateManager struct {
	mu      sync.RWMutex
	pending map[int64]*pendingState
}

func NewStateManager() *StateManager {
	return &StateManager{pending: make(map[int64]*pendingState)}
}

func (m *StateManager) Get(chatID int64) pendingState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.pending[chatID]; ok {
		return *s
	}
	return pendingState{action: pendingNone}
}

func (m *StateManager) Set(chatID int64, state pendingState) {
	m.mu.Lock()
	m.pending[chatID] = &state
	m.mu.Unlock()
}

func (m *StateManager) Clear(chatID int64) {
	m.mu.Lock()
	delete(m.pending, chatID)
	m.mu.Unlock()
}
