package chat

// State is the observable session state: the ordered conversation
// (oldest first), whether a load or generation round-trip is outstanding,
// and the latest user-visible failure, if any.
type State struct {
	Messages []Message `json:"messages"`
	Loading  bool      `json:"isLoading"`
	Err      string    `json:"error,omitempty"`
}

// Clone returns a copy whose Messages slice is independent of the
// original, so callers can read it without holding the session lock.
func (s State) Clone() State {
	out := s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	return out
}
