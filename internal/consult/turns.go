package consult

// Turn is one transcript entry: who spoke, what they said, and where in the
// exchange it happened. Content is stored as the completion service returned
// it, malformed or empty output included.
type Turn struct {
	Speaker string `json:"speaker"`
	Content string `json:"content"`
	Index   int    `json:"index"`
}

// Transcript is the ordered, append-only record of one consultation. It is
// created fresh per request and read-only once orchestration ends.
type Transcript []Turn

// Final returns the last turn spoken by the given role, or false when the
// role never spoke. The consolidation role's final turn carries the
// structured payload.
func (t Transcript) Final(speaker string) (Turn, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Speaker == speaker {
			return t[i], true
		}
	}
	return Turn{}, false
}
