package model

// Case is one evaluation unit: a character backstory checked against a
// single book. Read once from input, never mutated.
type Case struct {
	ID        string `json:"id"`
	Book      string `json:"book"`            // Book title, resolved to a corpus by the library
	Character string `json:"character"`       // Character the backstory belongs to
	Backstory string `json:"backstory"`       // Raw free-text backstory
	Truth     Label  `json:"truth,omitempty"` // Ground-truth label (training data only)
}

// Claim is one atomic assertion extracted from a backstory. Claim text is
// self-contained: checkable without referring back to the backstory.
type Claim struct {
	CaseID  string `json:"case_id"`
	Ordinal int    `json:"ordinal"` // Position in decomposition order (0-based)
	Text    string `json:"text"`
}
