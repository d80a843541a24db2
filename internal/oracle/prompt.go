package oracle

import (
	"fmt"
	"strings"

	"github.com/lorecheck/lorecheck/internal/model"
)

// buildDecomposePrompt constructs the claim extraction prompt.
func buildDecomposePrompt(req DecomposeRequest) string {
	return fmt.Sprintf(`You are extracting atomic claims.
Character: %s
Book: %s
Backstory:
"""%s"""

Task:
- Extract 5-7 atomic, verifiable claims about this character.
- Focus on traits, past events, relationships, skills, fears, and motivations.
- Each claim must be self-contained and checkable against the novel text.

Return a JSON array of strings, for example:
[
  "He trained as a medic during the uprising.",
  "She distrusts the royal court due to past betrayal."
]`, req.Character, req.Book, req.Backstory)
}

// buildJudgePrompt constructs the per-claim verification prompt.
func buildJudgePrompt(req JudgeRequest) string {
	return fmt.Sprintf(`You are verifying backstory consistency.

Character: %s
Book: %s
Claim to verify: "%s"

Retrieved passages:
%s

Instructions:
- Check for DIRECT CONTRADICTIONS (explicit conflicts).
- Check CAUSAL CONSISTENCY (does this past make future events plausible?).
- Check BEHAVIORAL PATTERNS (does the backstory explain actions?).
- Decide if the character could have this backstory given the text.

Examples of CONSISTENT:
- Claim: "She was a skilled navigator." Passages show her guiding ships successfully.
- Claim: "He vowed to protect his sister." Passages show him guarding her in danger.

Examples of CONTRADICT:
- Claim: "He loves the monarchy." Passages show he led a revolt against the king.
- Claim: "She never left her village." Passages show her traveling abroad for years.

Return JSON with:
{
  "label": "consistent" or "contradict",
  "confidence": float between 0.0 and 1.0,
  "rationale": "detailed explanation",
  "key_evidence": "most relevant passage"
}`, req.Character, req.Book, req.Claim, formatPassages(req.Passages))
}

// formatPassages renders retrieved passages for the prompt, best match
// first.
func formatPassages(passages []model.Passage) string {
	if len(passages) == 0 {
		return "No passages found."
	}
	lines := make([]string, len(passages))
	for i, p := range passages {
		lines[i] = fmt.Sprintf("[%d] (score=%.4f, pos=%d) %s", p.Rank, p.Score, p.Position, p.Text)
	}
	return strings.Join(lines, "\n")
}
