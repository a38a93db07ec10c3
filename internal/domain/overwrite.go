package domain

import "strings"

// OverwritePolicy is the process-wide rule for colliding output files.
// Once escalated to SkipAll or OverwriteAll it is sticky for the rest of
// the run and never re-prompted.
type OverwritePolicy string

const (
	PolicyAskEachTime  OverwritePolicy = "ask"
	PolicySkipAll      OverwritePolicy = "skip_all"
	PolicyOverwriteAll OverwritePolicy = "overwrite_all"
)

// OverwriteDecision is the outcome for one colliding output file.
type OverwriteDecision string

const (
	DecisionProceed      OverwriteDecision = "proceed"
	DecisionSkip         OverwriteDecision = "skip"
	DecisionEscalateAll  OverwriteDecision = "escalate_all"
	DecisionAbort        OverwriteDecision = "abort"
	DecisionPromptNeeded OverwriteDecision = "prompt"
)

// ResolveOverwrite is the pure decision over (existing-file?, policy,
// interactive-capable?). It performs no I/O; DecisionPromptNeeded tells the
// caller to ask the operator and map the answer with ParseOverwriteAnswer.
// A non-interactive run under AskEachTime skips rather than clobbers.
func ResolveOverwrite(exists bool, policy OverwritePolicy, interactive bool) OverwriteDecision {
	if !exists {
		return DecisionProceed
	}
	switch policy {
	case PolicyOverwriteAll:
		return DecisionProceed
	case PolicySkipAll:
		return DecisionSkip
	}
	if !interactive {
		return DecisionSkip
	}
	return DecisionPromptNeeded
}

// ParseOverwriteAnswer maps an operator's prompt answer to a decision.
// Accepts case-insensitive y(es)/n(o)/a(ll)/q(uit); empty input defaults to
// no. Anything else returns ok=false and the caller re-prompts.
func ParseOverwriteAnswer(answer string) (OverwriteDecision, bool) {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return DecisionProceed, true
	case "n", "no", "":
		return DecisionSkip, true
	case "a", "all":
		return DecisionEscalateAll, true
	case "q", "quit":
		return DecisionAbort, true
	}
	return "", false
}
