// Package phase is the phase state machine: the ordered lifecycle
// eliciting -> scaffolding -> implementing -> extending, with one exit
// gate per transition. Gates are evaluated against the session's current
// artifacts; a failed gate reports the specific unmet criteria and leaves
// the session untouched. The machine never self-approves; operator
// approval is an explicit input to every transition.
package phase
