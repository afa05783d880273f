// Package elicit runs the requirements elicitation loop: a bounded
// question/answer cycle over a fixed checklist of topics, terminating on
// an explicit completeness check rather than an implicit end-of-
// conversation signal. Its output is the draft masterplan; it never
// writes FileNodes.
package elicit
