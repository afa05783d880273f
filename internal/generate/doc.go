// Package generate abstracts the content-producing assistant as an opaque
// capability: generate(prompt, constraints) -> artifact. The orchestrator
// never inspects the generator's reasoning, only its output's conformance
// to the declared FileNode interface. A generator that cannot produce
// conforming content without inventing business rules reports the
// ambiguity instead of guessing.
package generate
