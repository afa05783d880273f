// Package logging wraps Zap with context-aware methods: every log call
// picks up trace and session correlation fields from the context. One
// logger serves the whole process; components derive named children.
package logging
