// Package reporter provides concrete core.Reporter implementations: a JSON
// line stream for machine consumers, an in-memory recorder for tests and
// inspection, a logging bridge and a fan-out combinator. All implementations
// are safe for concurrent use.
package reporter
