// Package testutil contains helper doubles used across tests to reduce
// boilerplate when exercising the dispatch core against a fake target. These
// helpers are intentionally minimal and avoid adding third-party
// dependencies. They are not intended for production usage.
package testutil
