// Package relay exposes the action-dispatch surface over HTTP. A Server is
// bound to one target and one reporter; POST /actions runs a single action
// and returns its result together with the events the run produced, and the
// handle registry tracks termination handles left open by handle-producing
// actions until a DELETE terminates them.
//
// The relay plays the "caller" role of the dispatch contract: it owns every
// handle returned by runs it performed and must stop them before shutdown.
package relay
