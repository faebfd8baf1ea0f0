// Package pipeline runs chains of dependent remote operations.
//
// A pipeline is an ordered list of Stages. Each stage builds its input
// from the seed and the validated results of earlier stages, performs one
// remote call, and validates the response before the result is stored.
// The Runner executes stages strictly in order and stops at the first
// failure; every outcome, including a malformed stage list, is returned
// as a Report instead of an error.
//
// Failures are classified by the phase that produced them:
// PreconditionError (input construction), TransportError (invocation or
// cancellation) and ValidationError (response checks).
//
// Progress is published to a Reporter. Reporter panics are recovered so
// observers can never change the outcome of a run.
//
// BatchProcessor runs one stage list against many seeds concurrently
// using errgroup, giving each run its own context and report.
package pipeline
