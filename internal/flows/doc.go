// Package flows declares the TripWell call chains as pipeline stage lists.
//
// Each Flow names its stages, the seed keys it needs and their defaults.
// Stages read only the seed and earlier validated results, so a flow can
// be run any number of times, concurrently, against the same client.
package flows
