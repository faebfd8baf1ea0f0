// Package tripwell is an HTTP client for the TripWell content service.
//
// Call performs a single request against an Endpoint and returns the raw
// Response; it only fails when the exchange itself fails. Check and
// Decode then apply the service's success rules and the endpoint's JSON
// schema, turning any failure into a *ResponseError whose message reads
// like "Meta attractions failed: 500".
//
// Requests can be routed through a SOCKS5 proxy (WithProxy), and
// endpoints marked Auth receive the bearer token set with WithToken.
package tripwell
