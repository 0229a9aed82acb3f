// Package mock provides test doubles for the ai interfaces.
//
// Mocks use deterministic behavior by default (hash-derived unit vectors,
// word-by-word token streams) and support behavior injection through function
// fields for failure-path testing.
package mock
