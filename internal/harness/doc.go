// Package harness runs YAML resolution scenarios end to end and compares
// their per-pass commit trace against golden files.
//
// A scenario names a notes document (inline or by file), optional resolver
// options and the outcome it expects:
//
//	name: sample
//	description: three columns resolve in three passes
//	notes_file: sample.notes
//	expect:
//	  assignment: {row: 0, class: 1, seat: 2}
//	  lookup: {class: 12, row: 11, seat: 13}
//
// Each scenario runs through a fresh session backed by an in-memory store,
// with sequential run IDs, so traces are reproducible byte for byte.
//
// Golden traces live in testdata/golden/{name}.golden as canonical JSON.
// To regenerate them:
//
//	go test ./internal/harness -update
package harness
