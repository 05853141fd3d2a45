// Package testutil holds deterministic fixtures shared by package tests:
// fixed run ID generators and the canonical sample notes.
package testutil
