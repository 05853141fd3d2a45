// Package ir provides the canonical data types shared by every fieldres package.
//
// This package contains type definitions and their encoding only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - record values and range bounds are int64
//   - Rules are addressed by RuleID (their index in a RuleSet), never by name,
//     inside the resolver
//   - Content hashes use RFC 8785 canonical JSON with domain separation
package ir
