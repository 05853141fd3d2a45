package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainRuleSet    = "fieldres/ruleset/v1"
	DomainRecords    = "fieldres/records/v1"
	DomainAssignment = "fieldres/assignment/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RuleSetHash identifies a rule set by content. Rule order is significant
// because it defines RuleIDs.
func RuleSetHash(rules RuleSet) (string, error) {
	list := make([]any, len(rules))
	for i, r := range rules {
		list[i] = map[string]any{
			"name":   r.Name,
			"first":  []int64{r.First.Min, r.First.Max},
			"second": []int64{r.Second.Min, r.Second.Max},
		}
	}
	canonical, err := MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("RuleSetHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRuleSet, canonical), nil
}

// RecordsHash identifies an ordered collection of records by content.
func RecordsHash(records []Record) (string, error) {
	list := make([]any, len(records))
	for i, r := range records {
		list[i] = r
	}
	canonical, err := MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("RecordsHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRecords, canonical), nil
}

// AssignmentHash identifies a resolved rule-name to column mapping.
// Two runs that resolved to the same mapping share the same hash.
func AssignmentHash(columns map[string]int64) (string, error) {
	canonical, err := MarshalCanonical(columns)
	if err != nil {
		return "", fmt.Errorf("AssignmentHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainAssignment, canonical), nil
}

// MustRuleSetHash is like RuleSetHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRuleSetHash(rules RuleSet) string {
	h, err := RuleSetHash(rules)
	if err != nil {
		panic(err)
	}
	return h
}
