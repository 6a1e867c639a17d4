// Package engine holds the issue lifecycle and engagement rules: the vote
// tally, response-time estimation, escalation, the resolution ledger, comment
// authorship rules and the trust score.
//
// Every function works on in-memory models and takes the current time as an
// argument. Persistence, retries and cross-document bookkeeping live in the
// services package.
package engine
