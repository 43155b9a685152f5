// Package models defines the core domain models for settling a shared purchase.
//
// # Models
//
//   - LineItem: one purchased good with a price and the people who shared it
//   - SettlementRequest: who paid, and for which items
//   - Balances: the signed amount per participant produced for one request
//   - Transfer: a single payment that clears part of a balance
//
// Participants are identified by opaque strings (email or username). Two
// identifiers name the same person only when they are byte-for-byte equal;
// callers are expected to supply canonical identifiers.
//
// # Sign Convention
//
// A positive balance means the participant owes the payer that amount. A
// negative balance means the participant is owed money. The payer's entry is
// the negation of everything the others owe, so a settled map always sums to
// zero.
//
// All models are transient: they are built for a single calculation and
// carry no identity beyond it.
package models
