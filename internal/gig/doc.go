// Package gig defines the canonical event record and its normalization
// rules.
//
// Normalization never fails: every field transformation falls back to a
// fixed sentinel on any parse error (far-future date, "-" for text,
// 0.0 for price), so one malformed upstream record can never stop a
// run. Rules are ordered, named functions returning value-or-fallback
// so each can be tested on its own.
package gig
