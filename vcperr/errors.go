// Package vcperr defines the structured error taxonomy shared by the VCP
// core packages.
//
// Every validation failure in the protocol core is a *Error carrying a
// stable Kind and RuleID. Callers branch on Kind or RuleID via errors.As;
// Error() strings are for humans and may change.
package vcperr

import "errors"

// Kind is a stable category for programmatic error handling.
//
// These categories are intended to remain stable across versions.
// Callers should branch on Kind/RuleID rather than matching error strings.
type Kind string

const (
	KindInvalidEncoding        Kind = "InvalidEncoding"
	KindMalformedManifest      Kind = "MalformedManifest"
	KindDigestMismatch         Kind = "DigestMismatch"
	KindSignatureInvalid       Kind = "SignatureInvalid"
	KindDeprecatedPersonaCode  Kind = "DeprecatedPersonaCode"
	KindUnknownCompositionMode Kind = "UnknownCompositionMode"
	KindTokenGrammar           Kind = "TokenGrammarError"
	KindInternal               Kind = "Internal"
)

// Error is the structured error type used across the VCP core.
//
// RuleID is a stable identifier (e.g., VCP-CANON-001, VCP-TOKEN-104,
// VCP-SIG-401) that names the violated invariant or validation rule.
//
// Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func New(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

func Wrap(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return New(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
