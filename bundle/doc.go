// Package bundle implements the VCP bundle model and its verification.
//
// A bundle pairs constitution content with a signed manifest. The
// verifier applies a fixed check order: manifest well-formedness, then
// content digest, then issuer signature over the canonical manifest
// bytes. The first failing check is reported and later checks do not
// run. Temporal validity (nbf/exp) is a separate concern; see
// ValidateWindow.
package bundle
