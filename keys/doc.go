// Package keys provides the key material helpers used by the VCP core.
//
// Stable:
//   - Pure, deterministic primitives for public-key formatting, seed-based
//     key generation, role-seed derivation, signing, and verification.
//
// Experimental:
//   - Filesystem-backed key storage and convenience helpers (KeyStore and
//     related functions). These are local-first utilities and are not part
//     of the long-term protocol contract.
package keys
