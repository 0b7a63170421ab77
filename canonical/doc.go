// Package canonical implements the two VCP canonicalization procedures.
//
// Content canonicalization maps constitution text to the exact byte
// sequence that is hashed: NFC normalization, LF line endings, trailing
// whitespace stripped per line, a single trailing newline, and a reject
// list of control and direction-control characters.
//
// Manifest canonicalization maps a manifest to the exact byte sequence
// that is signed: RFC 8785 (JCS) serialization with the top-level
// "signature" member removed.
//
// Both procedures are pure functions. Canonicalization is the single
// mandatory choke point before hashing or signing; nothing in this module
// hashes or signs bytes that did not pass through it.
package canonical
