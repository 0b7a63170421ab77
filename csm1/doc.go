// Package csm1 implements Constitutional Semantics Mark 1: the compact
// constitutional code grammar, the 7-line token codec, and persona and
// scope resolution.
//
// Single-letter codes are ambiguous between the persona and scope
// namespaces (H is Hot-Rod in the legacy persona table and Healthcare in
// the scope table), so every lookup names its table explicitly; there is
// no combined resolution.
package csm1
