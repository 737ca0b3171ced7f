// Package password provides Argon2id password hashing and verification.
//
// Hashes use the PHC string format
// ($argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt>$<key>), so every stored hash
// carries its own salt and cost parameters.
//
// Hash strings are treated as untrusted input during Verify: decoding is
// strict, and hashes whose parameters exceed the configured maxima by a wide
// margin are refused rather than computed.
package password
