// Package password provides credential hashing and verification for storage
// backends.
//
// It implements Argon2id hashing using a PHC-like encoded string format:
//
//	$argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<hash_b64>
//
// Security notes:
//   - Hash strings are treated as untrusted input during Verify and are
//     validated accordingly.
//   - Verification refuses hashes with parameters that exceed reasonable
//     bounds.
//   - Check falls back to a constant-time plaintext comparison when the
//     stored secret is not a PHC string, so backends accept records seeded
//     either way. Password policy (strength, rotation) is the application's
//     concern, not this package's.
package password
