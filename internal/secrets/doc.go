// Package secrets provides the key derivation and envelope cipher used to
// protect renderer bundles.
//
// # Key Derivation
//
// DeriveKey turns an operator secret into a 32-character hex key through a
// recursive salting transform followed by a length-dependent XOR mask and
// MD5. The transform must stay bit-for-bit identical to the one used by
// existing protected packages, otherwise their bundles can no longer be
// decrypted. It is not a vetted KDF: there is no work factor and the output
// is 128 bits. Do not reuse it for new formats.
//
// # Envelope Format
//
// Encrypt produces a CipherEnvelope:
//
//	IV (16 random bytes) || AES-256-CBC(PKCS#7 padded plaintext)
//
// The 32 ASCII bytes of the derived hex key are used as the AES-256 key.
// A fresh IV is drawn for every call, so encrypting the same plaintext twice
// yields different envelopes.
//
// # Security Considerations
//
// The envelope carries no authentication tag. A corrupted or truncated
// bundle either fails padding checks or decrypts to garbage; the only
// tamper detection is the whole-container fingerprint in package integrity.
// Decrypt reports every failure as errors.ErrDecryptFailed so callers cannot
// tell a wrong key from a damaged envelope.
package secrets
