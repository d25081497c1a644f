// Package crypto encrypts provider tokens and other configuration values.
//
// Values are sealed with XChaCha20-Poly1305 under a 32 byte key and stored as
// "enc_" followed by the standard base64 encoding of nonce and ciphertext.
// The key is configured hex encoded, inline or in a file:
//
//	crypto:
//	  key: ${secret:relay_key}
//
// Keys are generated with "relay keys generate".
package crypto
