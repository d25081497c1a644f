// Package tokens resolves the bearer token sent to a provider.
//
// The provider's configured token is used unless the request carries a
// "_path" parameter naming a configuration item with a non-blank "_token"
// detail. A token of the form "enc_<base64>" is decrypted with the relay key;
// a token that cannot be decrypted is sent as decoded bytes rather than
// failing the request.
package tokens
