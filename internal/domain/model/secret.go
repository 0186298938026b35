package model

// PublicKey is an environment's secret-encryption public key as returned by
// GitHub. Key is the standard base64 encoding of a 32-byte X25519 key.
type PublicKey struct {
	KeyID string
	Key   string
}

// EncryptedSecret is a sealed secret ready for upload.
type EncryptedSecret struct {
	Name           string
	KeyID          string
	EncryptedValue string // Standard base64 of the sealed box.
}
