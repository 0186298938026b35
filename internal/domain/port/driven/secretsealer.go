package driven

// SecretSealer encrypts a plaintext so that only the holder of the private
// half of publicKey can read it.
type SecretSealer interface {
	// Seal takes a standard-base64 public key and returns the standard-base64
	// sealed box of plaintext.
	Seal(publicKey, plaintext string) (string, error)
}
