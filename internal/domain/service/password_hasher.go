// Package service declares the contracts the use cases and guards depend on
// for work that lives outside the store: password hashing and the identity
// provider.
package service

// PasswordHasher turns plaintext passwords into the hash persisted on a user
// record. Plaintext never reaches a repository.
type PasswordHasher interface {
	// Hash fails with ErrPasswordHashFailed when the password cannot be hashed
	// (bcrypt rejects inputs over 72 bytes).
	Hash(password string) (string, error)

	// Check reports whether password produces hash.
	Check(password, hash string) bool
}
