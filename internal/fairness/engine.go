package fairness

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strconv"
)

const (
	// UNIFORM_PREFIX_BITS is the width of the digest prefix turned into a uniform.
	UNIFORM_PREFIX_BITS = 32
	// UNIFORM_DIVISOR is 2^UNIFORM_PREFIX_BITS. A uint32 divided by it is always < 1.
	UNIFORM_DIVISOR = 4294967296.0
)

// Digest returns HMAC-SHA256 keyed by serverSeed over clientSeed + ":" + nonce.
func Digest(serverSeed, clientSeed string, nonce uint64) []byte {
	return digest(serverSeed, message(clientSeed, nonce))
}

// Derive turns a seed triple into a deterministic uniform value in [0, 1).
func Derive(serverSeed, clientSeed string, nonce uint64) float64 {
	return toUniform(Digest(serverSeed, clientSeed, nonce))
}

// DeriveAt derives the cursor-th value of the draw stream for a seed triple.
// Multi-step rounds use it to draw more than one value per bet.
func DeriveAt(serverSeed, clientSeed string, nonce uint64, cursor int) float64 {
	msg := message(clientSeed, nonce) + ":" + strconv.Itoa(cursor)
	return toUniform(digest(serverSeed, msg))
}

// Verify recomputes Derive and compares it with the claimed value exactly.
func Verify(serverSeed, clientSeed string, nonce uint64, claimed float64) bool {
	return Derive(serverSeed, clientSeed, nonce) == claimed
}

// DigestHex is the hex form of Digest, handy for audit output.
func DigestHex(serverSeed, clientSeed string, nonce uint64) string {
	return hex.EncodeToString(Digest(serverSeed, clientSeed, nonce))
}

// HashCommitment creates a SHA256 hash of the seed for commitment
func HashCommitment(seed string) string {
	h := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(h[:])
}

// VerifyCommitment checks a revealed seed against an earlier commitment.
func VerifyCommitment(seed, commitment string) bool {
	return hmac.Equal([]byte(HashCommitment(seed)), []byte(commitment))
}

func message(clientSeed string, nonce uint64) string {
	return clientSeed + ":" + strconv.FormatUint(nonce, 10)
}

func digest(key, msg string) []byte {
	h := hmac.New(sha256.New, []byte(key))
	h.Write([]byte(msg))
	return h.Sum(nil)
}

func toUniform(sum []byte) float64 {
	return float64(binary.BigEndian.Uint32(sum[:UNIFORM_PREFIX_BITS/8])) / UNIFORM_DIVISOR
}
