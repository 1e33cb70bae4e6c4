package fairness

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
)

// SEED_BYTES is the entropy of generated server and client seeds (256 bits).
const SEED_BYTES = 32

// Seed is the triple a uniform value is derived from.
type Seed struct {
	ServerSeed string `json:"server_seed"`
	ClientSeed string `json:"client_seed"`
	Nonce      uint64 `json:"nonce"`
}

// Uniform derives the seed's uniform value.
func (s Seed) Uniform() float64 {
	return Derive(s.ServerSeed, s.ClientSeed, s.Nonce)
}

// Commitment is the SHA256 commitment of the server seed.
func (s Seed) Commitment() string {
	return HashCommitment(s.ServerSeed)
}

// Generator mints server seeds and hands out nonces from a monotonically
// increasing counter. A fresh server seed is minted per assignment, so a
// (serverSeed, nonce) pair is never handed out twice.
type Generator struct {
	nonce atomic.Uint64
}

func NewGenerator() *Generator {
	return &Generator{}
}

// NewGeneratorFrom resumes the nonce counter after start, e.g. from a
// persisted high-water mark.
func NewGeneratorFrom(start uint64) *Generator {
	g := &Generator{}
	g.nonce.Store(start)
	return g
}

// GenerateSeed creates a cryptographically secure random seed
func GenerateSeed() (string, error) {
	b := make([]byte, SEED_BYTES)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (g *Generator) NewServerSeed() (string, error) {
	return GenerateSeed()
}

func (g *Generator) NextNonce() uint64 {
	return g.nonce.Add(1)
}

// Issued reports how many nonces have been handed out.
func (g *Generator) Issued() uint64 {
	return g.nonce.Load()
}

// ClientSeedOrNew passes a caller-chosen client seed through verbatim,
// empty strings included, and generates one only when none was supplied.
func (g *Generator) ClientSeedOrNew(clientSeed *string) (string, error) {
	if clientSeed != nil {
		return *clientSeed, nil
	}
	return GenerateSeed()
}

// Assign produces the seed triple for one bet.
func (g *Generator) Assign(clientSeed *string) (Seed, error) {
	server, err := g.NewServerSeed()
	if err != nil {
		return Seed{}, err
	}
	client, err := g.ClientSeedOrNew(clientSeed)
	if err != nil {
		return Seed{}, err
	}
	return Seed{
		ServerSeed: server,
		ClientSeed: client,
		Nonce:      g.NextNonce(),
	}, nil
}
