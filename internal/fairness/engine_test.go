package fairness

import (
	"strconv"
	"testing"
)

func TestDerive_Range(t *testing.T) {
	for i := 0; i < 5000; i++ {
		got := Derive("range_server_seed", "range_client_seed", uint64(i))
		if got < 0 || got >= 1 {
			t.Fatalf("Derive() nonce %d = %v, want [0, 1)", i, got)
		}
	}
}

func TestDerive_MaxPrefixStaysBelowOne(t *testing.T) {
	max := []byte{0xff, 0xff, 0xff, 0xff, 0x00}
	got := toUniform(max)
	if got >= 1 {
		t.Errorf("toUniform(0xffffffff) = %v, want < 1", got)
	}
	if got != 4294967295.0/4294967296.0 {
		t.Errorf("toUniform(0xffffffff) = %v", got)
	}
}

func TestDerive_Deterministic(t *testing.T) {
	serverSeed := "deterministic_test_seed"
	clientSeed := "deterministic_client_seed"
	nonce := uint64(42)

	result1 := Derive(serverSeed, clientSeed, nonce)
	result2 := Derive(serverSeed, clientSeed, nonce)
	result3 := Derive(serverSeed, clientSeed, nonce)

	if result1 != result2 || result2 != result3 {
		t.Errorf("Derive() is not deterministic: got %v, %v, %v", result1, result2, result3)
	}
}

func TestDerive_DifferentNonces(t *testing.T) {
	seen := make(map[float64]bool)
	for i := uint64(1); i <= 3; i++ {
		seen[Derive("test_seed", "test_client", i)] = true
	}
	if len(seen) == 1 {
		t.Error("Derive() produces same result for different nonces (unlikely)")
	}
}

func TestDerive_EmptyClientSeed(t *testing.T) {
	got := Derive("server", "", 7)
	if got < 0 || got >= 1 {
		t.Fatalf("Derive() with empty client seed = %v", got)
	}
	if !Verify("server", "", 7, got) {
		t.Error("Verify() rejected empty client seed round trip")
	}
}

func TestDeriveAt_DistinctFromDerive(t *testing.T) {
	base := Derive("s", "c", 1)
	if DeriveAt("s", "c", 1, 0) == base && DeriveAt("s", "c", 1, 1) == base {
		t.Error("DeriveAt() stream collapses onto Derive()")
	}
	if DeriveAt("s", "c", 1, 3) != DeriveAt("s", "c", 1, 3) {
		t.Error("DeriveAt() is not deterministic")
	}
}

func TestVerify(t *testing.T) {
	serverSeed := "verification_test_seed"
	clientSeed := "verification_client_seed"
	nonce := uint64(100)

	actual := Derive(serverSeed, clientSeed, nonce)

	tests := []struct {
		name       string
		serverSeed string
		clientSeed string
		nonce      uint64
		claimed    float64
		want       bool
	}{
		{
			name:       "Valid verification",
			serverSeed: serverSeed,
			clientSeed: clientSeed,
			nonce:      nonce,
			claimed:    actual,
			want:       true,
		},
		{
			name:       "Claimed value off by one ulp",
			serverSeed: serverSeed,
			clientSeed: clientSeed,
			nonce:      nonce,
			claimed:    actual + 1.0/UNIFORM_DIVISOR,
			want:       false,
		},
		{
			name:       "Wrong server seed",
			serverSeed: "wrong_seed",
			clientSeed: clientSeed,
			nonce:      nonce,
			claimed:    actual,
			want:       false,
		},
		{
			name:       "Wrong nonce",
			serverSeed: serverSeed,
			clientSeed: clientSeed,
			nonce:      nonce + 1,
			claimed:    actual,
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Verify(tt.serverSeed, tt.clientSeed, tt.nonce, tt.claimed)
			if got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVerify_SingleCharacterTamper(t *testing.T) {
	serverSeed := "a3f1c9e07b5d44e2a3f1c9e07b5d44e2"
	clientSeed := "player-chosen-seed"
	nonce := uint64(1234)
	claimed := Derive(serverSeed, clientSeed, nonce)

	mutate := func(s string, i int) string {
		b := []byte(s)
		if b[i] == 'x' {
			b[i] = 'y'
		} else {
			b[i] = 'x'
		}
		return string(b)
	}

	misses := 0
	total := 0
	for i := range serverSeed {
		total++
		if Verify(mutate(serverSeed, i), clientSeed, nonce, claimed) {
			misses++
		}
	}
	for i := range clientSeed {
		total++
		if Verify(serverSeed, mutate(clientSeed, i), nonce, claimed) {
			misses++
		}
	}
	nonceStr := strconv.FormatUint(nonce, 10)
	for i := range nonceStr {
		b := []byte(nonceStr)
		b[i] = '0' + (b[i]-'0'+1)%10
		n, _ := strconv.ParseUint(string(b), 10, 64)
		total++
		if Verify(serverSeed, clientSeed, n, claimed) {
			misses++
		}
	}

	if misses > 0 {
		t.Errorf("%d of %d tampered triples still verified", misses, total)
	}
}

func TestHashCommitment(t *testing.T) {
	seed := "test_seed_12345"

	hash1 := HashCommitment(seed)
	hash2 := HashCommitment(seed)

	if hash1 != hash2 {
		t.Error("HashCommitment() is not deterministic")
	}
	if len(hash1) != 64 {
		t.Errorf("HashCommitment() length = %v, want 64", len(hash1))
	}
	if !VerifyCommitment(seed, hash1) {
		t.Error("VerifyCommitment() rejected matching seed")
	}
	if VerifyCommitment(seed+"x", hash1) {
		t.Error("VerifyCommitment() accepted a different seed")
	}
}

func TestDigestHex(t *testing.T) {
	if got := DigestHex("s", "c", 1); len(got) != 64 {
		t.Errorf("DigestHex() length = %d, want 64", len(got))
	}
}

func BenchmarkDerive(b *testing.B) {
	serverSeed := "benchmark_server_seed"
	clientSeed := "benchmark_client_seed"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Derive(serverSeed, clientSeed, uint64(i))
	}
}
