package draw

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand/v2"
)

// Source yields uniform random integers for draw resolution and display
// composition. Production draws use the CSPRNG source; tests use a seeded
// source so resolutions are reproducible.
type Source interface {
	// Int64N returns a uniform random value in [0, n). n must be > 0.
	Int64N(n int64) int64
}

type secureSource struct{}

func (secureSource) Int64N(n int64) int64 {
	if n <= 0 {
		return 0
	}
	max := big.NewInt(n)
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return 0
	}
	return v.Int64()
}

// Secure returns the crypto/rand backed source used in production.
func Secure() Source {
	return secureSource{}
}

type seededSource struct {
	r *mrand.Rand
}

func (s *seededSource) Int64N(n int64) int64 {
	if n <= 0 {
		return 0
	}
	return s.r.Int64N(n)
}

// Seeded returns a deterministic source for reproducible draws in tests.
func Seeded(seed uint64) Source {
	return &seededSource{r: mrand.New(mrand.NewPCG(seed, 0))}
}
