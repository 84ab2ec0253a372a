package lottery

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
)

type fastSource struct{}

func (fastSource) IntN(n int) int { return rand.Intn(n) }

// secureSource draws 8 bytes from the OS and reduces them modulo n.
type secureSource struct{}

func (secureSource) IntN(n int) int {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		// crypto/rand.Read does not fail on supported platforms.
		panic(err)
	}
	return int(binary.BigEndian.Uint64(b[:]) % uint64(n))
}

func DefaultSources() Sources {
	return Sources{Fast: fastSource{}, Secure: secureSource{}}
}
