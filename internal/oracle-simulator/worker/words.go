package worker

import (
	"fmt"
	"io"

	"github.com/holiman/uint256"
)

// DrawWords lê n palavras de 256 bits de src (crypto/rand.Reader em produção)
func DrawWords(src io.Reader, n uint32) ([]*uint256.Int, error) {
	if n == 0 {
		n = 1
	}
	words := make([]*uint256.Int, n)
	var buf [32]byte
	for i := range words {
		if _, err := io.ReadFull(src, buf[:]); err != nil {
			return nil, fmt.Errorf("draw random word: %w", err)
		}
		words[i] = new(uint256.Int).SetBytes32(buf[:])
	}
	return words, nil
}
