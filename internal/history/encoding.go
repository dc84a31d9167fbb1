package history

import (
	"encoding/binary"
	"fmt"
	"math"
)

// serializeEmbedding converts a float32 slice to bytes using little-endian
// IEEE 754 encoding, 4 bytes per value, for SQLite BLOB columns.
func serializeEmbedding(emb []float32) []byte {
	bytes := make([]byte, len(emb)*4)
	for i, f := range emb {
		binary.LittleEndian.PutUint32(bytes[i*4:], math.Float32bits(f))
	}
	return bytes
}

// deserializeEmbedding reverses serializeEmbedding. A length that is not a
// multiple of 4 indicates corrupted data.
func deserializeEmbedding(bytes []byte) ([]float32, error) {
	if len(bytes)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding data: length %d not divisible by 4", len(bytes))
	}

	floats := make([]float32, len(bytes)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(bytes[i*4:]))
	}
	return floats, nil
}
