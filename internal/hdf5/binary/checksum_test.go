package binary

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookup3Checksum(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"empty", []byte{}},
		{"single byte", []byte{0x00}},
		{"hello", []byte("hello")},
		{"12 bytes exactly", []byte("Hello World!")},
		{"13 bytes", []byte("Hello World!!")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, Lookup3Checksum(tt.input), Lookup3Checksum(tt.input))
		})
	}
}

func TestLookup3ChecksumLengthVariations(t *testing.T) {
	checksums := make(map[uint32]int)

	for length := 0; length <= 24; length++ {
		data := make([]byte, length)
		for i := range data {
			data[i] = byte(i)
		}
		checksums[Lookup3Checksum(data)] = length
	}

	require.Len(t, checksums, 25, "lengths 0-24 should hash uniquely")
}

func TestLookup3DetectsBitFlip(t *testing.T) {
	data := make([]byte, 340)
	for i := range data {
		data[i] = byte(i * 7)
	}
	sum := Lookup3Checksum(data)

	data[123] ^= 0x10
	require.NotEqual(t, sum, Lookup3Checksum(data))
}

func TestFletcher32(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"single byte", []byte{0x01}},
		{"two bytes", []byte{0x01, 0x02}},
		{"four bytes", []byte{0x01, 0x02, 0x03, 0x04}},
		{"hello", []byte("hello")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, Fletcher32(tt.input), Fletcher32(tt.input))
		})
	}

	require.Zero(t, Fletcher32([]byte{}))
}

func TestFletcher32OddLength(t *testing.T) {
	odd := []byte{0x01, 0x02, 0x03}
	even := []byte{0x01, 0x02, 0x03, 0x00}

	require.Equal(t, Fletcher32(even), Fletcher32(odd))
}

func TestVerifyChecksums(t *testing.T) {
	data := []byte("test data for verification")

	f := Fletcher32(data)
	require.NotEqual(t, f, Fletcher32(append(data[:len(data):len(data)], 0, 1)))

	l := Lookup3Checksum(data)
	require.True(t, VerifyLookup3(data, l))
	require.False(t, VerifyLookup3(data, l+1))
}

func BenchmarkLookup3Checksum(b *testing.B) {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Lookup3Checksum(data)
	}
}
