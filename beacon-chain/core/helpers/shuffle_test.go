package helpers

import (
	"fmt"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/crypto/hash"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func TestShuffledIndex_OK(t *testing.T) {
	var seed [32]byte
	copy(seed[:], []byte{1, 128, 12})
	want := []primitives.ValidatorIndex{84, 44, 5, 85, 42, 43, 28, 40, 26, 22}
	for i, w := range want {
		got, err := ShuffledIndex(primitives.ValidatorIndex(i), 100, seed, 90)
		require.NoError(t, err)
		assert.Equal(t, w, got, "ShuffledIndex(%d)", i)
	}
}

func TestShuffledIndex_Vectors(t *testing.T) {
	seed := hash.Hash([]byte("beacon"))
	tests := []struct {
		index  primitives.ValidatorIndex
		count  uint64
		rounds uint64
		want   primitives.ValidatorIndex
	}{
		{index: 0, count: 1000, rounds: 90, want: 744},
		{index: 1, count: 1000, rounds: 90, want: 842},
		{index: 255, count: 1000, rounds: 90, want: 951},
		{index: 256, count: 1000, rounds: 90, want: 717},
		{index: 511, count: 1000, rounds: 90, want: 347},
		{index: 999, count: 1000, rounds: 90, want: 867},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.index, tt.count), func(t *testing.T) {
			got, err := ShuffledIndex(tt.index, tt.count, seed, tt.rounds)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	want := []primitives.ValidatorIndex{6, 1, 0, 3, 2, 4, 5}
	for i, w := range want {
		got, err := ShuffledIndex(primitives.ValidatorIndex(i), 7, seed, 10)
		require.NoError(t, err)
		assert.Equal(t, w, got)
	}
}

func TestShuffledIndex_Errors(t *testing.T) {
	var seed [32]byte
	_, err := ShuffledIndex(10, 10, seed, 90)
	require.ErrorContains(t, "out of bounds", err)
	_, err = ShuffledIndex(0, maxShuffleListSize+1, seed, 90)
	require.ErrorContains(t, "list size", err)
	_, err = ShuffledIndex(0, 10, seed, 256)
	require.ErrorContains(t, "does not fit a single byte", err)

	got, err := ShuffledIndex(3, 10, seed, 0)
	require.NoError(t, err)
	assert.Equal(t, primitives.ValidatorIndex(3), got)
}

func TestUnShuffledIndex_Inverse(t *testing.T) {
	seed := hash.Hash([]byte("inverse"))
	count := uint64(300)
	for i := uint64(0); i < count; i++ {
		shuffled, err := ShuffledIndex(primitives.ValidatorIndex(i), count, seed, 90)
		require.NoError(t, err)
		original, err := UnShuffledIndex(shuffled, count, seed, 90)
		require.NoError(t, err)
		assert.Equal(t, primitives.ValidatorIndex(i), original)
	}
}

func TestShuffledIndex_IsPermutation(t *testing.T) {
	for _, count := range []uint64{1, 2, 3, 7, 64, 257, 513} {
		seed := hash.Hash([]byte{byte(count), byte(count >> 8)})
		seen := make(map[primitives.ValidatorIndex]bool, count)
		for i := uint64(0); i < count; i++ {
			got, err := ShuffledIndex(primitives.ValidatorIndex(i), count, seed, 90)
			require.NoError(t, err)
			require.Equal(t, true, uint64(got) < count)
			require.Equal(t, false, seen[got], "index %d produced twice for count %d", got, count)
			seen[got] = true
		}
		assert.Equal(t, int(count), len(seen))
	}
}

func TestUnshuffleList_MatchesShuffledIndex(t *testing.T) {
	for _, count := range []int{2, 3, 10, 255, 256, 257, 1000} {
		seed := hash.Hash([]byte(fmt.Sprintf("list-%d", count)))
		input := make([]primitives.ValidatorIndex, count)
		for i := range input {
			// Offset so list values differ from list positions.
			input[i] = primitives.ValidatorIndex(i*3 + 7)
		}
		original := make([]primitives.ValidatorIndex, count)
		copy(original, input)

		out, err := UnshuffleList(input, seed, 90)
		require.NoError(t, err)
		for i := 0; i < count; i++ {
			permuted, err := ShuffledIndex(primitives.ValidatorIndex(i), uint64(count), seed, 90)
			require.NoError(t, err)
			require.Equal(t, original[permuted], out[i], "count %d position %d", count, i)
		}
	}
}

func TestShuffleList_RoundTrip(t *testing.T) {
	seed := hash.Hash([]byte("round trip"))
	list := make([]primitives.ValidatorIndex, 1024)
	for i := range list {
		list[i] = primitives.ValidatorIndex(i)
	}
	original := make([]primitives.ValidatorIndex, len(list))
	copy(original, list)

	shuffled, err := ShuffleList(list, seed, 90)
	require.NoError(t, err)
	assert.DeepNotEqual(t, original, shuffled)
	unshuffled, err := UnshuffleList(shuffled, seed, 90)
	require.NoError(t, err)
	assert.DeepEqual(t, original, unshuffled)
}

func TestShuffleList_SmallInputs(t *testing.T) {
	var seed [32]byte
	out, err := ShuffleList(nil, seed, 90)
	require.NoError(t, err)
	assert.Equal(t, 0, len(out))
	out, err = ShuffleList([]primitives.ValidatorIndex{5}, seed, 90)
	require.NoError(t, err)
	assert.DeepEqual(t, []primitives.ValidatorIndex{5}, out)
	out, err = UnshuffleList([]primitives.ValidatorIndex{1, 2, 3}, seed, 0)
	require.NoError(t, err)
	assert.DeepEqual(t, []primitives.ValidatorIndex{1, 2, 3}, out)
}

func TestShuffleList_Fuzz(t *testing.T) {
	fuzzer := fuzz.NewWithSeed(0).NilChance(0)
	for i := 0; i < 50; i++ {
		var seed [32]byte
		var size uint16
		fuzzer.Fuzz(&seed)
		fuzzer.Fuzz(&size)
		size %= 2048
		list := make([]primitives.ValidatorIndex, size)
		for j := range list {
			list[j] = primitives.ValidatorIndex(j)
		}
		out, err := UnshuffleList(list, seed, 10)
		require.NoError(t, err)
		seen := make(map[primitives.ValidatorIndex]bool, len(out))
		for _, v := range out {
			require.Equal(t, false, seen[v])
			seen[v] = true
		}
		require.Equal(t, int(size), len(seen))
	}
}

func BenchmarkUnshuffleList(b *testing.B) {
	seed := hash.Hash([]byte("bench"))
	list := make([]primitives.ValidatorIndex, 16384)
	for i := range list {
		list[i] = primitives.ValidatorIndex(i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := UnshuffleList(list, seed, 90)
		require.NoError(b, err)
	}
}
