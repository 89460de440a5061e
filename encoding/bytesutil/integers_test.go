package bytesutil_test

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
)

func TestToBytes(t *testing.T) {
	tests := []struct {
		a uint64
		b []byte
	}{
		{0, []byte{0}},
		{255, []byte{255}},
		{256, []byte{0, 1}},
		{65535, []byte{255, 255, 0}},
		{16777217, []byte{1, 0, 0, 1}},
		{4294967297, []byte{1, 0, 0, 0, 1, 0, 0, 0}},
		{9223372036854775807, []byte{255, 255, 255, 255, 255, 255, 255, 127}},
	}
	for _, tt := range tests {
		assert.DeepEqual(t, tt.b, bytesutil.ToBytes(tt.a, len(tt.b)))
	}
}

func TestBytes32_Padded(t *testing.T) {
	b := bytesutil.Bytes32(4294967297)
	assert.Equal(t, 32, len(b))
	assert.DeepEqual(t, []byte{1, 0, 0, 0, 1, 0, 0, 0}, b[:8])
	assert.DeepEqual(t, make([]byte, 24), b[8:])
}

func TestFromBytes_RoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1776, 96726, 4294967295} {
		assert.Equal(t, v, bytesutil.FromBytes4(bytesutil.Bytes4(v)))
	}
	for _, v := range []uint64{0, 922376854775806, 18446744073709551615} {
		assert.Equal(t, v, bytesutil.FromBytes8(bytesutil.Bytes8(v)))
	}
	assert.Equal(t, uint64(0), bytesutil.FromBytes8([]byte{1}))
}

func TestUint32ToBytes4_BigEndian(t *testing.T) {
	assert.Equal(t, [4]byte{1, 0, 0, 0}, bytesutil.Uint32ToBytes4(0x01000000))
	assert.Equal(t, [4]byte{0, 0, 0, 1}, bytesutil.Uint32ToBytes4(0x00000001))
}

func TestUint64ToBytesBigEndian_RoundTrip(t *testing.T) {
	for i := uint64(0); i < 1000; i++ {
		assert.Equal(t, i, bytesutil.BytesToUint64BigEndian(bytesutil.Uint64ToBytesBigEndian(i)))
	}
}

func TestLittleEndianBytesToBigInt(t *testing.T) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, 1234567890)
	assert.DeepEqual(t, new(big.Int).SetInt64(1234567890), bytesutil.LittleEndianBytesToBigInt(b))
}

func TestReverseByteOrder_DoesNotMutate(t *testing.T) {
	in := []byte{1, 2, 3}
	assert.DeepEqual(t, []byte{3, 2, 1}, bytesutil.ReverseByteOrder(in))
	assert.DeepEqual(t, []byte{1, 2, 3}, in)
}

func TestPadTo(t *testing.T) {
	assert.Equal(t, 32, len(bytesutil.PadTo([]byte{1}, 32)))
	long := make([]byte, 40)
	assert.Equal(t, 40, len(bytesutil.PadTo(long, 32)))
	assert.Equal(t, true, bytesutil.ZeroRoot(make([]byte, 32)))
	assert.Equal(t, false, bytesutil.ZeroRoot([]byte{1}))
}
