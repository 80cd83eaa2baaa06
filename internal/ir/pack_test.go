package ir

import "testing"

func TestPackUnpackUintRoundTrip(t *testing.T) {
	cases := []struct {
		name      string
		byteLen   int64
		byteOrder ByteOrder
		bitOrder  BitOrder
		start     int64
		end       int64
		value     uint64
	}{
		{"whole-byte-le-lsb0", 1, LE, LSB0, 0, 8, 0xA5},
		{"whole-register-le-lsb0", 2, LE, LSB0, 0, 16, 0x1234},
		{"whole-register-be-lsb0", 2, BE, LSB0, 0, 16, 0x1234},
		{"whole-register-le-msb0", 2, LE, MSB0, 0, 16, 0x1234},
		{"sub-byte-low", 1, LE, LSB0, 0, 4, 0xF},
		{"sub-byte-high", 1, LE, LSB0, 4, 8, 0xF},
		{"crosses-byte-boundary", 2, LE, LSB0, 4, 12, 0xAB},
		{"single-bit", 1, LE, LSB0, 3, 4, 1},
		{"zero-value", 2, BE, MSB0, 0, 16, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			buf := make([]byte, c.byteLen)
			PackUint(buf, c.byteOrder, c.bitOrder, c.start, c.end, c.value)
			width := c.end - c.start
			mask := uint64(1)<<uint(width) - 1
			got := UnpackUint(buf, c.byteOrder, c.bitOrder, c.start, c.end)
			if got != c.value&mask {
				t.Fatalf("round trip mismatch: got %#x, want %#x", got, c.value&mask)
			}
		})
	}
}

func TestUnpackIntSignExtension(t *testing.T) {
	buf := make([]byte, 1)
	// Width-1 field: the single bit is the sign bit (boundary behavior 11).
	PackUint(buf, LE, LSB0, 3, 4, 1)
	got := UnpackInt(buf, LE, LSB0, 3, 4)
	if got != -1 {
		t.Fatalf("width-1 signed field with bit set: got %d, want -1", got)
	}

	buf2 := make([]byte, 1)
	got2 := UnpackInt(buf2, LE, LSB0, 3, 4)
	if got2 != 0 {
		t.Fatalf("width-1 signed field with bit clear: got %d, want 0", got2)
	}

	buf3 := make([]byte, 1)
	PackUint(buf3, LE, LSB0, 0, 4, 0xE) // -2 in 4-bit two's complement
	got3 := UnpackInt(buf3, LE, LSB0, 0, 4)
	if got3 != -2 {
		t.Fatalf("4-bit signed field 0xE: got %d, want -2", got3)
	}
}

func TestEncodeResetMatchesS2(t *testing.T) {
	// spec.md S2: 0x1234, little-endian, default LSB0 bit order -> [0x34, 0x12].
	got := EncodeReset(2, LE, LSB0, 16, 0x1234)
	want := []byte{0x34, 0x12}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("EncodeReset(0x1234) = %v, want %v", got, want)
	}
}

func TestEncodeResetBigEndian(t *testing.T) {
	got := EncodeReset(2, BE, LSB0, 16, 0x1234)
	want := []byte{0x12, 0x34}
	if got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("EncodeReset BE = %v, want %v", got, want)
	}
}

func TestWholeRegisterFieldIgnoresNoBits(t *testing.T) {
	// Boundary behavior 10: start==0, end==size_bits loads/stores the
	// entire register.
	buf := make([]byte, 2)
	PackUint(buf, LE, LSB0, 0, 16, 0xFFFF)
	for _, b := range buf {
		if b != 0xFF {
			t.Fatalf("expected every byte set, got %v", buf)
		}
	}
}

func TestAddrTypeFits(t *testing.T) {
	cases := []struct {
		t    AddrType
		addr int64
		fits bool
	}{
		{AddrU8, 0, true},
		{AddrU8, 255, true},
		{AddrU8, 256, false},
		{AddrI8, -128, true},
		{AddrI8, -129, false},
		{AddrU16, 65536, false},
	}
	for _, c := range cases {
		if got := c.t.Fits(c.addr); got != c.fits {
			t.Errorf("%s.Fits(%d) = %v, want %v", c.t, c.addr, got, c.fits)
		}
	}
}
