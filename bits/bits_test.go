package bits

import "testing"

func TestPextPdepRoundTrip(t *testing.T) {
	cases := []struct {
		mask uint64
		src  uint64
	}{
		{0, 0},
		{0xFFFFFFFFFFFFFFFF, 0x1234567890ABCDEF},
		{0x0F0F0F0F0F0F0F0F, 0xAAAAAAAAAAAAAAAA},
		{1, 1},
		{1 << 63, 1},
	}
	for _, c := range cases {
		extracted := Pext64(c.src, c.mask)
		back := Pdep64(extracted, c.mask)
		if back != c.src&c.mask {
			t.Fatalf("Pdep64(Pext64(%#x,%#x)) = %#x, want %#x", c.src, c.mask, back, c.src&c.mask)
		}
	}
}

func TestPext32PreservesOrder(t *testing.T) {
	// mask picks bits 1, 4, 6 -> result bit0=src bit1, bit1=src bit4, bit2=src bit6.
	mask := uint32(1<<1 | 1<<4 | 1<<6)
	src := uint32(1<<1 | 1<<6)
	got := Pext32(src, mask)
	want := uint32(0b101)
	if got != want {
		t.Fatalf("Pext32 = %#b, want %#b", got, want)
	}
}

func TestDepositMaskLeavesHole(t *testing.T) {
	oldAllBits := uint32(0b0111) // 3 existing bits
	newBitMask := uint32(0b0010) // insert new bit at position 1
	dm := DepositMask(oldAllBits, newBitMask)
	if dm&newBitMask != 0 {
		t.Fatalf("deposit mask must leave a hole at newBitMask, got %#b", dm)
	}
	// Existing 3-bit word 0b101 deposited through dm must not use the hole.
	moved := Pdep32(0b101, dm)
	if moved&newBitMask != 0 {
		t.Fatalf("deposited value leaked into new bit slot: %#b", moved)
	}
}

func TestCompressionMaskInverse(t *testing.T) {
	all := uint32(0b1111)
	remove := uint32(0b0100)
	got := CompressionMask(all, remove)
	want := uint32(0b1011)
	if got != want {
		t.Fatalf("CompressionMask = %#b, want %#b", got, want)
	}
}
