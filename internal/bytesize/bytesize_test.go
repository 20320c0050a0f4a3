package bytesize

import (
	"testing"
)

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ByteSize
		wantErr bool
	}{
		// bare byte counts
		{"zero", "0", 0, false},
		{"bare number", "1024", 1024, false},
		{"bare large number", "1073741824", 1073741824, false},

		// explicit B suffix
		{"B suffix", "1024B", 1024, false},
		{"b suffix lowercase", "1024b", 1024, false},

		// IEC units
		{"Ki", "1Ki", 1024, false},
		{"KiB", "1KiB", 1024, false},
		{"Mi", "100Mi", 100 * 1024 * 1024, false},
		{"MiB", "100MiB", 100 * 1024 * 1024, false},
		{"Gi", "1Gi", 1024 * 1024 * 1024, false},
		{"GiB", "1GiB", 1024 * 1024 * 1024, false},
		{"TiB", "1TiB", 1024 * 1024 * 1024 * 1024, false},

		// SI units
		{"KB decimal", "1KB", 1000, false},
		{"MB decimal", "100MB", 100 * 1000 * 1000, false},
		{"G decimal", "1G", 1000 * 1000 * 1000, false},
		{"TB decimal", "1TB", 1000 * 1000 * 1000 * 1000, false},

		// any case works
		{"gi lowercase", "1gi", 1024 * 1024 * 1024, false},
		{"GI uppercase", "1GI", 1024 * 1024 * 1024, false},

		// stray whitespace
		{"leading whitespace", "  1Gi", 1024 * 1024 * 1024, false},
		{"trailing whitespace", "1Gi  ", 1024 * 1024 * 1024, false},
		{"inner space", "1 Gi", 1024 * 1024 * 1024, false},

		// fractions round down
		{"fractional gibibytes", "1.5Gi", ByteSize(1.5 * 1024 * 1024 * 1024), false},
		{"fractional plain", "0.5", 0, false},

		// rejected inputs
		{"empty", "", 0, true},
		{"only whitespace", "   ", 0, true},
		{"suffix only", "Gi", 0, true},
		{"bare b", "b", 0, true},
		{"unknown unit", "1X", 0, true},
		{"negative number", "-5Gi", 0, true},
		{"garbage", "lots", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseByteSize(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseByteSize(%q) = %d, expected error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseByteSize(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseByteSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestByteSizeString(t *testing.T) {
	tests := []struct {
		size ByteSize
		want string
	}{
		{0, "0B"},
		{512, "512B"},
		{KiB, "1KiB"},
		{4 * MiB, "4MiB"},
		{GiB, "1GiB"},
		{3 * GiB / 2, "1.50GiB"},
		{2 * TiB, "2TiB"},
	}

	for _, tt := range tests {
		if got := tt.size.String(); got != tt.want {
			t.Errorf("ByteSize(%d).String() = %q, want %q", uint64(tt.size), got, tt.want)
		}
	}
}

func TestByteSizeRoundTrip(t *testing.T) {
	sizes := []ByteSize{0, 512, KiB, 100 * MiB, GiB, 3 * GiB / 2}

	for _, size := range sizes {
		text, err := size.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d) failed: %v", uint64(size), err)
		}

		var back ByteSize
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q) failed: %v", text, err)
		}
		if back != size {
			t.Errorf("round trip of %d through %q gave %d", uint64(size), text, uint64(back))
		}
	}
}

func TestUnmarshalText(t *testing.T) {
	var b ByteSize
	if err := b.UnmarshalText([]byte("500Mi")); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if b != 500*MiB {
		t.Errorf("UnmarshalText gave %d, want %d", uint64(b), uint64(500*MiB))
	}

	if err := b.UnmarshalText([]byte("nope")); err == nil {
		t.Error("UnmarshalText accepted invalid input")
	}
}
