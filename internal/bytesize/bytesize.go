// Package bytesize parses and formats human-readable byte sizes for
// configuration values like "1GiB" or "500Mi".
package bytesize

import (
	"fmt"
	"strconv"
	"strings"
)

// ByteSize is a byte count that knows how to parse itself from strings.
// Accepted spellings, case-insensitive:
//
//	plain numbers   1024, 1073741824
//	binary units    Ki/KiB, Mi/MiB, Gi/GiB, Ti/TiB (powers of 1024)
//	decimal units   K/KB, M/MB, G/GB, T/TB (powers of 1000)
//	bare bytes      "100B"
type ByteSize uint64

// Unit multipliers. The SI units scale by 1000, the IEC ones by 1024.
const (
	B  ByteSize = 1
	KB ByteSize = 1000
	MB ByteSize = 1000 * KB
	GB ByteSize = 1000 * MB
	TB ByteSize = 1000 * GB

	KiB ByteSize = 1024
	MiB ByteSize = 1024 * KiB
	GiB ByteSize = 1024 * MiB
	TiB ByteSize = 1024 * GiB
)

// suffixes maps unit suffixes to multipliers, longest first so that "mib"
// wins over "mi" and "b" during suffix matching.
var suffixes = []struct {
	unit string
	mult ByteSize
}{
	{"kib", KiB}, {"mib", MiB}, {"gib", GiB}, {"tib", TiB},
	{"kb", KB}, {"mb", MB}, {"gb", GB}, {"tb", TB},
	{"ki", KiB}, {"mi", MiB}, {"gi", GiB}, {"ti", TiB},
	{"k", KB}, {"m", MB}, {"g", GB}, {"t", TB},
	{"b", B},
}

// ParseByteSize converts strings like "1Gi", "500Mi", "100MB" or "1024"
// into a ByteSize. Fractional values are allowed and rounded down.
func ParseByteSize(s string) (ByteSize, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("empty byte size")
	}

	lower := strings.ToLower(trimmed)
	mult := B
	num := lower
	for _, sfx := range suffixes {
		if rest, ok := strings.CutSuffix(lower, sfx.unit); ok {
			mult = sfx.mult
			num = strings.TrimSpace(rest)
			break
		}
	}
	if num == "" {
		return 0, fmt.Errorf("malformed byte size %q", s)
	}

	if strings.Contains(num, ".") {
		f, err := strconv.ParseFloat(num, 64)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("invalid number in byte size: %q", s)
		}
		return ByteSize(f * float64(mult)), nil
	}

	n, err := strconv.ParseUint(num, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number in byte size: %q", s)
	}
	return ByteSize(n) * mult, nil
}

// UnmarshalText lets ByteSize fields decode straight from YAML and
// mapstructure string values.
func (b *ByteSize) UnmarshalText(text []byte) error {
	size, err := ParseByteSize(string(text))
	if err != nil {
		return err
	}
	*b = size
	return nil
}

// MarshalText implements encoding.TextMarshaler so config files round
// trip through save and load.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// String returns a human-readable representation of the byte size. Sizes
// that are whole multiples of a binary unit print without decimals.
func (b ByteSize) String() string {
	units := []struct {
		threshold ByteSize
		name      string
	}{
		{TiB, "TiB"},
		{GiB, "GiB"},
		{MiB, "MiB"},
		{KiB, "KiB"},
	}

	for _, u := range units {
		if b < u.threshold {
			continue
		}
		if b%u.threshold == 0 {
			return fmt.Sprintf("%d%s", uint64(b/u.threshold), u.name)
		}
		return fmt.Sprintf("%.2f%s", float64(b)/float64(u.threshold), u.name)
	}
	return fmt.Sprintf("%dB", uint64(b))
}

// Uint64 returns the size as a plain uint64.
func (b ByteSize) Uint64() uint64 {
	return uint64(b)
}

// Int64 returns the size as an int64. Sizes beyond 8EiB wrap negative.
func (b ByteSize) Int64() int64 {
	return int64(b)
}
