package infrastructure

import (
	"errors"
	"strconv"
	"strings"
)

// ErrUnparseable is returned for tokens matching no known unit grammar.
// Callers treat it as "value unknown for this update", never as fatal.
var ErrUnparseable = errors.New("unparseable unit token")

// Magnitude multipliers. A binary infix 'i' (KiB, MiB) selects powers of
// 1024, plain suffixes (K, MB) powers of 1000.
var decimalUnits = map[byte]float64{
	'k': 1e3, 'm': 1e6, 'g': 1e9, 't': 1e12,
}

// ParseSize normalizes a size token emitted by either child tool into a
// byte count. Handles decimal and binary magnitudes case-insensitively
// ("500K", "10.5MiB", "2m") and the bit-vs-byte convention: a trailing
// lowercase 'b' after the magnitude means bits, 'B' (or nothing) bytes.
func ParseSize(token string) (int64, error) {
	v, err := parseScaled(token)
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

// ParseRate normalizes a rate token ("1.2MiB/s", "500Kb/s", "2M") into
// bytes per second. A "/s" or "ps" suffix is accepted and ignored.
func ParseRate(token string) (float64, error) {
	t := strings.TrimSpace(token)
	lower := strings.ToLower(t)
	if strings.HasSuffix(lower, "/s") {
		t = t[:len(t)-2]
	} else if strings.HasSuffix(lower, "ps") {
		t = t[:len(t)-2]
	}
	return parseScaled(t)
}

func parseScaled(token string) (float64, error) {
	t := strings.TrimSpace(token)
	if t == "" {
		return 0, ErrUnparseable
	}

	// Split the numeric part from the suffix.
	i := 0
	for i < len(t) && (t[i] >= '0' && t[i] <= '9' || t[i] == '.') {
		i++
	}
	num, suffix := t[:i], strings.TrimSpace(t[i:])
	if num == "" {
		return 0, ErrUnparseable
	}
	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, ErrUnparseable
	}

	bits := false
	switch {
	case suffix == "":
	case strings.EqualFold(suffix, "B") || strings.EqualFold(suffix, "bytes"):
		// bare byte marker, no magnitude
		if suffix == "b" {
			bits = true
		}
	default:
		mag := strings.ToLower(suffix)[0]
		mult, ok := decimalUnits[mag]
		if !ok {
			return 0, ErrUnparseable
		}
		rest := suffix[1:]
		if len(rest) > 0 && (rest[0] == 'i' || rest[0] == 'I') {
			// binary magnitude: Ki=1024, Mi=1024^2, ...
			switch mag {
			case 'k':
				mult = 1 << 10
			case 'm':
				mult = 1 << 20
			case 'g':
				mult = 1 << 30
			case 't':
				mult = 1 << 40
			}
			rest = rest[1:]
		}
		switch rest {
		case "", "B":
		case "b", "bit", "bits":
			bits = true
		default:
			if !strings.EqualFold(rest, "B") {
				return 0, ErrUnparseable
			}
		}
		value *= mult
	}

	if bits {
		value /= 8
	}
	return value, nil
}
