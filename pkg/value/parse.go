package value

import (
	"strconv"

	"pscript/pkg/perr"
	"pscript/pkg/pool"
)

// ParseInt implements string.parse_int() (spec §4.3.5).
func ParseInt(p *pool.Pool, s string) (Value, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return Null(), perr.New(perr.TypeError, "cannot parse %q as integer", s)
	}
	return FromInteger(p, int32(n))
}

// ParseFloat implements string.parse_float() (spec §4.3.5).
func ParseFloat(p *pool.Pool, s string) (Value, error) {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return Null(), perr.New(perr.TypeError, "cannot parse %q as real", s)
	}
	return FromReal(p, float32(f))
}
