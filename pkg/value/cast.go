package value

import "pscript/pkg/perr"

// MayCast reports whether an explicit or implicit conversion from one tag
// to another is legal: equality of tag, or both tags drawn from the numeric
// family {integer, uint, real, boolean} (spec §4.2, §9 "numeric cast
// matrix"). Grounded on original_source/include/pscript/value.hpp's
// may_cast/cast_this pair, collapsed into the single function the design
// notes call for.
func MayCast(from, to Tag) bool {
	if from == to {
		return true
	}
	return isNumericFamily(from) && isNumericFamily(to)
}

func isNumericFamily(t Tag) bool {
	switch t {
	case TagInteger, TagUint, TagReal, TagBoolean:
		return true
	default:
		return false
	}
}

// Coerce converts v to the target tag, reused for parameter binding,
// assignment, and explicit constructor casts (spec §9). It is the single
// coercion entry point every caller in this module goes through.
func Coerce(v Value, target Tag) (Value, error) {
	if v.tag == target {
		return v, nil
	}
	if !MayCast(v.tag, target) {
		return Null(), perr.New(perr.TypeError, "cannot cast %s to %s", v.tag, target)
	}

	p := v.pool
	switch target {
	case TagInteger:
		return FromInteger(p, toInt32(v))
	case TagUint:
		return FromUint(p, toUint32(v))
	case TagReal:
		return FromReal(p, toFloat32(v))
	case TagBoolean:
		return FromBoolean(p, toBool(v))
	default:
		return Null(), perr.New(perr.TypeError, "cannot cast %s to %s", v.tag, target)
	}
}

func toInt32(v Value) int32 {
	switch v.tag {
	case TagInteger:
		return v.Int()
	case TagUint:
		return int32(v.Uint())
	case TagReal:
		return int32(v.Real())
	case TagBoolean:
		if v.Bool() {
			return 1
		}
		return 0
	}
	return 0
}

func toUint32(v Value) uint32 {
	switch v.tag {
	case TagInteger:
		return uint32(v.Int())
	case TagUint:
		return v.Uint()
	case TagReal:
		return uint32(v.Real())
	case TagBoolean:
		if v.Bool() {
			return 1
		}
		return 0
	}
	return 0
}

func toFloat32(v Value) float32 {
	switch v.tag {
	case TagInteger:
		return float32(v.Int())
	case TagUint:
		return float32(v.Uint())
	case TagReal:
		return v.Real()
	case TagBoolean:
		if v.Bool() {
			return 1
		}
		return 0
	}
	return 0
}

func toBool(v Value) bool {
	switch v.tag {
	case TagInteger:
		return v.Int() != 0
	case TagUint:
		return v.Uint() != 0
	case TagReal:
		return v.Real() != 0
	case TagBoolean:
		return v.Bool()
	}
	return false
}

// widenTag returns the wider of two numeric tags along the boolean ->
// integer -> uint -> real ladder (spec §4.2).
func widenTag(a, b Tag) Tag {
	rank := func(t Tag) int {
		switch t {
		case TagBoolean:
			return 0
		case TagInteger:
			return 1
		case TagUint:
			return 2
		case TagReal:
			return 3
		default:
			return -1
		}
	}
	if rank(a) >= rank(b) {
		return a
	}
	return b
}
