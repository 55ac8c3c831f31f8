package value

import "pscript/pkg/perr"

// BinaryOp dispatches a binary operator on the tag pair (lhs_tag, op,
// rhs_tag), widening mixed numeric operands first along boolean -> integer
// -> uint -> real before applying the operator (spec §4.2, §9 "operator
// table"). String "+" concatenates; bitwise ops and "%" are restricted to
// integer/uint; "&&"/"||" require booleans.
func BinaryOp(lhs Value, op string, rhs Value) (Value, error) {
	if op == "+" && lhs.tag == TagString && rhs.tag == TagString {
		return FromString(lhs.pool, lhs.Str()+rhs.Str())
	}

	switch op {
	case "==", "!=":
		return equality(lhs, op, rhs)
	case "&&", "||":
		return logical(lhs, op, rhs)
	}

	if !lhs.tag.IsScalar() || !rhs.tag.IsScalar() {
		return Null(), perr.New(perr.UnsupportedOperator, "operator %s not supported on %s and %s", op, lhs.tag, rhs.tag)
	}

	target := widenTag(lhs.tag, rhs.tag)
	a, err := Coerce(lhs, target)
	if err != nil {
		return Null(), err
	}
	b, err := Coerce(rhs, target)
	if err != nil {
		return Null(), err
	}

	switch op {
	case "<", ">", "<=", ">=":
		return comparison(a, op, b)
	case "&", "^", "%", "<<", ">>":
		return bitwise(a, op, b)
	case "+", "-", "*", "/":
		return arithmetic(a, op, b)
	default:
		return Null(), perr.New(perr.UnsupportedOperator, "unknown operator %s", op)
	}
}

func logical(lhs Value, op string, rhs Value) (Value, error) {
	if lhs.tag != TagBoolean || rhs.tag != TagBoolean {
		return Null(), perr.New(perr.UnsupportedOperator, "operator %s requires boolean operands, got %s and %s", op, lhs.tag, rhs.tag)
	}
	var r bool
	if op == "&&" {
		r = lhs.Bool() && rhs.Bool()
	} else {
		r = lhs.Bool() || rhs.Bool()
	}
	return FromBoolean(lhs.pool, r)
}

func equality(lhs Value, op string, rhs Value) (Value, error) {
	eq := rawEqual(lhs, rhs)
	if op == "!=" {
		eq = !eq
	}
	p := lhs.pool
	if p == nil {
		p = rhs.pool
	}
	return FromBoolean(p, eq)
}

func rawEqual(lhs, rhs Value) bool {
	if lhs.tag == TagNull || rhs.tag == TagNull {
		return lhs.tag == rhs.tag
	}
	if lhs.tag.IsScalar() && rhs.tag.IsScalar() {
		target := widenTag(lhs.tag, rhs.tag)
		a, err := Coerce(lhs, target)
		if err != nil {
			return false
		}
		b, err := Coerce(rhs, target)
		if err != nil {
			return false
		}
		switch target {
		case TagInteger:
			return a.Int() == b.Int()
		case TagUint:
			return a.Uint() == b.Uint()
		case TagReal:
			return a.Real() == b.Real()
		case TagBoolean:
			return a.Bool() == b.Bool()
		}
	}
	if lhs.tag == TagString && rhs.tag == TagString {
		return lhs.Str() == rhs.Str()
	}
	return false
}

func arithmetic(a Value, op string, b Value) (Value, error) {
	switch a.tag {
	case TagInteger:
		x, y := a.Int(), b.Int()
		switch op {
		case "+":
			return FromInteger(a.pool, x+y)
		case "-":
			return FromInteger(a.pool, x-y)
		case "*":
			return FromInteger(a.pool, x*y)
		case "/":
			if y == 0 {
				return Null(), perr.New(perr.UnsupportedOperator, "integer division by zero")
			}
			return FromInteger(a.pool, x/y)
		}
	case TagUint:
		x, y := a.Uint(), b.Uint()
		switch op {
		case "+":
			return FromUint(a.pool, x+y)
		case "-":
			return FromUint(a.pool, x-y)
		case "*":
			return FromUint(a.pool, x*y)
		case "/":
			if y == 0 {
				return Null(), perr.New(perr.UnsupportedOperator, "uint division by zero")
			}
			return FromUint(a.pool, x/y)
		}
	case TagReal:
		x, y := a.Real(), b.Real()
		switch op {
		case "+":
			return FromReal(a.pool, x+y)
		case "-":
			return FromReal(a.pool, x-y)
		case "*":
			return FromReal(a.pool, x*y)
		case "/":
			return FromReal(a.pool, x/y)
		}
	}
	return Null(), perr.New(perr.UnsupportedOperator, "operator %s not supported on %s", op, a.tag)
}

func bitwise(a Value, op string, b Value) (Value, error) {
	if a.tag != TagInteger && a.tag != TagUint {
		return Null(), perr.New(perr.UnsupportedOperator, "operator %s requires integer or uint operands, got %s", op, a.tag)
	}
	if a.tag == TagUint {
		x, y := a.Uint(), b.Uint()
		switch op {
		case "&":
			return FromUint(a.pool, x&y)
		case "^":
			return FromUint(a.pool, x^y)
		case "%":
			if y == 0 {
				return Null(), perr.New(perr.UnsupportedOperator, "modulo by zero")
			}
			return FromUint(a.pool, x%y)
		case "<<":
			return FromUint(a.pool, x<<y)
		case ">>":
			return FromUint(a.pool, x>>y)
		}
	}
	x, y := a.Int(), b.Int()
	switch op {
	case "&":
		return FromInteger(a.pool, x&y)
	case "^":
		return FromInteger(a.pool, x^y)
	case "%":
		if y == 0 {
			return Null(), perr.New(perr.UnsupportedOperator, "modulo by zero")
		}
		return FromInteger(a.pool, x%y)
	case "<<":
		return FromInteger(a.pool, x<<uint32(y))
	case ">>":
		return FromInteger(a.pool, x>>uint32(y))
	}
	return Null(), perr.New(perr.UnsupportedOperator, "operator %s not supported on %s", op, a.tag)
}

func comparison(a Value, op string, b Value) (Value, error) {
	var cmp int
	switch a.tag {
	case TagInteger:
		cmp = compareInt(int64(a.Int()), int64(b.Int()))
	case TagUint:
		cmp = compareInt(int64(a.Uint()), int64(b.Uint()))
	case TagReal:
		x, y := a.Real(), b.Real()
		switch {
		case x < y:
			cmp = -1
		case x > y:
			cmp = 1
		default:
			cmp = 0
		}
	default:
		return Null(), perr.New(perr.UnsupportedOperator, "operator %s not supported on %s", op, a.tag)
	}

	var r bool
	switch op {
	case "<":
		r = cmp < 0
	case ">":
		r = cmp > 0
	case "<=":
		r = cmp <= 0
	case ">=":
		r = cmp >= 0
	}
	return FromBoolean(a.pool, r)
}

func compareInt(x, y int64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// UnaryOp dispatches the unary operators: arithmetic negation, logical
// not, and increment/decrement, which return v+1 / v-1 (the unary "&" reference-alias
// operator is handled directly by the evaluator since it needs the lvalue,
// not just a Value).
func UnaryOp(op string, v Value) (Value, error) {
	switch op {
	case "-":
		switch v.tag {
		case TagInteger:
			return FromInteger(v.pool, -v.Int())
		case TagReal:
			return FromReal(v.pool, -v.Real())
		default:
			return Null(), perr.New(perr.UnsupportedOperator, "unary - not supported on %s", v.tag)
		}
	case "!":
		if v.tag != TagBoolean {
			return Null(), perr.New(perr.UnsupportedOperator, "unary ! requires boolean, got %s", v.tag)
		}
		return FromBoolean(v.pool, !v.Bool())
	case "++":
		return BinaryOp(v, "+", mustScalarOne(v))
	case "--":
		return BinaryOp(v, "-", mustScalarOne(v))
	default:
		return Null(), perr.New(perr.UnsupportedOperator, "unknown unary operator %s", op)
	}
}

func mustScalarOne(v Value) Value {
	switch v.tag {
	case TagInteger:
		one, _ := FromInteger(v.pool, 1)
		return one
	case TagUint:
		one, _ := FromUint(v.pool, 1)
		return one
	case TagReal:
		one, _ := FromReal(v.pool, 1)
		return one
	default:
		return Null()
	}
}
