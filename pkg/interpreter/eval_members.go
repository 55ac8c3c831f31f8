package interpreter

import (
	"pscript/pkg/perr"
	"pscript/pkg/value"
)

// listMemberCall implements the two list member functions spec §4.3.5
// names: append(v) and size().
func (it *Interpreter) listMemberCall(recv value.Value, method string, args []value.Value) (value.Value, error) {
	switch method {
	case "append":
		if len(args) != 1 {
			return value.Null(), perr.New(perr.ArityError, "append expects exactly one argument, got %d", len(args))
		}
		if err := recv.ListAppend(args[0]); err != nil {
			return value.Null(), err
		}
		return value.FromInteger(it.Pool, 0)
	case "size":
		if len(args) != 0 {
			return value.Null(), perr.New(perr.ArityError, "size expects no arguments, got %d", len(args))
		}
		return value.FromInteger(it.Pool, int32(recv.ListLen()))
	default:
		return value.Null(), perr.New(perr.UndefinedFunction, "no list member function %q", method)
	}
}

// stringMemberCall implements the three string member functions spec
// §4.3.5 names: format(args_list), parse_int(), parse_float().
func (it *Interpreter) stringMemberCall(recv value.Value, method string, args []value.Value) (value.Value, error) {
	switch method {
	case "format":
		if len(args) != 1 || args[0].Tag() != value.TagList {
			return value.Null(), perr.New(perr.TypeError, "format expects a single list argument")
		}
		elems := make([]value.Value, args[0].ListLen())
		for i := range elems {
			elems[i], _ = args[0].ListGet(i)
		}
		return value.FromString(it.Pool, value.Format(recv.Str(), elems))
	case "parse_int":
		if len(args) != 0 {
			return value.Null(), perr.New(perr.ArityError, "parse_int expects no arguments, got %d", len(args))
		}
		return value.ParseInt(it.Pool, recv.Str())
	case "parse_float":
		if len(args) != 0 {
			return value.Null(), perr.New(perr.ArityError, "parse_float expects no arguments, got %d", len(args))
		}
		return value.ParseFloat(it.Pool, recv.Str())
	default:
		return value.Null(), perr.New(perr.UndefinedFunction, "no string member function %q", method)
	}
}
