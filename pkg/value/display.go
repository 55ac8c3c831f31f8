package value

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Display writes v's natural textual form to w: scalars in natural form,
// lists as "[e0, e1, ...]", structs as "TypeName {\n\tfield: value\n}",
// external as "[external object at <addr>]" (spec §4.2).
func Display(w io.Writer, v Value) error {
	_, err := io.WriteString(w, Render(v))
	return err
}

// Render is Display without the io.Writer, used for string formatting and
// list/struct nesting.
func Render(v Value) string {
	switch v.tag {
	case TagNull:
		return "null"
	case TagInteger:
		return strconv.FormatInt(int64(v.Int()), 10)
	case TagUint:
		return strconv.FormatUint(uint64(v.Uint()), 10) + "u"
	case TagReal:
		return strconv.FormatFloat(float64(v.Real()), 'g', -1, 32)
	case TagBoolean:
		if v.Bool() {
			return "true"
		}
		return "false"
	case TagString:
		return v.Str()
	case TagList:
		parts := make([]string, v.ListLen())
		for i := range parts {
			elem, _ := v.ListGet(i)
			parts[i] = Render(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case TagStruct:
		var b strings.Builder
		fmt.Fprintf(&b, "%s {\n", v.StructName())
		for _, name := range v.StructFieldOrder() {
			fv, _ := v.Field(name)
			fmt.Fprintf(&b, "\t%s: %s\n", name, Render(fv))
		}
		b.WriteString("}")
		return b.String()
	case TagExternal:
		return fmt.Sprintf("[external object at %p]", v.ext)
	default:
		return ""
	}
}

// Format implements string.format(args_list): positional "{}" placeholders
// substituted in order with each argument's Render()'d display
// representation (spec §4.3.5).
func Format(template string, args []Value) string {
	var b strings.Builder
	idx := 0
	for i := 0; i < len(template); i++ {
		if template[i] == '{' && i+1 < len(template) && template[i+1] == '}' {
			if idx < len(args) {
				b.WriteString(Render(args[idx]))
				idx++
			}
			i++
			continue
		}
		b.WriteByte(template[i])
	}
	return b.String()
}
