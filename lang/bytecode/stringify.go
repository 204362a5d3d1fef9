package bytecode

import "strconv"

// Display renders v the way TOSTR and the core.print/println intrinsics do:
// the literal text a user expects from interpolating or printing the value,
// not a Go-ish debug form.
func Display(v Value) string {
	switch {
	case v.IsInt32():
		return strconv.FormatInt(int64(v.AsInt32()), 10)
	case v.IsNum():
		return strconv.FormatFloat(v.AsNum(), 'g', -1, 64)
	case v.IsBool():
		return strconv.FormatBool(v.AsBool())
	case v.IsNull():
		return "null"
	case v.IsUndefined():
		return "undefined"
	case v.IsObj():
		o := v.AsObj()
		switch o.Kind {
		case ObjString:
			return o.Str()
		case ObjArray:
			return displayArray(o)
		case ObjClass:
			return "<instance>"
		default:
			return "<obj>"
		}
	default:
		return "?"
	}
}

func displayArray(o *Obj) string {
	elems := o.Elems()
	s := make([]byte, 0, 2+4*len(elems))
	s = append(s, '[')
	for i, e := range elems {
		if i > 0 {
			s = append(s, ',', ' ')
		}
		s = append(s, Display(e)...)
	}
	s = append(s, ']')
	return string(s)
}
