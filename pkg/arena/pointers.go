package arena

import (
	"reflect"
	"sync"
)

var pointerKinds sync.Map // map[reflect.Type]bool

// typeHasPointers reports whether T contains any GC-visible pointers.
// Results are cached per type; the first call for a type walks it.
func typeHasPointers[T any]() bool {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if cached, ok := pointerKinds.Load(typ); ok {
		return cached.(bool)
	}
	has := kindHasPointers(typ)
	pointerKinds.Store(typ, has)
	return has
}

func kindHasPointers(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		if typ.Len() == 0 {
			return false
		}
		return kindHasPointers(typ.Elem())
	case reflect.Struct:
		for i := 0; i < typ.NumField(); i++ {
			if kindHasPointers(typ.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		// Pointers, slices, strings, maps, channels, funcs, interfaces.
		return true
	}
}
