// Package assert panics on programmer errors, like a component constructed without one
// of its dependencies.
package assert

import (
	"fmt"
	"reflect"
)

// NotNil panics if value is nil, or is an interface holding a nil pointer, map, slice,
// func or chan (ex. a nil *crm.Client passed as a harvest.Session).
func NotNil(value any) {
	if value == nil {
		panic("expected value to be not nil")
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		if v.IsNil() {
			panic(fmt.Sprintf("expected %s to be not nil", v.Type()))
		}
	}
}

func NotEmptyStr(str string) {
	if str == "" {
		panic("expected string to be non-empty")
	}
}
