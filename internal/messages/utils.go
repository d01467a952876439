package messages

import (
	"reflect"
	"runtime"
	"strings"
)

// GetComponent names the package fn belongs to, used as the logger sub-name. Method
// values resolve to the package of their receiver.
func GetComponent(fn interface{}) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[:i]
	}
	return name
}
