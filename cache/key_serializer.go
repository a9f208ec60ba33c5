package cache

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// serializeArgs renders args with reflection. It is the fallback used when an
// argument list cannot be encoded as JSON.
func serializeArgs(args []any) string {
	s := serializer{visiting: map[visit]struct{}{}}
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = s.value(arg)
	}
	return strings.Join(parts, "::")
}

// visit identifies a reference on the current path. len tells apart slices
// that share a backing array.
type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

type serializer struct {
	visiting map[visit]struct{}
}

// enter marks rv as being rendered. It returns false when rv is already on
// the path, i.e. the value refers back to itself.
func (s serializer) enter(rv reflect.Value) (visit, bool) {
	v := visit{ptr: rv.Pointer(), typ: rv.Type()}
	if rv.Kind() == reflect.Slice {
		v.len = rv.Len()
	}
	if _, seen := s.visiting[v]; seen {
		return v, false
	}
	s.visiting[v] = struct{}{}
	return v, true
}

func (s serializer) leave(v visit) { delete(s.visiting, v) }

func (s serializer) value(v any) string {
	if v == nil {
		return "nil"
	}

	rv := reflect.ValueOf(v)
	rt := rv.Type()

	switch rt.Kind() {
	case reflect.Func:
		// function pointers are only stable for the lifetime of the process
		return fmt.Sprintf("func:%p", v)
	case reflect.Chan:
		return fmt.Sprintf("chan:%p", v)
	case reflect.Ptr:
		if rv.IsNil() {
			return "nil"
		}
		return s.reference(rv, func() string { return s.value(rv.Elem().Interface()) })
	case reflect.Interface:
		if rv.IsNil() {
			return "interface:nil"
		}
		return s.value(rv.Elem().Interface())
	case reflect.Slice:
		if rv.IsNil() {
			return "slice:nil"
		}
		return s.reference(rv, func() string {
			return fmt.Sprintf("slice[%d]:{%s}", rv.Len(), s.elems(rv))
		})
	case reflect.Array:
		return fmt.Sprintf("array[%d]:{%s}", rv.Len(), s.elems(rv))
	case reflect.Map:
		if rv.IsNil() {
			return "map:nil"
		}
		return s.reference(rv, func() string { return s.mapEntries(rv) })
	case reflect.Struct:
		return s.structFields(rv, rt)
	}

	return fmt.Sprintf("%v", v)
}

// reference renders a pointer, slice or map, or a cycle marker when rv is
// already being rendered further up.
func (s serializer) reference(rv reflect.Value, render func() string) string {
	v, ok := s.enter(rv)
	if !ok {
		return "cycle:" + rv.Type().String()
	}
	defer s.leave(v)
	return render()
}

func (s serializer) elems(rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		parts[i] = s.value(rv.Index(i).Interface())
	}
	return strings.Join(parts, ",")
}

// mapEntries sorts entries by their serialized key so map iteration order
// does not leak into the output.
func (s serializer) mapEntries(rv reflect.Value) string {
	pairs := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, s.value(iter.Key().Interface())+"="+s.value(iter.Value().Interface()))
	}
	sort.Strings(pairs)
	return fmt.Sprintf("map[%d]:{%s}", len(pairs), strings.Join(pairs, ","))
}

func (s serializer) structFields(rv reflect.Value, rt reflect.Type) string {
	parts := make([]string, 0, rv.NumField())
	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		parts = append(parts, field.Name+":"+s.value(rv.Field(i).Interface()))
	}
	return fmt.Sprintf("struct:{%s}", strings.Join(parts, ","))
}
