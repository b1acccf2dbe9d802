// Copyright 2022 The Firefly Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

// Package starlark decodes Starlark data files into Go structures.
//
// A data file is a sequence of assignments. Each assigned name selects a
// field of the target structure by its bzl tag, and the value is decoded
// according to the field's type:
//
//   - True and False into bool
//   - strings into string
//   - integer literals into any integer type, or into string as written
//   - lists into slices
//   - dicts into maps
//   - calls with keyword arguments into structures, where the tag
//     "name/call" names the function expected
//
// Pointer fields are allocated when assigned, so a nil pointer marks an
// absent value. Assignments to unknown names are errors.
package starlark

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/bazelbuild/buildtools/build"
)

// Unmarshal parses a Starlark file into structured Go data.
// The filename is only used to improve any error messages.
func Unmarshal(filename string, data []byte, v any) error {
	f, err := build.ParseBzl(filename, data)
	if err != nil {
		return err
	}

	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Pointer {
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return fmt.Errorf("starlark.Unmarshal(): invalid value type: got %v, expected struct", val.Kind())
	}

	d := decoder{filename: filename}
	for _, stmt := range f.Stmt {
		if _, ok := stmt.(*build.CommentBlock); ok {
			continue
		}

		// At the top level, we only allow assignments,
		// where the identifier being assigned to indicates
		// which field in the structure we populate.
		assign, ok := stmt.(*build.AssignExpr)
		if !ok {
			return fmt.Errorf("%s: unexpected statement type: %T", d.pos(stmt), stmt)
		}

		lhs, ok := assign.LHS.(*build.Ident)
		if !ok {
			return fmt.Errorf("%s: found assignment to %T, expected identifier", d.pos(assign.LHS), assign.LHS)
		}

		found, err := d.assign(val, lhs.Name, assign.RHS)
		if err != nil {
			return err
		}

		if !found {
			return fmt.Errorf("%s: assignment to %s: not found in %T", d.pos(assign.LHS), lhs.Name, v)
		}
	}

	return nil
}

type decoder struct {
	filename string
}

// pos is a helper for printing file:line prefixes
// for error messages.
func (d decoder) pos(x build.Expr) string {
	start, _ := x.Span()
	return fmt.Sprintf("%s:%d", d.filename, start.Line)
}

// assign decodes x into the field of the structure v tagged with name. It
// reports whether such a field exists.
func (d decoder) assign(v reflect.Value, name string, x build.Expr) (bool, error) {
	structType := v.Type()
	for i := 0; i < structType.NumField(); i++ {
		fieldType := structType.Field(i)
		tag, ok := fieldType.Tag.Lookup("bzl")
		if !ok {
			// We ignore fields without a tag.
			continue
		}

		// Lists of function calls are tagged
		// as name/type, where name is the name
		// of the identifier being assigned to
		// and type is the name of the function
		// to expect in the list.
		tag, structName, ok := strings.Cut(tag, "/")
		if ok && structName == "" {
			return false, fmt.Errorf("%s.%s has an invalid tag: structure name cannot be empty", structType, fieldType.Name)
		}

		if tag != name {
			continue
		}

		return true, d.unmarshal(x, tag, structName, v.Field(i))
	}

	return false, nil
}

func (d decoder) unmarshal(x build.Expr, name, structName string, v reflect.Value) error {
	if _, ok := x.(*build.CallExpr); !ok && v.Kind() == reflect.Pointer {
		v.Set(reflect.New(v.Type().Elem()))
		v = v.Elem()
	}

	switch expr := x.(type) {
	case *build.Ident:
		if expr.Name != "True" && expr.Name != "False" {
			return fmt.Errorf("%s: found identifier value %q, want bool", d.pos(x), expr.Name)
		}

		if v.Kind() != reflect.Bool {
			return fmt.Errorf("%s: found bool value for %s, want %s", d.pos(x), name, v.Kind())
		}

		if structName != "" {
			return fmt.Errorf("%s: found %s value with structure name %q in tag", d.pos(x), v.Kind(), structName)
		}

		v.SetBool(expr.Name == "True")
	case *build.StringExpr:
		if v.Kind() != reflect.String {
			return fmt.Errorf("%s: found string value for %s, want %s", d.pos(x), name, v.Kind())
		}

		if structName != "" {
			return fmt.Errorf("%s: found %s value with structure name %q in tag", d.pos(x), v.Kind(), structName)
		}

		v.SetString(expr.Value)
	case *build.LiteralExpr:
		if structName != "" {
			return fmt.Errorf("%s: found %s value with structure name %q in tag", d.pos(x), v.Kind(), structName)
		}

		switch v.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			n, err := strconv.ParseInt(expr.Token, 0, v.Type().Bits())
			if err != nil {
				return fmt.Errorf("%s: invalid value for %s: %v", d.pos(x), name, err)
			}
			v.SetInt(n)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			n, err := strconv.ParseUint(expr.Token, 0, v.Type().Bits())
			if err != nil {
				return fmt.Errorf("%s: invalid value for %s: %v", d.pos(x), name, err)
			}
			v.SetUint(n)
		case reflect.String:
			v.SetString(expr.Token)
		default:
			return fmt.Errorf("%s: found number value for %s, want %s", d.pos(x), name, v.Kind())
		}
	case *build.ListExpr:
		if v.Kind() != reflect.Slice {
			return fmt.Errorf("%s: found list value for %s, want %s", d.pos(expr), name, v.Kind())
		}

		v.Set(reflect.MakeSlice(v.Type(), len(expr.List), len(expr.List)))
		for i, elt := range expr.List {
			err := d.unmarshal(elt, fmt.Sprintf("%s[%d]", name, i), structName, v.Index(i))
			if err != nil {
				return err
			}
		}
	case *build.DictExpr:
		if v.Kind() != reflect.Map {
			return fmt.Errorf("%s: found dict value for %s, want %s", d.pos(expr), name, v.Kind())
		}

		keyType := v.Type().Key()
		elemType := v.Type().Elem()
		v.Set(reflect.MakeMapWithSize(v.Type(), len(expr.List)))
		for _, elt := range expr.List {
			key := reflect.New(keyType)
			err := d.unmarshal(elt.Key, fmt.Sprintf("%s key", name), "", key.Elem())
			if err != nil {
				return err
			}

			val := reflect.New(elemType)
			err = d.unmarshal(elt.Value, fmt.Sprintf("%s value", name), structName, val.Elem())
			if err != nil {
				return err
			}

			v.SetMapIndex(key.Elem(), val.Elem())
		}
	case *build.CallExpr:
		if v.Kind() != reflect.Struct && (v.Kind() != reflect.Pointer || v.Type().Elem().Kind() != reflect.Struct) {
			return fmt.Errorf("%s: found structure value for %s, want %s", d.pos(expr), name, v.Kind())
		}

		if fun, ok := expr.X.(*build.Ident); !ok {
			return fmt.Errorf("%s: found structure type %T, expected identifier", d.pos(expr.X), expr.X)
		} else if fun.Name != structName {
			return fmt.Errorf("%s: found structure type %s, want %s", d.pos(expr.X), fun.Name, structName)
		}

		if v.Kind() == reflect.Pointer {
			v.Set(reflect.New(v.Type().Elem()))
			v = v.Elem()
		}

		for _, elt := range expr.List {
			assign, ok := elt.(*build.AssignExpr)
			if !ok {
				return fmt.Errorf("%s: found structure field with %T type, want assignment", d.pos(elt), elt)
			}

			lhs, ok := assign.LHS.(*build.Ident)
			if !ok || lhs.Name == "True" || lhs.Name == "False" {
				typeName := fmt.Sprintf("%T", assign.LHS)
				if lhs != nil && lhs.Name != "" {
					typeName = "bool"
				}

				return fmt.Errorf("%s: found assignment to %s, expected identifier", d.pos(assign.LHS), typeName)
			}

			found, err := d.assign(v, lhs.Name, assign.RHS)
			if err != nil {
				return err
			}

			if !found {
				return fmt.Errorf("%s: assignment to %s: not found in %s", d.pos(assign.LHS), lhs.Name, v.Type().Name())
			}
		}
	default:
		return fmt.Errorf("%s: unexpected Starlark value of type %T", d.pos(x), x)
	}

	return nil
}
