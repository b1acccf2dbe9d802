// Copyright 2022 The Firefly Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package starlark

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"rsc.io/diff"
)

type (
	testBool struct {
		Foo bool   `bzl:"foo"`
		Bar string `bzl:"bar"`
	}
	testString struct {
		Foo string `bzl:"foo"`
	}
	testStringsSlice struct {
		Bar bool
		Foo []string `bzl:"Bar"`
	}
	testStringsMap struct {
		Foo map[string]string `bzl:"foo"`
	}
	testNumbers struct {
		Int   int    `bzl:"int"`
		Byte  uint8  `bzl:"byte"`
		Bytes []byte `bzl:"bytes"`
		Size  string `bzl:"size"`
	}
	testOptional struct {
		Num  *int      `bzl:"num"`
		Flag *bool     `bzl:"flag"`
		List []string  `bzl:"list"`
		Sub  *testBool `bzl:"sub/sub"`
	}
	testSubStruct struct {
		Name   string `bzl:"name"`
		Test   bool   `bzl:"test"`
		Other  string
		Ignore string `bzl:"Other"`
	}
	testStruct struct {
		Foo testSubStruct `bzl:"foo/sub"`
	}
	testStructPtrsSlice struct {
		Foo []*testSubStruct `bzl:"foo/sub"`
	}
	testNestedStructsSlice struct {
		Bar []testStructsSlice `bzl:"bar/nest"`
	}
	testStructsSlice struct {
		Foo []testSubStruct `bzl:"foo/sub"`
	}
)

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }

func TestUnmarshal(t *testing.T) {
	tests := []struct {
		Name string
		Text string
		In   any
		Want any
	}{
		{
			Name: "bool",
			Text: "# Foo is a bool.\n# Another comment.\n\nfoo = True",
			In:   new(testBool),
			Want: &testBool{Foo: true},
		},
		{
			Name: "string",
			Text: `foo = "foo"`,
			In:   new(testString),
			Want: &testString{Foo: "foo"},
		},
		{
			Name: "strings slice",
			Text: `Bar = ["bar", "baz"]`,
			In:   new(testStringsSlice),
			Want: &testStringsSlice{Foo: []string{"bar", "baz"}},
		},
		{
			Name: "strings map",
			Text: `foo = {"bar": "baz", "one": "1"}`,
			In:   new(testStringsMap),
			Want: &testStringsMap{Foo: map[string]string{"bar": "baz", "one": "1"}},
		},
		{
			Name: "numbers",
			Text: `int = 256
byte = 0xF3
bytes = [0x0F, 0x38, 7]
size = 128`,
			In:   new(testNumbers),
			Want: &testNumbers{Int: 256, Byte: 0xF3, Bytes: []byte{0x0F, 0x38, 7}, Size: "128"},
		},
		{
			Name: "optional values set",
			Text: `num = 0
flag = False
list = []
sub = sub(foo = True)`,
			In:   new(testOptional),
			Want: &testOptional{Num: intPtr(0), Flag: boolPtr(false), List: []string{}, Sub: &testBool{Foo: true}},
		},
		{
			Name: "optional values absent",
			Text: `# nothing`,
			In:   new(testOptional),
			Want: &testOptional{},
		},
		{
			Name: "struct",
			Text: `foo = sub(name = "bar", test = True, Other = "baz")`,
			In:   new(testStruct),
			Want: &testStruct{Foo: testSubStruct{Name: "bar", Test: true, Ignore: "baz"}},
		},
		{
			Name: "structs pointer slice",
			Text: `foo = [
			    sub(name = "bar", test = True),
			    sub(name = "two", test = False),
			]`,
			In: new(testStructPtrsSlice),
			Want: &testStructPtrsSlice{Foo: []*testSubStruct{
				{Name: "bar", Test: true},
				{Name: "two", Test: false},
			}},
		},
		{
			Name: "nested structs slice",
			Text: `bar = [
				nest(
					foo = [
						sub(name = "bar", test = True),
						sub(name = "two", test = False),
					],
				),
			]`,
			In: new(testNestedStructsSlice),
			Want: &testNestedStructsSlice{
				Bar: []testStructsSlice{
					{
						Foo: []testSubStruct{
							{Name: "bar", Test: true},
							{Name: "two", Test: false},
						},
					},
				},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			err := Unmarshal("test.bzl", []byte(test.Text), test.In)
			if err != nil {
				t.Fatal(err)
			}

			if !reflect.DeepEqual(test.In, test.Want) {
				g, err := json.MarshalIndent(test.In, "", "\t")
				if err != nil {
					t.Fatal(err)
				}

				w, err := json.MarshalIndent(test.Want, "", "\t")
				if err != nil {
					t.Fatal(err)
				}

				t.Fatalf("Unmarshal(): result mismatch:\n%s", diff.Format(string(g), string(w)))
			}
		})
	}
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		Name string
		Text string
		In   any
		Want string
	}{
		{
			Name: "syntax error",
			Text: `foo = [`,
			In:   new(testBool),
			Want: `syntax error`,
		},
		{
			Name: "invalid input type",
			Text: `foo = True`,
			In:   new(int),
			Want: `invalid value type: got int, expected struct`,
		},
		{
			Name: "top level function call",
			Text: `foo()`,
			In:   new(testBool),
			Want: `unexpected statement type: *build.CallExpr`,
		},
		{
			Name: "invalid structure tag",
			Text: `foo = "bar"`,
			In: new(struct {
				Foo string `bzl:"foo/"`
			}),
			Want: `.Foo has an invalid tag: structure name cannot be empty`,
		},
		{
			Name: "field not found",
			Text: `bar = "baz"`,
			In:   new(testString),
			Want: `test.bzl:1: assignment to bar: not found in *starlark.testString`,
		},
		{
			Name: "wrong identifier for bool",
			Text: `foo = bar`,
			In:   new(testBool),
			Want: `found identifier value "bar", want bool`,
		},
		{
			Name: "wrong type for string",
			Text: `foo = "bar"`,
			In:   new(testBool),
			Want: `found string value for foo, want bool`,
		},
		{
			Name: "wrong type for number",
			Text: `foo = 12`,
			In:   new(testBool),
			Want: `found number value for foo, want bool`,
		},
		{
			Name: "number out of range",
			Text: `byte = 0x100`,
			In:   new(testNumbers),
			Want: `test.bzl:1: invalid value for byte`,
		},
		{
			Name: "negative number",
			Text: `int = -1`,
			In:   new(testNumbers),
			Want: `unexpected Starlark value of type *build.UnaryExpr`,
		},
		{
			Name: "wrong type for slice element",
			Text: `Bar = ["bar", True]`,
			In:   new(testStringsSlice),
			Want: `found bool value for Bar[1], want string`,
		},
		{
			Name: "wrong structure name for structure",
			Text: `foo = other(bar = "baz")`,
			In:   new(testStruct),
			Want: `found structure type other, want sub`,
		},
		{
			Name: "unknown structure field",
			Text: `foo = sub(
				name = "bar",
				colour = "blue",
			)`,
			In:   new(testStruct),
			Want: `test.bzl:3: assignment to colour: not found in testSubStruct`,
		},
		{
			Name: "wrong structure field expression type",
			Text: `foo = sub("baz")`,
			In:   new(testStruct),
			Want: `found structure field with *build.StringExpr type, want assignment`,
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			err := Unmarshal("test.bzl", []byte(test.Text), test.In)
			if err == nil {
				t.Fatalf("Unmarshal(): unexpected success")
			}

			if e := err.Error(); !strings.Contains(e, test.Want) {
				t.Fatalf("Unmarshal():\nGot:  %s\nWant: %s", e, test.Want)
			}
		})
	}
}
