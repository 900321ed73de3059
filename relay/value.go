// Copyright 2021 Shiwen Cheng. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package relay

import (
	"math"
	"strconv"
	"strings"
)

type ValueKind int

const (
	IntegerValue ValueKind = iota
	FloatValue
	StringValue
)

func (k ValueKind) String() string {
	switch k {
	case IntegerValue:
		return "integer"
	case FloatValue:
		return "float"
	default:
		return "string"
	}
}

// Value is one of an integer, a float or the raw string, selected by Kind.
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Str   string
}

func IntValue(i int64) Value {
	return Value{Kind: IntegerValue, Int: i}
}

func FloatVal(f float64) Value {
	return Value{Kind: FloatValue, Float: f}
}

func StringVal(s string) Value {
	return Value{Kind: StringValue, Str: s}
}

// Interface returns the value as int64, float64 or string.
func (v Value) Interface() interface{} {
	switch v.Kind {
	case IntegerValue:
		return v.Int
	case FloatValue:
		return v.Float
	default:
		return v.Str
	}
}

func (v Value) String() string {
	switch v.Kind {
	case IntegerValue:
		return strconv.FormatInt(v.Int, 10)
	case FloatValue:
		s := strconv.FormatFloat(v.Float, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	default:
		return v.Str
	}
}

// ParseValue tries an integer (only when raw has no '.'), then a float, then keeps raw as a string.
// Integers follow Go literal syntax: "0x1f" is 31 and a leading zero means octal, so "010" is 8.
// Digits that are not valid octal after a leading zero, like "08", fall through to the float 8.
func ParseValue(raw string) Value {
	if !strings.Contains(raw, ".") {
		if i, ok := parseInt(raw); ok {
			return IntValue(i)
		}
	}
	if f, ok := parseFloat(raw); ok {
		return FloatVal(f)
	}
	return StringVal(raw)
}

func parseInt(raw string) (int64, bool) {
	// base 0 accepts 0x, 0o, 0b prefixes and underscores
	i, err := strconv.ParseInt(raw, 0, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

func parseFloat(raw string) (float64, bool) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
