// Copyright 2021 Shiwen Cheng. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Value
	}{
		{name: "integer", raw: "42", want: IntValue(42)},
		{name: "negative integer", raw: "-7", want: IntValue(-7)},
		{name: "single digit", raw: "5", want: IntValue(5)},
		{name: "hex integer", raw: "0x1f", want: IntValue(31)},
		{name: "leading zero octal", raw: "010", want: IntValue(8)},
		{name: "leading zero not octal", raw: "08", want: FloatVal(8)},
		{name: "underscore integer", raw: "1_000", want: IntValue(1000)},
		{name: "float", raw: "3.14", want: FloatVal(3.14)},
		{name: "float with zero fraction", raw: "5.0", want: FloatVal(5)},
		{name: "float exponent", raw: "5.5e2", want: FloatVal(550)},
		{name: "exponent without dot", raw: "1e3", want: FloatVal(1000)},
		{name: "integer overflow", raw: "99999999999999999999", want: FloatVal(1e20)},
		{name: "not a number", raw: "not_a_number", want: StringVal("not_a_number")},
		{name: "word", raw: "abc", want: StringVal("abc")},
		{name: "nan", raw: "NaN", want: StringVal("NaN")},
		{name: "inf", raw: "+Inf", want: StringVal("+Inf")},
		{name: "two dots", raw: "1.2.3", want: StringVal("1.2.3")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseValue(tt.raw))
		})
	}
}

func TestParseValueIdempotent(t *testing.T) {
	for _, raw := range []string{"42", "3.14", "5.0", "5.5e2", "not_a_number", "-0.25"} {
		v := ParseValue(raw)
		again := ParseValue(v.String())
		assert.Equal(t, v.Kind, again.Kind, raw)
		assert.Equal(t, v, again, raw)
	}
}

func TestValueInterface(t *testing.T) {
	assert.Equal(t, int64(42), IntValue(42).Interface())
	assert.Equal(t, 72.5, FloatVal(72.5).Interface())
	assert.Equal(t, "up", StringVal("up").Interface())
	assert.Equal(t, "float", FloatValue.String())
}
