// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

import "testing"

func TestCRC8(t *testing.T) {
	var tests = []struct {
		bytes  []byte
		result byte
	}{
		{bytes: []byte{0x00, 0x00}, result: 0x81},
		{bytes: []byte{0xbe, 0xef}, result: 0x92},
		{bytes: []byte{0x01, 0xa4}, result: 0x4d},
		{bytes: []byte{0xab, 0xcd}, result: 0x6f},
		{bytes: []byte{0xff, 0xff}, result: 0xac},
	}
	for _, test := range tests {
		res := CRC8(test.bytes)
		if res != test.result {
			t.Errorf("CRC8(%#v)!=0x%x received 0x%x", test.bytes, test.result, res)
		}
	}
	// Determinism: the same input always yields the same checksum.
	for i := 0; i < 3; i++ {
		if res := CRC8([]byte{0xbe, 0xef}); res != 0x92 {
			t.Errorf("CRC8 is not stable, received 0x%x", res)
		}
	}
}

func TestValidWord(t *testing.T) {
	var tests = []struct {
		word  []byte
		valid bool
	}{
		{word: []byte{0xbe, 0xef, 0x92}, valid: true},
		{word: []byte{0xbe, 0xef, 0x93}, valid: false},
		{word: []byte{0x00, 0x00, 0x81}, valid: true},
		{word: []byte{0xbe, 0xef}, valid: false},
		{word: nil, valid: false},
	}
	for _, test := range tests {
		if got := ValidWord(test.word); got != test.valid {
			t.Errorf("ValidWord(%#v)=%t expected %t", test.word, got, test.valid)
		}
	}
}
