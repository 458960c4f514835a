// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains the checksum engine shared by the driver and its
// tooling. Sensirion sensors transfer data in 3-byte words: two payload
// bytes followed by an 8-bit CRC.
package common

// WordLen is the size of one data word on the wire: two payload bytes and
// the trailing checksum byte.
const WordLen = 3

// CRC8 calculates the 8-bit CRC of the byte slice parameter and returns the
// calculated value. Polynomial 0x31, initial register 0xff, no reflection,
// no final xor.
func CRC8(bytes []byte) byte {
	var crc byte = 0xff
	for _, val := range bytes {
		crc ^= val
		for i := 0; i < 8; i++ {
			if (crc & 0x80) == 0 {
				crc <<= 1
			} else {
				crc = (byte)((crc << 1) ^ 0x31)
			}
		}
	}
	return crc
}

// ValidWord reports whether a 3-byte data word carries a checksum matching
// its payload. A mismatch indicates transmission noise rather than sensor
// malfunction, so callers typically flag the decoded value instead of
// discarding it.
func ValidWord(word []byte) bool {
	if len(word) != WordLen {
		return false
	}
	return CRC8(word[:2]) == word[2]
}
