// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sht85 provides a driver for the Sensirion SHT85 I2C
// Temperature/Humidity sensor. This is a high accuracy sensor with a
// pin-type connector, based on the same command protocol as the SHT3x
// series.
//
// The driver implements single shot acquisition, periodic acquisition at
// 0.5 to 10 measurements per second, the Accelerated Response Time feature,
// status register decoding, heater control, and dew point derivation from
// the measured values.
//
// Every command is a 16-bit word transmitted most significant byte first.
// Responses are composed of 3-byte data words, two payload bytes followed
// by a CRC-8 checksum. The command words are injected through a
// CommandTable, so protocol-compatible variants with a different register
// map can be driven by loading a YAML table instead of forking the driver.
//
// # Datasheet
//
// https://sensirion.com/media/documents/4B642D03/6284C347/Sensirion_Humidity_Sensors_SHT85_Datasheet.pdf
package sht85
