// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sht85

import (
	"fmt"
	"math"

	"periph.io/x/conn/v3/physic"

	"github.com/sensorworks/sht85/common"
)

const (
	// Magic numbers for count to value conversions.
	temperatureOffset float64 = -45.0
	temperatureScalar float64 = 175.0
	humidityScalar    float64 = 100.0
	scaleDivisor      float64 = 65535.0

	// Magnus coefficients from the Sensirion humidity application note.
	// The water set applies at or above freezing, the ice set below.
	magnusBetaWater   = 17.62
	magnusLambdaWater = 243.12 // °C
	magnusBetaIce     = 22.46
	magnusLambdaIce   = 272.62 // °C
)

// Reading is one decoded measurement frame. Values are rounded to the
// sensor resolution of 0.01. A new Reading supersedes the previous one; the
// driver keeps no history.
//
// The Degraded flags mark data words that failed their CRC check. The
// values are decoded regardless so the caller can decide whether to retry
// or discard.
type Reading struct {
	Temperature float64 // °C
	Humidity    float64 // %RH
	DewPoint    float64 // °C

	TemperatureDegraded bool
	HumidityDegraded    bool
}

// Degraded reports whether any word in the frame failed its checksum. The
// dew point is derived from both measurements, so it is degraded whenever
// either of them is.
func (r Reading) Degraded() bool {
	return r.TemperatureDegraded || r.HumidityDegraded
}

func (r Reading) String() string {
	return fmt.Sprintf("%.2f°C %.2f%%rH dew point %.2f°C", r.Temperature, r.Humidity, r.DewPoint)
}

// round to the sensor resolution of 0.01.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// convertTemperature maps a raw digital code to degrees Celsius.
func convertTemperature(raw uint16) float64 {
	return round2(temperatureOffset + temperatureScalar*float64(raw)/scaleDivisor)
}

// convertHumidity maps a raw digital code to %RH. A rounded value below
// 0.01 is clamped to a small positive epsilon so the dew point logarithm
// never receives a zero argument. This is a numerical stability policy,
// not a measurement correction.
func convertHumidity(raw uint16) float64 {
	rh := round2(humidityScalar * float64(raw) / scaleDivisor)
	if rh < 0.01 {
		rh = 1e-3
	}
	return rh
}

// dewPoint derives the dew point using the Magnus formula, selecting the
// water coefficients for t >= 0 and the ice coefficients below. Requires
// rh > 0, which convertHumidity guarantees.
func dewPoint(t, rh float64) float64 {
	beta, lambda := magnusBetaWater, magnusLambdaWater
	if t < 0 {
		beta, lambda = magnusBetaIce, magnusLambdaIce
	}
	c1 := beta * t / (lambda + t)
	c2 := math.Log(rh / 100)
	return round2(lambda * (c2 + c1) / (beta - c2 - c1))
}

// decodeFrame decodes a 6-byte measurement frame laid out as
// [T_msb, T_lsb, T_crc, RH_msb, RH_lsb, RH_crc]. Checksum validation is per
// word, so a corrupted humidity word leaves the temperature flagged intact.
func decodeFrame(frame []byte) Reading {
	r := Reading{
		TemperatureDegraded: !common.ValidWord(frame[0:3]),
		HumidityDegraded:    !common.ValidWord(frame[3:6]),
	}
	r.Temperature = convertTemperature(uint16(frame[0])<<8 | uint16(frame[1]))
	r.Humidity = convertHumidity(uint16(frame[3])<<8 | uint16(frame[4]))
	r.DewPoint = dewPoint(r.Temperature, r.Humidity)
	return r
}

// env converts the reading to physic units for the SenseEnv interface.
func (r Reading) env(e *physic.Env) {
	e.Temperature = physic.ZeroCelsius + physic.Temperature(r.Temperature*float64(physic.Celsius))
	e.Humidity = physic.RelativeHumidity(r.Humidity * float64(physic.PercentRH))
	e.Pressure = 0
}
