package weather

import "math"

const kmhPerMph = 0.621371

// Convert returns data expressed in toUnit. Temperature, FeelsLike, WindSpeed
// and Unit change together; the input is never mutated. When data is nil or
// already in toUnit it is returned as is.
//
// Each conversion rounds to an integer, so a metric→imperial→metric round trip
// may drift by one unit.
func Convert(data *CurrentConditions, toUnit Unit) *CurrentConditions {
	if data == nil || data.Unit == toUnit {
		return data
	}

	converted := *data
	if toUnit == Imperial {
		converted.Temperature = CelsiusToFahrenheit(data.Temperature)
		converted.FeelsLike = CelsiusToFahrenheit(data.FeelsLike)
		converted.WindSpeed = KmhToMph(data.WindSpeed)
	} else {
		converted.Temperature = FahrenheitToCelsius(data.Temperature)
		converted.FeelsLike = FahrenheitToCelsius(data.FeelsLike)
		converted.WindSpeed = MphToKmh(data.WindSpeed)
	}
	converted.Unit = toUnit

	return &converted
}

// CelsiusToFahrenheit converts and rounds to the nearest degree.
func CelsiusToFahrenheit(c int) int {
	return round(float64(c)*9/5 + 32)
}

// FahrenheitToCelsius converts and rounds to the nearest degree.
func FahrenheitToCelsius(f int) int {
	return round((float64(f) - 32) * 5 / 9)
}

func KmhToMph(v int) int {
	return round(float64(v) * kmhPerMph)
}

func MphToKmh(v int) int {
	return round(float64(v) / kmhPerMph)
}

// round rounds halves toward +Inf, so -2.5 becomes -2 and 2.5 becomes 3.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}
