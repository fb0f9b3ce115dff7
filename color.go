package main

import (
	"crypto/rand"
	"math"
)

// Color is an RGB triple, each channel an integer in 0-255.
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// maxColorDistance is the diagonal of the RGB cube, i.e. the distance
// between pure black and pure white.
var maxColorDistance = math.Sqrt(3 * 255 * 255)

// randomColor draws a target color with each channel independently
// uniform over the full byte range.
func randomColor() Color {
	var buf [3]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	return Color{R: int(buf[0]), G: int(buf[1]), B: int(buf[2])}
}

func (c Color) distance(other Color) float64 {
	dr := float64(c.R - other.R)
	dg := float64(c.G - other.G)
	db := float64(c.B - other.B)

	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// accuracy maps the distance between a guess and the target onto a 0-100
// scale: an exact match scores 100, the opposite corner of the cube 0.
func accuracy(target, guess Color) int {
	return int(math.Round((1 - target.distance(guess)/maxColorDistance) * 100))
}
