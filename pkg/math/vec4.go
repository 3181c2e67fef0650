package math

// Vec4 is a 4D vector, mostly homogeneous coordinates and RGBA colors.
type Vec4 struct {
	X, Y, Z, W float32
}
