package fixed

var (
	Zero = FromInt64(0, 0)
	One  = FromInt64(1, 0)
	Two  = FromInt64(2, 0)
	Half = FromInt64(5, 1)

	Hundred     = FromInt64(100, 0)
	Thousand    = FromInt64(1000, 0)
	TenThousand = FromInt64(10000, 0)

	// Sqrt252 annualizes daily return statistics (252 trading days).
	Sqrt252 = FromInt64(252, 0).Sqrt()
)

func Min(a, b Point) Point {
	if a.Lte(b) {
		return a
	}
	return b
}

func Max(a, b Point) Point {
	if a.Gte(b) {
		return a
	}
	return b
}

// Clamp bounds v to the closed interval [lo, hi].
func Clamp(v, lo, hi Point) Point {
	if v.Lt(lo) {
		return lo
	}
	if v.Gt(hi) {
		return hi
	}
	return v
}
