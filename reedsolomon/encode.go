package reedsolomon

// PolyMul multiplies two polynomials with coefficients ordered from the
// highest degree to the lowest.
func (f *Field) PolyMul(p, q []byte) []byte {
	r := make([]byte, len(p)+len(q)-1)
	for j, qj := range q {
		for i, pi := range p {
			r[i+j] ^= f.Mul(pi, qj)
		}
	}
	return r
}

// PolyDiv divides dividend by divisor using synthetic division and returns
// the quotient and the remainder. The divisor must be monic.
func (f *Field) PolyDiv(dividend, divisor []byte) (quotient, remainder []byte) {
	out := make([]byte, len(dividend))
	copy(out, dividend)
	for i := 0; i < len(dividend)-(len(divisor)-1); i++ {
		coef := out[i]
		if coef == 0 {
			continue
		}
		for j := 1; j < len(divisor); j++ {
			if divisor[j] != 0 {
				out[i+j] ^= f.Mul(divisor[j], coef)
			}
		}
	}
	sep := len(out) - (len(divisor) - 1)
	return out[:sep], out[sep:]
}

// GeneratorPoly returns the product of (x - 2^i) for i in [0, nsym).
func (f *Field) GeneratorPoly(nsym int) []byte {
	g := []byte{1}
	for i := 0; i < nsym; i++ {
		g = f.PolyMul(g, []byte{1, f.Pow(2, i)})
	}
	return g
}

// Encode returns msg followed by nsym parity symbols.
func (f *Field) Encode(msg []byte, nsym int) []byte {
	gen := f.GeneratorPoly(nsym)
	padded := make([]byte, len(msg)+len(gen)-1)
	copy(padded, msg)
	_, rem := f.PolyDiv(padded, gen)

	out := make([]byte, 0, len(msg)+nsym)
	out = append(out, msg...)
	return append(out, rem...)
}

// Syndromes evaluates the codeword at 2^i for i in [0, nsym). All syndromes
// are zero for an intact codeword.
func (f *Field) Syndromes(code []byte, nsym int) []byte {
	synd := make([]byte, nsym)
	for i := range synd {
		x := f.Pow(2, i)
		var y byte
		for _, c := range code {
			y = f.Mul(y, x) ^ c
		}
		synd[i] = y
	}
	return synd
}

// Check reports whether code is a valid codeword with nsym parity symbols.
func (f *Field) Check(code []byte, nsym int) bool {
	if len(code) <= nsym {
		return false
	}
	for _, s := range f.Syndromes(code, nsym) {
		if s != 0 {
			return false
		}
	}
	return true
}

// Encode encodes msg with the default field.
func Encode(msg []byte, nsym int) []byte {
	return Default().Encode(msg, nsym)
}
