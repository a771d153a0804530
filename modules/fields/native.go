package fields

import "math/big"

// Native big.Int mirrors of the extension field arithmetic, used by the
// out-of-circuit transcript replays that prepare witness material.

// NativeExtensionZero returns the extension field zero as native limbs.
func (f ECCFieldEnum) NativeExtensionZero() []*big.Int {
	degree := f.ChallengeFieldDegree()
	zero := make([]*big.Int, degree)
	for i := range zero {
		zero[i] = big.NewInt(0)
	}
	return zero
}

// NativeExtensionOne returns the extension field one as native limbs.
func (f ECCFieldEnum) NativeExtensionOne() []*big.Int {
	one := f.NativeExtensionZero()
	one[0] = big.NewInt(1)
	return one
}

// NativeToExtension lifts a native base field element to extension limbs.
func (f ECCFieldEnum) NativeToExtension(e *big.Int) []*big.Int {
	res := f.NativeExtensionZero()
	res[0] = new(big.Int).Set(e)
	return res
}

// NativeExtensionAdd adds two extension field elements limb by limb.
func (f ECCFieldEnum) NativeExtensionAdd(e0, e1 []*big.Int) []*big.Int {
	degree := f.ChallengeFieldDegree()
	if len(e0) != int(degree) || len(e1) != int(degree) {
		panic("extension field should be of same degree")
	}

	modulus := f.FieldModulus()
	res := make([]*big.Int, degree)
	for i := range res {
		res[i] = new(big.Int).Mod(new(big.Int).Add(e0[i], e1[i]), modulus)
	}
	return res
}

// NativeExtensionMul multiplies two extension field elements, limb formulas
// matching the in-circuit pairwiseExtensionMul.
func (f ECCFieldEnum) NativeExtensionMul(e0, e1 []*big.Int) []*big.Int {
	degree := f.ChallengeFieldDegree()
	if len(e0) != int(degree) || len(e1) != int(degree) {
		panic("extension field should be of same degree")
	}

	modulus := f.FieldModulus()
	mul := func(a, b *big.Int) *big.Int {
		return new(big.Int).Mod(new(big.Int).Mul(a, b), modulus)
	}
	add := func(vs ...*big.Int) *big.Int {
		acc := big.NewInt(0)
		for _, v := range vs {
			acc.Add(acc, v)
		}
		return acc.Mod(acc, modulus)
	}

	res := f.NativeExtensionZero()
	switch f {
	case ECCBN254:
		res[0] = mul(e0[0], e1[0])
	case ECCM31:
		// polynomial mod (x^3 - 5)
		five := big.NewInt(5)

		res[0] = add(
			mul(e0[0], e1[0]),
			mul(five, add(mul(e0[1], e1[2]), mul(e0[2], e1[1]))),
		)
		res[1] = add(
			mul(e0[0], e1[1]),
			mul(e0[1], e1[0]),
			mul(five, mul(e0[2], e1[2])),
		)
		res[2] = add(
			mul(e0[0], e1[2]),
			mul(e0[1], e1[1]),
			mul(e0[2], e1[0]),
		)
	case ECCGF2:
		fallthrough
	default:
		panic("extension field multiplication not yet supported")
	}

	return res
}
