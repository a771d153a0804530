package challenger

import (
	"math/big"

	"ShardReducerCircuit/modules/fields"

	fr_bn254 "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	mimc_bn254 "github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
)

// ReferenceSponge is the out-of-circuit mirror of DuplexChallenger: the same
// absorption discipline over native field arithmetic. The reducer uses it to
// materialize witnessed transcript states, and tests use it to recompute the
// reconstructed transcript independently of the circuit.
type ReferenceSponge struct {
	fieldEnum fields.ECCFieldEnum

	state  []*big.Int
	buffer []*big.Int
}

func NewReferenceSponge(fieldEnum fields.ECCFieldEnum) *ReferenceSponge {
	state := make([]*big.Int, fieldEnum.SpongeStateWidth())
	for i := range state {
		state[i] = big.NewInt(0)
	}

	return &ReferenceSponge{
		fieldEnum: fieldEnum,
		state:     state,
		buffer:    make([]*big.Int, 0),
	}
}

func (s *ReferenceSponge) Observe(vs ...*big.Int) {
	for _, v := range vs {
		s.buffer = append(s.buffer, new(big.Int).Set(v))
	}
}

func (s *ReferenceSponge) ObserveCommitment(digest []*big.Int) {
	if uint(len(digest)) != s.fieldEnum.CommitmentDigestSize() {
		panic("commitment digest width mismatching the sponge field")
	}

	s.Observe(digest...)
	s.Flush()
}

func (s *ReferenceSponge) Flush() {
	if len(s.buffer) == 0 {
		return
	}

	s.state = s.hashToState(append(s.state, s.buffer...))
	s.buffer = s.buffer[:0]
}

func (s *ReferenceSponge) SampleF() *big.Int {
	if len(s.buffer) != 0 {
		s.Flush()
	} else {
		s.state = s.hashToState(s.state)
	}

	return new(big.Int).Set(s.state[0])
}

// SampleExt squeezes one challenge field element limb by limb, mirroring
// the in-circuit transcript.
func (s *ReferenceSponge) SampleExt() []*big.Int {
	degree := s.fieldEnum.ChallengeFieldDegree()
	_ = s.SampleF()

	ext := make([]*big.Int, degree)
	for i := range ext {
		ext[i] = new(big.Int).Set(s.state[i])
	}
	return ext
}

// SampleBits squeezes a challenge and returns its low numBits bits as one
// integer, the value the in-circuit bit sample recomposes to.
func (s *ReferenceSponge) SampleBits(numBits int) *big.Int {
	f := s.SampleF()
	mask := new(big.Int).Sub(
		new(big.Int).Lsh(big.NewInt(1), uint(numBits)), big.NewInt(1))
	return f.And(f, mask)
}

// State flushes and returns a copy of the canonical sponge state.
func (s *ReferenceSponge) State() []*big.Int {
	s.Flush()

	state := make([]*big.Int, len(s.state))
	for i := range state {
		state[i] = new(big.Int).Set(s.state[i])
	}
	return state
}

// SetState overwrites the canonical state, discarding pending observations.
func (s *ReferenceSponge) SetState(state []*big.Int) {
	if uint(len(state)) != s.fieldEnum.SpongeStateWidth() {
		panic("state width mismatching the sponge field")
	}

	s.state = make([]*big.Int, len(state))
	for i := range state {
		s.state[i] = new(big.Int).Set(state[i])
	}
	s.buffer = s.buffer[:0]
}

// Fork copies the sponge, pending observations included, so speculative
// extensions never touch the receiver. The buffer carries over unflushed,
// matching the in-circuit Fork.
func (s *ReferenceSponge) Fork() *ReferenceSponge {
	fork := NewReferenceSponge(s.fieldEnum)

	fork.state = make([]*big.Int, len(s.state))
	for i := range s.state {
		fork.state[i] = new(big.Int).Set(s.state[i])
	}
	fork.buffer = make([]*big.Int, 0, len(s.buffer))
	for _, v := range s.buffer {
		fork.buffer = append(fork.buffer, new(big.Int).Set(v))
	}
	return fork
}

func (s *ReferenceSponge) hashToState(in []*big.Int) []*big.Int {
	switch s.fieldEnum {
	case fields.ECCBN254:
		return []*big.Int{referenceMiMCHash(in)}
	case fields.ECCM31:
		return referencePoseidonM31x16HashToState(in)
	default:
		panic("unsupported reference sponge field")
	}
}

// referenceMiMCHash matches the in-circuit gnark std MiMC over BN254 fr.
func referenceMiMCHash(in []*big.Int) *big.Int {
	hasher := mimc_bn254.NewMiMC()
	for _, v := range in {
		var e fr_bn254.Element
		e.SetBigInt(v)
		b := e.Bytes()
		hasher.Write(b[:])
	}

	return new(big.Int).SetBytes(hasher.Sum(nil))
}

// referencePoseidonM31x16HashToState mirrors poseidonM31x16HashToState over
// native uint64 arithmetic mod 2^31 - 1.
func referencePoseidonM31x16HashToState(in []*big.Int) []*big.Int {
	p := uint64(fields.ECCM31.FieldModulus().Int64())

	rate := 8
	capacity := 16 - rate
	numChunks := (len(in) + rate - 1) / rate

	absorbBuffer := make([]uint64, numChunks*rate)
	for i, v := range in {
		absorbBuffer[i] = v.Uint64() % p
	}

	res := make([]uint64, 16)
	for i := 0; i < numChunks; i++ {
		for j := capacity; j < 16; j++ {
			res[j] = (res[j] + absorbBuffer[i*rate+j-capacity]) % p
		}
		res = referencePoseidonM31x16Permutate(res, p)
	}

	out := make([]*big.Int, 16)
	for i := range out {
		out[i] = new(big.Int).SetUint64(res[i])
	}
	return out
}

func referencePoseidonM31x16Permutate(state []uint64, p uint64) []uint64 {
	partialRoundEnds := poseidonM31x16FullRounds/2 + poseidonM31x16PartialRounds
	allRoundEnds := poseidonM31x16FullRounds + poseidonM31x16PartialRounds

	for i := uint(0); i < allRoundEnds; i++ {
		// round constants
		for j := 0; j < 16; j++ {
			state[j] = (state[j] + uint64(poseidonM31x16RoundConstant[i][j])) % p
		}

		// MDS
		mixed := make([]uint64, 16)
		for j := 0; j < 16; j++ {
			for k := 0; k < 16; k++ {
				mixed[j] = (mixed[j] + uint64(poseidonM31x16MDS[j][k])*state[k]) % p
			}
		}
		state = mixed

		// s-box, partial rounds touch only the first lane
		if i >= poseidonM31x16FullRounds/2 && i < partialRoundEnds {
			state[0] = referencePow5(state[0], p)
		} else {
			for j := 0; j < 16; j++ {
				state[j] = referencePow5(state[j], p)
			}
		}
	}

	return state
}

func referencePow5(v, p uint64) uint64 {
	v2 := v * v % p
	v4 := v2 * v2 % p
	return v4 * v % p
}
