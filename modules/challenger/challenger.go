package challenger

import (
	"ShardReducerCircuit/modules/fields"

	"github.com/consensys/gnark/frontend"
)

// DuplexChallenger is the in-circuit Fiat-Shamir transcript for the reduce
// circuit. Observations are buffered and folded into the sponge state on
// Flush; squeezing a challenge always works on a flushed state. The element
// absorption order must reproduce the out-of-circuit prover's exactly,
// otherwise every challenge derived downstream diverges.
type DuplexChallenger struct {
	fields.ArithmeticEngine

	// The sponge permutation
	hasher FieldHasher

	// The values buffered for the next duplexing call
	inputBuffer []frontend.Variable

	// The canonical sponge state, always hasher.StateWidth() wide
	state []frontend.Variable

	// helper field: counting permutation calls, irrelevant to circuit
	count uint
}

// NewDuplexChallenger constructs a fresh transcript with an all-zero sponge
// state and an empty absorption buffer.
func NewDuplexChallenger(engine fields.ArithmeticEngine) *DuplexChallenger {
	hasher := newFieldHasher(engine)

	state := make([]frontend.Variable, hasher.StateWidth())
	for i := range state {
		state[i] = 0
	}

	return &DuplexChallenger{
		ArithmeticEngine: engine,
		hasher:           hasher,
		inputBuffer:      make([]frontend.Variable, 0),
		state:            state,
		count:            0,
	}
}

// Observe buffers base field elements for absorption. Nothing is hashed
// until Flush or a squeeze forces the duplexing.
func (c *DuplexChallenger) Observe(fs ...frontend.Variable) {
	c.inputBuffer = append(c.inputBuffer, fs...)
}

// ObserveCommitment absorbs a full commitment digest and flushes, leaving
// the sponge in a canonical state at the controller's branch boundaries.
func (c *DuplexChallenger) ObserveCommitment(digest []frontend.Variable) {
	if uint(len(digest)) != c.CommitmentDigestSize() {
		panic("commitment digest width mismatching the transcript field")
	}

	c.Observe(digest...)
	c.Flush()
}

// Flush folds every buffered element into the sponge state. Flushing with an
// empty buffer is a no-op, so the canonical state can be read repeatedly.
func (c *DuplexChallenger) Flush() {
	if len(c.inputBuffer) == 0 {
		return
	}

	var newCount uint
	c.state, newCount = c.hasher.HashToState(append(c.state, c.inputBuffer...)...)
	c.count += newCount
	c.inputBuffer = c.inputBuffer[:0]
}

// SampleF squeezes one base field challenge. Squeezing with nothing buffered
// ratchets the sponge forward, so repeated samples are independent.
func (c *DuplexChallenger) SampleF() frontend.Variable {
	if len(c.inputBuffer) != 0 {
		c.Flush()
	} else {
		var newCount uint
		c.state, newCount = c.hasher.HashToState(c.state...)
		c.count += newCount
	}

	return c.state[0]
}

// SampleExt squeezes one challenge-field element, limb by limb from the
// squeezable part of the state.
func (c *DuplexChallenger) SampleExt() []frontend.Variable {
	degree := c.ChallengeFieldDegree()
	if degree > c.hasher.StateCapacity() {
		panic("challenge field degree exceeding sponge capacity")
	}

	_ = c.SampleF()
	ext := make([]frontend.Variable, degree)
	copy(ext, c.state[:degree])
	return ext
}

// SampleBits squeezes a challenge and returns its low bits. The sample is
// decomposed over the full field bit width and the tail discarded, so the
// returned bits are the canonical low bits of the squeezed element rather
// than a width constraint on it.
func (c *DuplexChallenger) SampleBits(numBits int) []frontend.Variable {
	f := c.SampleF()
	bits := c.ToBinary(f, c.FieldModulus().BitLen())
	return bits[:numBits]
}

// Fork produces an independent copy sharing no further mutation with the
// receiver. Verification calls receive forks so a speculative transcript
// extension never corrupts the canonical chain.
func (c *DuplexChallenger) Fork() *DuplexChallenger {
	fork := &DuplexChallenger{
		ArithmeticEngine: c.ArithmeticEngine,
		hasher:           c.hasher,
		inputBuffer:      make([]frontend.Variable, len(c.inputBuffer)),
		state:            make([]frontend.Variable, len(c.state)),
		count:            c.count,
	}
	copy(fork.inputBuffer, c.inputBuffer)
	copy(fork.state, c.state)
	return fork
}

// State flushes and returns a copy of the canonical sponge state.
func (c *DuplexChallenger) State() []frontend.Variable {
	c.Flush()

	state := make([]frontend.Variable, len(c.state))
	copy(state, c.state)
	return state
}

// SetState overwrites the sponge state, discarding any buffered elements.
func (c *DuplexChallenger) SetState(state []frontend.Variable) {
	if uint(len(state)) != c.hasher.StateWidth() {
		panic("sponge state width mismatching the transcript hasher")
	}

	c.inputBuffer = c.inputBuffer[:0]
	c.state = make([]frontend.Variable, len(state))
	copy(c.state, state)
}

// StateWidth exposes the canonical state width of the underlying sponge.
func (c *DuplexChallenger) StateWidth() uint {
	return c.hasher.StateWidth()
}

func (c *DuplexChallenger) GetCount() uint {
	return c.count
}

func (c *DuplexChallenger) ResetCount() {
	c.count = 0
}

// SelectChallenger returns a transcript whose state is the element-wise
// selection between two flushed transcripts: lhs when bit is 1, rhs
// otherwise. Both transcripts must run over the same field.
func SelectChallenger(
	engine fields.ArithmeticEngine,
	bit frontend.Variable,
	lhs *DuplexChallenger,
	rhs *DuplexChallenger,
) *DuplexChallenger {
	lhsState := lhs.State()
	rhsState := rhs.State()

	res := NewDuplexChallenger(engine)
	res.SetState(engine.SelectExtension(bit, lhsState, rhsState))
	res.count = max(lhs.count, rhs.count)
	return res
}
