package verifier

import (
	"fmt"
	"math/big"

	"ShardReducerCircuit/modules/challenger"
	"ShardReducerCircuit/modules/circuit"
	"ShardReducerCircuit/modules/fields"
	"ShardReducerCircuit/modules/machine"
	"ShardReducerCircuit/modules/pcs"
)

// GroundOpeningStream rewrites the derived slots of a native proof's
// opening stream so one VerifyShard pass over the given transcript accepts
// it: the claimed batched evaluation becomes the alpha-power fold of the
// per-chip openings, and the grinding witness is ground until the next
// squeeze clears its low bits. Commitment and opening slots stay whatever
// the prover, or a fixture, put there. The replay mirrors VerifyShard
// absorption for absorption, so any drift between the two shows up as an
// unsatisfied circuit. The supplied transcript must be a fork of the branch
// transcript the circuit verifies against; it is consumed.
func GroundOpeningStream(
	fieldEnum fields.ECCFieldEnum,
	params pcs.FriParams,
	m *machine.Machine,
	transcript *challenger.ReferenceSponge,
	proof *circuit.NativeShardProof,
) error {
	degree := fieldEnum.ChallengeFieldDegree()
	digestSize := fieldEnum.CommitmentDigestSize()
	maxLogDegree := m.MaxLogDegree()

	needed := digestSize + m.NumChips()*2*degree + degree +
		maxLogDegree*digestSize + degree + 1
	if uint(len(proof.Openings)) < needed {
		return fmt.Errorf("opening stream of %d elements, need %d",
			len(proof.Openings), needed)
	}

	transcript.ObserveCommitment(proof.MainCommit)
	transcript.Observe(proof.PublicValues...)
	transcript.Flush()

	stream := nativeStream{elems: proof.Openings}

	transcript.ObserveCommitment(stream.take(digestSize))

	alpha := transcript.SampleExt()
	zeta := transcript.SampleExt()
	zetaNext, err := nativeNextPoint(fieldEnum, zeta, maxLogDegree)
	if err != nil {
		return err
	}

	foldedClaim := fieldEnum.NativeExtensionZero()
	alphaPow := fieldEnum.NativeExtensionOne()
	for range m.Chips {
		openedLocal := stream.take(degree)
		openedNext := stream.take(degree)

		transcript.Observe(openedLocal...)
		transcript.Observe(openedNext...)

		foldedClaim = fieldEnum.NativeExtensionAdd(
			foldedClaim, fieldEnum.NativeExtensionMul(alphaPow, openedLocal))
		alphaPow = fieldEnum.NativeExtensionMul(alphaPow, alpha)
		foldedClaim = fieldEnum.NativeExtensionAdd(
			foldedClaim, fieldEnum.NativeExtensionMul(alphaPow, openedNext))
		alphaPow = fieldEnum.NativeExtensionMul(alphaPow, alpha)
	}
	transcript.Flush()

	// the claimed batched evaluation slot is derived, not free
	stream.put(foldedClaim)
	transcript.Observe(zeta...)
	transcript.Observe(zetaNext...)
	transcript.Observe(foldedClaim...)
	transcript.Flush()

	for i := uint(0); i < maxLogDegree; i++ {
		transcript.ObserveCommitment(stream.take(digestSize))
		_ = transcript.SampleExt()
	}

	// the final polynomial stays buffered together with the grinding
	// witness until the bit sample flushes both, same as in-circuit
	transcript.Observe(stream.take(degree)...)

	powWitness := grindProofOfWork(transcript, params.ProofOfWorkBits)
	stream.put([]*big.Int{powWitness})
	transcript.Observe(powWitness)
	_ = transcript.SampleBits(int(params.ProofOfWorkBits) + 1)

	logDomainSize := maxLogDegree + params.LogBlowup
	for i := uint(0); i < params.NumQueries; i++ {
		_ = transcript.SampleBits(int(logDomainSize))
	}

	return nil
}

// grindProofOfWork searches the smallest witness whose absorption makes the
// next squeeze clear its low powBits bits. Each candidate is tried on a
// fork, so the receiver only ever absorbs the winning witness.
func grindProofOfWork(
	transcript *challenger.ReferenceSponge, powBits uint) *big.Int {

	mask := new(big.Int).Sub(
		new(big.Int).Lsh(big.NewInt(1), powBits), big.NewInt(1))

	for candidate := uint64(0); ; candidate++ {
		witness := new(big.Int).SetUint64(candidate)

		fork := transcript.Fork()
		fork.Observe(witness)
		sample := fork.SampleF()
		if new(big.Int).And(sample, mask).Sign() == 0 {
			return witness
		}
	}
}

func nativeNextPoint(
	fieldEnum fields.ECCFieldEnum, point []*big.Int, logSize uint,
) ([]*big.Int, error) {
	generator, err := pcs.NativeGeneratorFor(fieldEnum, logSize)
	if err != nil {
		return nil, err
	}
	return fieldEnum.NativeExtensionMul(
		point, fieldEnum.NativeToExtension(generator)), nil
}

// nativeStream is a cursor over a native opening stream that can overwrite
// the derived slots in place.
type nativeStream struct {
	elems []*big.Int
	idx   uint
}

func (s *nativeStream) take(n uint) []*big.Int {
	out := s.elems[s.idx : s.idx+n]
	s.idx += n
	return out
}

func (s *nativeStream) put(vs []*big.Int) {
	for i, v := range vs {
		s.elems[s.idx+uint(i)] = new(big.Int).Set(v)
	}
	s.idx += uint(len(vs))
}
