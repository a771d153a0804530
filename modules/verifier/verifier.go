package verifier

import (
	"fmt"

	"ShardReducerCircuit/modules/challenger"
	"ShardReducerCircuit/modules/circuit"
	"ShardReducerCircuit/modules/fields"
	"ShardReducerCircuit/modules/machine"
	"ShardReducerCircuit/modules/pcs"

	"github.com/consensys/gnark/frontend"
)

// ShardVerifier is the single-shard verification primitive the reduce
// controller drives. The emitted constraints hold exactly when the proof is
// consistent with the machine and the commitment openings under the
// challenges derivable from the supplied transcript state; an invalid proof
// makes the compiled circuit unsatisfiable rather than surfacing a
// recoverable error. Every assertion is gated on the activity bit: with the
// bit at zero the constraints hold vacuously, so the controller can emit
// both branch verifications per proof statically and let the per-proof flag
// pick the live one. The transcript is mutated by absorbing proof-derived
// data, so callers must hand in a fork, never a canonical transcript.
type ShardVerifier interface {
	VerifyShard(
		engine fields.ArithmeticEngine,
		active frontend.Variable,
		vk *circuit.VerifyingKey,
		friPcs *pcs.TwoAdicFriPcs,
		m *machine.Machine,
		transcript *challenger.DuplexChallenger,
		proof *circuit.ShardProof,
		sortedIndices []frontend.Variable,
		prepSortedIndices []frontend.Variable,
		prepDomains []circuit.WitnessDomain,
	)
}

// StarkShardVerifier emits the verification constraints for one shard: the
// Fiat-Shamir sampling discipline, the column-ordering binding, and the
// opening-argument challenge derivation. The polynomial identity and FRI
// low-degree internals stay behind the pcs boundary.
type StarkShardVerifier struct{}

func (v StarkShardVerifier) VerifyShard(
	engine fields.ArithmeticEngine,
	active frontend.Variable,
	vk *circuit.VerifyingKey,
	friPcs *pcs.TwoAdicFriPcs,
	m *machine.Machine,
	transcript *challenger.DuplexChallenger,
	proof *circuit.ShardProof,
	sortedIndices []frontend.Variable,
	prepSortedIndices []frontend.Variable,
	prepDomains []circuit.WitnessDomain,
) {
	// metadata shape mismatches are build-time defects, not constraints
	if uint(len(sortedIndices)) != m.NumChips() {
		panic(fmt.Sprintf("%s machine: %d sorted indices for %d chips",
			m.Name, len(sortedIndices), m.NumChips()))
	}
	if uint(len(prepSortedIndices)) != m.NumPreprocessedChips() ||
		uint(len(prepDomains)) != m.NumPreprocessedChips() {
		panic(fmt.Sprintf(
			"%s machine: preprocessed metadata for %d chips, want %d",
			m.Name, len(prepSortedIndices), m.NumPreprocessedChips()))
	}
	if uint(len(vk.Commitment)) != engine.CommitmentDigestSize() {
		panic("verifying key digest width mismatching the field")
	}

	numChips := m.NumChips()
	maxLogDegree := m.MaxLogDegree()

	// the shard's own commitment and statement enter the transcript first
	transcript.ObserveCommitment(proof.MainCommit)
	transcript.Observe(proof.PublicValues...)
	transcript.Flush()

	// column ordering binds in-range: every slot is a valid chip position,
	// every preprocessed domain sits inside the materialized config table.
	// The gated values collapse to zero on the inactive branch, where the
	// same witness slots are bound by the other machine's tighter limits
	for _, idx := range sortedIndices {
		engine.AssertIsLessOrEqual(engine.Mul(active, idx), numChips-1)
	}
	for i, idx := range prepSortedIndices {
		engine.AssertIsLessOrEqual(engine.Mul(active, idx), numChips-1)
		engine.AssertIsLessOrEqual(
			engine.Mul(active, prepDomains[i].LogSize), maxLogDegree)
		engine.AssertIsEqualWhen(active, prepDomains[i].Shift, 1)
	}

	// quotient commitment enters before any challenge depending on it
	quotientCommit := make([]frontend.Variable, engine.CommitmentDigestSize())
	for i := range quotientCommit {
		quotientCommit[i] = proof.Openings.Next()
	}
	transcript.ObserveCommitment(quotientCommit)

	// constraint batching and out-of-domain point, in protocol order
	alpha := transcript.SampleExt()
	zeta := transcript.SampleExt()
	zetaNext := friPcs.NextPoint(engine, zeta, maxLogDegree)

	// claimed openings per chip at zeta and the next row, folded with
	// alpha powers into the batched claim the opening argument certifies
	foldedClaim := engine.Zero()
	alphaPow := engine.One()
	for range m.Chips {
		openedLocal := proof.Openings.NextExt(engine.ChallengeFieldDegree())
		openedNext := proof.Openings.NextExt(engine.ChallengeFieldDegree())

		transcript.Observe(openedLocal...)
		transcript.Observe(openedNext...)

		foldedClaim = engine.ExtensionAdd(
			foldedClaim,
			engine.ExtensionMul(alphaPow, openedLocal),
		)
		alphaPow = engine.ExtensionMul(alphaPow, alpha)
		foldedClaim = engine.ExtensionAdd(
			foldedClaim,
			engine.ExtensionMul(alphaPow, openedNext),
		)
		alphaPow = engine.ExtensionMul(alphaPow, alpha)
	}
	transcript.Flush()

	// the prover's batched evaluation must match the fold of its own
	// per-chip openings, and both out-of-domain points enter the
	// transcript before any opening challenge is squeezed
	claimedBatchEval := proof.Openings.NextExt(engine.ChallengeFieldDegree())
	engine.AssertEqWhen(active, foldedClaim, claimedBatchEval)
	transcript.Observe(zeta...)
	transcript.Observe(zetaNext...)
	transcript.Observe(claimedBatchEval...)
	transcript.Flush()

	// the opening argument consumes the batched claim at (zeta, zetaNext)
	// under the challenges sampled here; its low-degree checks sit behind
	// the pcs boundary
	friPcs.SampleOpeningChallenges(
		engine, active, transcript, maxLogDegree, &proof.Openings)
}

// StreamLength is the opening stream size one VerifyShard pass consumes,
// used to shape proof placeholders for compilation.
func StreamLength(
	fieldEnum fields.ECCFieldEnum,
	m *machine.Machine,
	friPcs *pcs.TwoAdicFriPcs,
) uint {
	degree := fieldEnum.ChallengeFieldDegree()

	return fieldEnum.CommitmentDigestSize() + // quotient commitment
		m.NumChips()*2*degree + // per-chip openings at zeta, next
		degree + // claimed batched evaluation
		friPcs.StreamLength(fieldEnum, m.MaxLogDegree())
}
