package reducer

import (
	"fmt"
	"math/big"

	"ShardReducerCircuit/modules/challenger"
	"ShardReducerCircuit/modules/circuit"
	"ShardReducerCircuit/modules/fields"

	"github.com/consensys/gnark/frontend"
)

// ReducedStatement is the native form of the aggregated public statement one
// reduce invocation emits. A parent reduce consumes it as the public values
// of a recursive proof; the root consumer checks the transcript link with
// CheckStatementLink before trusting it.
type ReducedStatement struct {
	CommittedValuesDigest []*big.Int
	StartPc               *big.Int
	NextPc                *big.Int
	ExitCode              *big.Int

	PreReconstructState   []*big.Int
	ReconstructState      []*big.Int
	WitnessedState        []*big.Int
	RecursionVkCommitment []*big.Int
}

// ResetState is the transcript state every reconstruction chain starts from:
// a fresh sponge that absorbed only the base verifying key.
func ResetState(fieldEnum fields.ECCFieldEnum, baseVkCommit []*big.Int) []*big.Int {
	sponge := challenger.NewReferenceSponge(fieldEnum)
	sponge.ObserveCommitment(baseVkCommit)
	return sponge.State()
}

// BuildNativeStatement replays the reduce controller's transcript and
// statement chaining over native values. It errors on every batch the
// circuit would reject, so callers can surface bad witnesses before paying
// for proving.
func BuildNativeStatement(
	fieldEnum fields.ECCFieldEnum, w *circuit.NativeReduceWitness,
) (*ReducedStatement, error) {
	if len(w.IsRecursive) != len(w.Proofs) {
		return nil, fmt.Errorf(
			"%d recursive flags for %d proofs", len(w.IsRecursive), len(w.Proofs))
	}

	resetState := ResetState(fieldEnum, w.BaseVkCommit)

	sponge := challenger.NewReferenceSponge(fieldEnum)
	sponge.SetState(w.InitialReconstructState)

	stmt := &ReducedStatement{
		CommittedValuesDigest: nativeZeroDigest(),
		StartPc:               big.NewInt(0),
		NextPc:                big.NewInt(0),
		ExitCode:              big.NewInt(0),

		PreReconstructState:   copyNative(w.InitialReconstructState),
		WitnessedState:        copyNative(w.WitnessedState),
		RecursionVkCommitment: copyNative(w.RecursionVkCommit),
	}

	for i, proof := range w.Proofs {
		if w.IsRecursive[i] == 0 {
			if proof.ShardIndex() == 1 {
				sponge.SetState(resetState)
			}
			sponge.ObserveCommitment(proof.MainCommit)
			sponge.Observe(proof.PublicValues...)
			sponge.Flush()
		}

		if err := chainNativeStatement(stmt, proof, i == 0, i == len(w.Proofs)-1); err != nil {
			return nil, fmt.Errorf("proof %d: %w", i, err)
		}
	}

	stmt.ReconstructState = sponge.State()
	return stmt, nil
}

func chainNativeStatement(
	stmt *ReducedStatement, proof *circuit.NativeShardProof, first, last bool,
) error {
	digest := proof.PublicValues[circuit.COMMITTED_VALUES_DIGEST_OFFSET : circuit.COMMITTED_VALUES_DIGEST_OFFSET+
		circuit.PV_DIGEST_NUM_WORDS*circuit.WORD_SIZE]
	startPc := proof.PublicValues[circuit.START_PC_OFFSET]
	nextPc := proof.PublicValues[circuit.NEXT_PC_OFFSET]
	exitCode := proof.PublicValues[circuit.EXIT_CODE_OFFSET]

	if first {
		stmt.StartPc = new(big.Int).Set(startPc)
	} else if startPc.Cmp(stmt.NextPc) != 0 {
		return fmt.Errorf(
			"start pc %s not chaining from %s", startPc, stmt.NextPc)
	}
	stmt.NextPc = new(big.Int).Set(nextPc)

	if !last && exitCode.Sign() != 0 {
		return fmt.Errorf("nonzero exit code %s before the last proof", exitCode)
	}
	stmt.ExitCode = new(big.Int).Set(exitCode)

	if !nativeDigestIsZero(stmt.CommittedValuesDigest) {
		for j, word := range digest {
			if word.Cmp(stmt.CommittedValuesDigest[j]) != 0 {
				return fmt.Errorf("committed values digest diverging at word %d", j)
			}
		}
	}
	stmt.CommittedValuesDigest = copyNative(digest)

	return nil
}

// SeedTranscriptStates fills in the two witness transcript states for a
// self-contained batch: the reconstruction starts at the post-key reset
// state and the witnessed state is whatever the batch itself reconstructs.
// Mid-chain reduce nodes receive both states from their parent instead.
func SeedTranscriptStates(
	fieldEnum fields.ECCFieldEnum, w *circuit.NativeReduceWitness,
) error {
	w.InitialReconstructState = ResetState(fieldEnum, w.BaseVkCommit)
	w.WitnessedState = make([]*big.Int, fieldEnum.SpongeStateWidth())
	for i := range w.WitnessedState {
		w.WitnessedState[i] = big.NewInt(0)
	}

	stmt, err := BuildNativeStatement(fieldEnum, w)
	if err != nil {
		return err
	}

	w.WitnessedState = linkedWitnessedState(fieldEnum, stmt)
	return nil
}

// linkedWitnessedState is the transcript state the witnessed chain must
// land on: the reconstruction with the committed values digest absorbed on
// top.
func linkedWitnessedState(
	fieldEnum fields.ECCFieldEnum, stmt *ReducedStatement,
) []*big.Int {
	sponge := challenger.NewReferenceSponge(fieldEnum)
	sponge.SetState(stmt.ReconstructState)
	sponge.Observe(stmt.CommittedValuesDigest...)
	return sponge.State()
}

// CheckStatementLink is the root-level acceptance check on a reduced
// statement: the reconstruction must have started from the post-key reset
// state, and the witnessed transcript must equal the reconstruction after
// the committed values digest is absorbed on top. A statement failing this
// check aggregates a partial or inconsistent chain and proves nothing about
// the full execution.
func CheckStatementLink(
	fieldEnum fields.ECCFieldEnum,
	stmt *ReducedStatement,
	baseVkCommit []*big.Int,
) error {
	resetState := ResetState(fieldEnum, baseVkCommit)
	for i := range resetState {
		if stmt.PreReconstructState[i].Cmp(resetState[i]) != 0 {
			return fmt.Errorf(
				"reconstruction resuming mid-chain, state word %d differing from the reset state", i)
		}
	}

	linked := linkedWitnessedState(fieldEnum, stmt)
	for i := range stmt.WitnessedState {
		if linked[i].Cmp(stmt.WitnessedState[i]) != 0 {
			return fmt.Errorf(
				"witnessed transcript diverging from the digest-linked reconstruction at state word %d", i)
		}
	}

	return nil
}

// AssignCircuit lifts a native witness and its statement into the full
// assignment form frontend.NewWitness consumes.
func AssignCircuit(
	shape circuit.WitnessShape,
	w *circuit.NativeReduceWitness,
	stmt *ReducedStatement,
) (ReduceCircuit, error) {
	witness, err := w.Assign(shape)
	if err != nil {
		return ReduceCircuit{}, err
	}

	assignment := NewReduceCircuit(shape)
	assignment.Witness = witness

	copy(assignment.CommittedValuesDigest, nativeVars(stmt.CommittedValuesDigest))
	assignment.StartPc = stmt.StartPc
	assignment.NextPc = stmt.NextPc
	assignment.ExitCode = stmt.ExitCode

	copy(assignment.PreReconstructState, nativeVars(stmt.PreReconstructState))
	copy(assignment.ReconstructState, nativeVars(stmt.ReconstructState))
	copy(assignment.WitnessedState, nativeVars(stmt.WitnessedState))
	copy(assignment.RecursionVkCommitment, nativeVars(stmt.RecursionVkCommitment))

	return assignment, nil
}

func nativeZeroDigest() []*big.Int {
	digest := make([]*big.Int, circuit.PV_DIGEST_NUM_WORDS*circuit.WORD_SIZE)
	for i := range digest {
		digest[i] = big.NewInt(0)
	}
	return digest
}

func nativeDigestIsZero(digest []*big.Int) bool {
	for _, word := range digest {
		if word.Sign() != 0 {
			return false
		}
	}
	return true
}

func copyNative(vs []*big.Int) []*big.Int {
	out := make([]*big.Int, len(vs))
	for i, v := range vs {
		out[i] = new(big.Int).Set(v)
	}
	return out
}

func nativeVars(vs []*big.Int) []frontend.Variable {
	out := make([]frontend.Variable, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}
