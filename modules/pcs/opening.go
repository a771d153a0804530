package pcs

import (
	"ShardReducerCircuit/modules/challenger"
	"ShardReducerCircuit/modules/circuit"
	"ShardReducerCircuit/modules/fields"

	"github.com/consensys/gnark/frontend"
)

// OpeningChallenges is the Fiat-Shamir challenge set one opening argument
// consumes, in derivation order.
type OpeningChallenges struct {
	// one folding challenge per FRI commit phase round
	Betas [][]frontend.Variable
	// the claimed final polynomial, constant after full folding
	FinalPoly []frontend.Variable
	// one index per query, as bits of the evaluation-domain position
	QueryIndexBits [][]frontend.Variable
}

// TwoAdicFriPcs is the commitment scheme boundary object handed to the shard
// verifier. It owns the challenge-derivation discipline of the opening
// argument; the low-degree checks behind those challenges live behind this
// boundary and consume the challenge set opaquely.
type TwoAdicFriPcs struct {
	Config *FriConfigTable
}

// SampleOpeningChallenges mutates the supplied transcript exactly the way
// the out-of-circuit opening prover did: per folding round one commit-phase
// commitment observed and one beta squeezed, then the final polynomial, the
// grinding witness, and finally the query indices. Any reordering here
// silently breaks every verification downstream, so the body is a straight
// transcription of the protocol order. The grinding check is gated on the
// caller's branch activity bit; sampling itself always runs so the
// transcript shape stays static.
func (p *TwoAdicFriPcs) SampleOpeningChallenges(
	engine fields.ArithmeticEngine,
	active frontend.Variable,
	transcript *challenger.DuplexChallenger,
	maxLogDegree uint,
	openings *circuit.OpeningStream,
) OpeningChallenges {
	cfg := p.Config
	degree := engine.ChallengeFieldDegree()
	digestSize := engine.CommitmentDigestSize()

	var out OpeningChallenges

	// one folding round per halving down to the blowup floor
	out.Betas = make([][]frontend.Variable, maxLogDegree)
	for i := range out.Betas {
		commitPhaseCommit := make([]frontend.Variable, digestSize)
		for j := range commitPhaseCommit {
			commitPhaseCommit[j] = openings.Next()
		}
		transcript.ObserveCommitment(commitPhaseCommit)
		out.Betas[i] = transcript.SampleExt()
	}

	out.FinalPoly = openings.NextExt(degree)
	transcript.Observe(out.FinalPoly...)

	// proof of work: the grinding witness is absorbed, and the next
	// squeeze must have its low grinding bits clear
	powWitness := openings.Next()
	transcript.Observe(powWitness)
	powBits := transcript.SampleBits(int(cfg.ProofOfWorkBits) + 1)
	for i := 0; i < int(cfg.ProofOfWorkBits); i++ {
		engine.AssertIsEqualWhen(active, powBits[i], 0)
	}

	logDomainSize := maxLogDegree + cfg.LogBlowup
	out.QueryIndexBits = make([][]frontend.Variable, cfg.NumQueries)
	for i := range out.QueryIndexBits {
		out.QueryIndexBits[i] = transcript.SampleBits(int(logDomainSize))
	}

	return out
}

// StreamLength is the number of opening stream elements one
// SampleOpeningChallenges pass consumes, used to size proof placeholders.
func (p *TwoAdicFriPcs) StreamLength(
	fieldEnum fields.ECCFieldEnum, maxLogDegree uint) uint {

	return maxLogDegree*fieldEnum.CommitmentDigestSize() +
		fieldEnum.ChallengeFieldDegree() + 1
}

// NextPoint advances an opening point by one row of the order-2^logSize
// evaluation domain, i.e. multiplies it by the domain generator.
func (p *TwoAdicFriPcs) NextPoint(
	engine fields.ArithmeticEngine,
	point []frontend.Variable,
	logSize uint,
) []frontend.Variable {
	generator := p.Config.GeneratorFor(logSize)
	return engine.ExtensionMul(point, engine.ToExtension(generator))
}
