package circuit

import (
	"ShardReducerCircuit/modules/fields"

	"github.com/consensys/gnark/frontend"
)

// OpeningStream is a read cursor over the auxiliary commitment-scheme
// opening data of one shard proof. Consumers pull elements in protocol
// order; the cursor position is bookkeeping, not circuit state.
type OpeningStream struct {
	Idx   uint
	Elems []frontend.Variable
}

func (s *OpeningStream) Next() frontend.Variable {
	e := s.Elems[s.Idx]
	s.Idx++

	return e
}

// NextExt pulls one challenge-field element, limb by limb.
func (s *OpeningStream) NextExt(degree uint) []frontend.Variable {
	ext := make([]frontend.Variable, degree)
	for i := range ext {
		ext[i] = s.Next()
	}
	return ext
}

func (s *OpeningStream) Reset() {
	s.Idx = 0
}

func (s *OpeningStream) Remaining() uint {
	return uint(len(s.Elems)) - s.Idx
}

// ShardProof is one element of the reduce batch: the main trace commitment
// digest, the shard's public values, and the opening data stream. Loaded
// once from the witness and treated read-only afterwards.
type ShardProof struct {
	MainCommit   []frontend.Variable
	PublicValues []frontend.Variable
	Openings     OpeningStream
}

// NewShardProofPlaceholder shapes an empty proof for circuit compilation.
func NewShardProofPlaceholder(
	fieldEnum fields.ECCFieldEnum, numOpenings uint) ShardProof {

	return ShardProof{
		MainCommit:   make([]frontend.Variable, fieldEnum.CommitmentDigestSize()),
		PublicValues: make([]frontend.Variable, NUM_PUBLIC_VALUES),
		Openings: OpeningStream{
			Idx:   0,
			Elems: make([]frontend.Variable, numOpenings),
		},
	}
}

// VerifyingKey is the commitment digest summarizing one machine's fixed and
// preprocessed trace columns.
type VerifyingKey struct {
	Commitment []frontend.Variable
}

func NewVerifyingKeyPlaceholder(fieldEnum fields.ECCFieldEnum) VerifyingKey {
	return VerifyingKey{
		Commitment: make([]frontend.Variable, fieldEnum.CommitmentDigestSize()),
	}
}

// WitnessDomain is a per-proof witnessed evaluation domain descriptor for a
// preprocessed trace column group.
type WitnessDomain struct {
	LogSize frontend.Variable
	Shift   frontend.Variable
}
