package circuit

import (
	"math/big"

	"ShardReducerCircuit/modules/fields"

	"golang.org/x/exp/rand"
)

// Seeded random fixture builders, used by the tests and the satisfiability
// drivers. The values are arbitrary field elements; cryptographic validity
// of the proofs is not simulated here.

func RandomFieldElement(rng *rand.Rand, fieldEnum fields.ECCFieldEnum) *big.Int {
	modulus := fieldEnum.FieldModulus()

	bytes := make([]byte, len(modulus.Bytes())+8)
	rng.Read(bytes)

	return new(big.Int).Mod(new(big.Int).SetBytes(bytes), modulus)
}

func randomElements(rng *rand.Rand, fieldEnum fields.ECCFieldEnum, n uint) []*big.Int {
	out := make([]*big.Int, n)
	for i := range out {
		out[i] = RandomFieldElement(rng, fieldEnum)
	}
	return out
}

// NewRandomBaseProof builds a base-case shard proof fixture carrying the
// given 1-based shard counter in its public values.
func NewRandomBaseProof(
	rng *rand.Rand,
	fieldEnum fields.ECCFieldEnum,
	shardIndex uint64,
	numOpenings uint,
) *NativeShardProof {
	proof := &NativeShardProof{
		MainCommit:   randomElements(rng, fieldEnum, fieldEnum.CommitmentDigestSize()),
		PublicValues: randomElements(rng, fieldEnum, NUM_PUBLIC_VALUES),
		Openings:     randomElements(rng, fieldEnum, numOpenings),
	}

	proof.PublicValues[SHARD_INDEX_OFFSET] = new(big.Int).SetUint64(shardIndex)

	// digest bytes and bookkeeping words stay in small ranges
	for i := uint(0); i < PV_DIGEST_NUM_WORDS*WORD_SIZE; i++ {
		proof.PublicValues[COMMITTED_VALUES_DIGEST_OFFSET+i] =
			new(big.Int).SetUint64(uint64(rng.Intn(256)))
	}
	proof.PublicValues[EXIT_CODE_OFFSET] = big.NewInt(0)

	return proof
}

// NewRandomRecursiveProof builds a recursive-case proof fixture; its public
// values are the statement the inner reduce program committed to.
func NewRandomRecursiveProof(
	rng *rand.Rand,
	fieldEnum fields.ECCFieldEnum,
	numOpenings uint,
) *NativeShardProof {
	return &NativeShardProof{
		MainCommit:   randomElements(rng, fieldEnum, fieldEnum.CommitmentDigestSize()),
		PublicValues: randomElements(rng, fieldEnum, NUM_PUBLIC_VALUES),
		Openings:     randomElements(rng, fieldEnum, numOpenings),
	}
}

// IdentityOrdering is the trivial column ordering fixture, chip i in slot i.
func IdentityOrdering(numChips uint) []uint {
	out := make([]uint, numChips)
	for i := range out {
		out[i] = uint(i)
	}
	return out
}

// UniformDomains builds a preprocessed-domain fixture with every column
// group on the subgroup of the given log size, shift one.
func UniformDomains(numChips uint, logSize uint64) [][2]uint64 {
	out := make([][2]uint64, numChips)
	for i := range out {
		out[i] = [2]uint64{logSize, 1}
	}
	return out
}
