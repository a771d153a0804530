package circuit

import (
	"fmt"
	"math/big"
	"os"

	"ShardReducerCircuit/modules/fields"
)

// Proof files are flat sequences of big-endian field elements, FieldBytes
// wide each: the main commit digest, then the public values vector, then
// the opening stream.

// ReadShardProofFile loads one native shard proof from disk.
func ReadShardProofFile(
	path string, fieldEnum fields.ECCFieldEnum) (*NativeShardProof, error) {

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	elems, err := splitFieldElements(raw, fieldEnum)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	digestSize := fieldEnum.CommitmentDigestSize()
	if uint(len(elems)) < digestSize+NUM_PUBLIC_VALUES {
		return nil, fmt.Errorf(
			"%s: %d elements, need at least %d for commit and public values",
			path, len(elems), digestSize+NUM_PUBLIC_VALUES)
	}

	return &NativeShardProof{
		MainCommit:   elems[:digestSize],
		PublicValues: elems[digestSize : digestSize+NUM_PUBLIC_VALUES],
		Openings:     elems[digestSize+NUM_PUBLIC_VALUES:],
	}, nil
}

// ReadVerifyingKeyFile loads one commitment digest from disk.
func ReadVerifyingKeyFile(
	path string, fieldEnum fields.ECCFieldEnum) ([]*big.Int, error) {

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	elems, err := splitFieldElements(raw, fieldEnum)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if uint(len(elems)) != fieldEnum.CommitmentDigestSize() {
		return nil, fmt.Errorf("%s: %d elements, want digest of %d",
			path, len(elems), fieldEnum.CommitmentDigestSize())
	}

	return elems, nil
}

func splitFieldElements(
	raw []byte, fieldEnum fields.ECCFieldEnum) ([]*big.Int, error) {

	fieldBytes := fieldEnum.FieldBytes()
	if uint(len(raw))%fieldBytes != 0 {
		return nil, fmt.Errorf(
			"%d bytes not a multiple of the %d-byte field element size",
			len(raw), fieldBytes)
	}

	modulus := fieldEnum.FieldModulus()
	elems := make([]*big.Int, uint(len(raw))/fieldBytes)
	for i := range elems {
		elems[i] = new(big.Int).SetBytes(raw[uint(i)*fieldBytes : uint(i+1)*fieldBytes])
		if elems[i].Cmp(modulus) >= 0 {
			return nil, fmt.Errorf("element %d out of field range", i)
		}
	}

	return elems, nil
}
