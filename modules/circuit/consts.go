package circuit

// Public values layout of one shard, fixed by the shard protocol. The
// committed-values digest occupies one word-sized group of byte felts at the
// front, followed by the shard bookkeeping fields. The reduce controller and
// the out-of-circuit prover must agree on these offsets element for element.
const (
	// PV_DIGEST_NUM_WORDS is the word count of the committed values digest
	PV_DIGEST_NUM_WORDS uint = 8
	// WORD_SIZE is the number of byte felts per word
	WORD_SIZE uint = 4

	// COMMITTED_VALUES_DIGEST_OFFSET is where the digest bytes start
	COMMITTED_VALUES_DIGEST_OFFSET uint = 0
	// SHARD_INDEX_OFFSET locates the 1-based shard counter
	SHARD_INDEX_OFFSET uint = PV_DIGEST_NUM_WORDS * WORD_SIZE
	// START_PC_OFFSET locates the shard entry program counter
	START_PC_OFFSET uint = SHARD_INDEX_OFFSET + 1
	// NEXT_PC_OFFSET locates the program counter handed to the next shard
	NEXT_PC_OFFSET uint = START_PC_OFFSET + 1
	// EXIT_CODE_OFFSET locates the halt code of the execution
	EXIT_CODE_OFFSET uint = NEXT_PC_OFFSET + 1

	// NUM_PUBLIC_VALUES is the full public values vector length per shard
	NUM_PUBLIC_VALUES uint = EXIT_CODE_OFFSET + 1
)
