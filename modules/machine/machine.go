package machine

// Chip is one trace component of a machine: a named column group with a
// bounded trace height.
type Chip struct {
	Name      string
	LogDegree uint
	// Preprocessed marks chips carrying fixed columns committed in the
	// verifying key.
	Preprocessed bool
}

// Machine describes one constraint system the reduce program verifies
// proofs against. Machines are built once at startup from static
// configuration and passed explicitly wherever needed; nothing reads them
// from ambient state.
type Machine struct {
	Name  string
	Chips []Chip
}

func (m *Machine) NumChips() uint {
	return uint(len(m.Chips))
}

func (m *Machine) NumPreprocessedChips() uint {
	var n uint
	for _, chip := range m.Chips {
		if chip.Preprocessed {
			n++
		}
	}
	return n
}

// MaxLogDegree bounds the evaluation domain any chip of the machine can use.
func (m *Machine) MaxLogDegree() uint {
	var maxLog uint
	for _, chip := range m.Chips {
		maxLog = max(maxLog, chip.LogDegree)
	}
	return maxLog
}

// BaseMachine is the RISC-V execution machine whose shard proofs form the
// base case of the reduction.
func BaseMachine() *Machine {
	return &Machine{
		Name: "base",
		Chips: []Chip{
			{Name: "program", LogDegree: 19, Preprocessed: true},
			{Name: "byte", LogDegree: 16, Preprocessed: true},
			{Name: "cpu", LogDegree: 20},
			{Name: "add", LogDegree: 19},
			{Name: "sub", LogDegree: 19},
			{Name: "mul", LogDegree: 18},
			{Name: "divrem", LogDegree: 17},
			{Name: "bitwise", LogDegree: 18},
			{Name: "shift_left", LogDegree: 17},
			{Name: "shift_right", LogDegree: 17},
			{Name: "lt", LogDegree: 18},
			{Name: "memory_init", LogDegree: 18},
			{Name: "memory_finalize", LogDegree: 18},
		},
	}
}

// RecursionMachine is the machine the reduce program itself runs on; proofs
// of previous reduce invocations are verified against it.
func RecursionMachine() *Machine {
	return &Machine{
		Name: "recursion",
		Chips: []Chip{
			{Name: "program", LogDegree: 18, Preprocessed: true},
			{Name: "cpu", LogDegree: 20},
			{Name: "memory", LogDegree: 19},
			{Name: "poseidon2", LogDegree: 18},
			{Name: "fri_fold", LogDegree: 18},
			{Name: "range_check", LogDegree: 16},
		},
	}
}
