package proc

// Trapframe holds the user register snapshot saved on entry to the kernel.
// System call number is passed in A7, arguments in A0..A5, and the result
// is returned in A0.
type Trapframe struct {
	Epc uint64
	Sp  uint64
	Ra  uint64
	A0  int64
	A1  int64
	A2  int64
	A3  int64
	A4  int64
	A5  int64
	A6  int64
	A7  int64
}

// Arg returns n-th system call argument
func (t *Trapframe) Arg(n int) int64 {
	switch n {
	case 0:
		return t.A0
	case 1:
		return t.A1
	case 2:
		return t.A2
	case 3:
		return t.A3
	case 4:
		return t.A4
	case 5:
		return t.A5
	}
	return 0
}
