package bytecode

// Instruction is one bytecode instruction: an opcode plus 0, 1 or 2
// immediate operands (spec §6). Every operand slot is a Value even when it
// encodes an address or count, so the same Instruction shape serializes
// uniformly (lang/bytefile).
type Instruction struct {
	Op   Opcode
	Args [2]Value
}

// Arg0 returns the first immediate operand as an int, for address/count/
// offset operands (PUSH excepted, whose single operand is a real Value).
func (ins Instruction) Arg0() int {
	return int(ins.Args[0].AsInt32())
}

// Arg1 returns the second immediate operand as an int (INVOKE's argc,
// UPVAL/UPSTORE's offset).
func (ins Instruction) Arg1() int {
	return int(ins.Args[1].AsInt32())
}

// Program is the linear instruction vector produced by the compiler and
// consumed by the VM and by lang/bytefile.
type Program struct {
	Instructions []Instruction
}

// Emit appends an instruction with no operands and returns its address.
func (p *Program) Emit(op Opcode) int {
	return p.emit(Instruction{Op: op})
}

// Emit1 appends an instruction with one int operand (address/count/offset)
// and returns its address.
func (p *Program) Emit1(op Opcode, a int) int {
	return p.emit(Instruction{Op: op, Args: [2]Value{Int32Val(int32(a))}})
}

// Emit2 appends an instruction with two int operands and returns its
// address.
func (p *Program) Emit2(op Opcode, a, b int) int {
	return p.emit(Instruction{Op: op, Args: [2]Value{Int32Val(int32(a)), Int32Val(int32(b))}})
}

// EmitPush appends a PUSH of an arbitrary Value (used for literals, which
// may be numbers, bools or interned strings) and returns its address.
func (p *Program) EmitPush(v Value) int {
	return p.emit(Instruction{Op: PUSH, Args: [2]Value{v}})
}

func (p *Program) emit(ins Instruction) int {
	p.Instructions = append(p.Instructions, ins)
	return len(p.Instructions) - 1
}

// Here returns the address the next Emit* call will use.
func (p *Program) Here() int { return len(p.Instructions) }

// Patch rewrites the first operand of the instruction at addr, used to
// back-patch forward jumps (JMP/JMPF) and CLASS field counts once their
// true target/count is known.
func (p *Program) Patch(addr, a int) {
	p.Instructions[addr].Args[0] = Int32Val(int32(a))
}
