// Package vm implements the threaded-dispatch virtual machine of spec §4.5:
// a single contiguous value stack addressed by fp/sp, a switch-based
// instruction loop, and a mark-and-sweep collector over the heap objects
// defined in lang/bytecode. Grounded on the teacher's lang/machine.run
// instruction loop (fetch opcode, advance pc, switch on it, repeat), with
// the teacher's per-call Go-slice call frame replaced by a single shared
// stack with fp-relative addressing, because UPVAL/UPSTORE need to walk a
// chain of live frame pointers rather than Go closures over slices.
package vm

import (
	"fmt"

	"github.com/caarlos0/env/v6"

	"github.com/mna/vela/lang/bytecode"
	vrt "github.com/mna/vela/lang/runtime"
)

// Config holds the VM's tunables, overridable via VELA_* environment
// variables (the teacher's go.mod already carries caarlos0/env/v6 as a
// transitive dependency of mna/mainer; the VM is where this repo exercises
// it directly).
type Config struct {
	// StackSize is the fixed operand/frame stack capacity in Value slots.
	StackSize int `env:"VELA_STACK_SIZE" envDefault:"4096"`
	// InitialGCThreshold is the live object count that triggers the VM's
	// first collection (spec §4.5: "initial 8, doubled after each sweep").
	InitialGCThreshold int `env:"VELA_GC_THRESHOLD" envDefault:"8"`
	// DisableGC turns off collection entirely, for debugging a suspected GC
	// bug in isolation.
	DisableGC bool `env:"VELA_GC_DISABLE" envDefault:"false"`
}

// LoadConfig reads Config from the environment, falling back to its
// envDefault tags when a variable is unset.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("vm: reading configuration: %w", err)
	}
	return cfg, nil
}

// Exception is the error type returned by Run for a §7 RuntimeError: a
// stack overflow or an unrecoverable GC/interpreter invariant violation.
// Its Error method renders the exact two-line form §7 specifies.
type Exception struct {
	Msg string
	PC  int
	SP  int
	FP  int
}

func (e *Exception) Error() string {
	return fmt.Sprintf("=> Exception thrown: %s\nat: PC(%d), SP(%d), FP(%d)", e.Msg, e.PC, e.SP, e.FP)
}

// VM executes one compiled Program to completion. It is not safe for
// concurrent use and owns its stack and heap exclusively (spec §5).
type VM struct {
	cfg Config
	prog *bytecode.Program

	stack []bytecode.Value
	sp    int
	fp    int
	pc    int

	heap      *bytecode.Obj // freelist head
	liveCount int
	gcThresh  int

	stdout func(string)
}

// New creates a VM ready to Run prog.
func New(prog *bytecode.Program, cfg Config) *VM {
	if cfg.StackSize <= 0 {
		cfg.StackSize = 4096
	}
	if cfg.InitialGCThreshold <= 0 {
		cfg.InitialGCThreshold = 8
	}
	return &VM{
		cfg:      cfg,
		prog:     prog,
		stack:    make([]bytecode.Value, cfg.StackSize),
		gcThresh: cfg.InitialGCThreshold,
	}
}

func (m *VM) push(v bytecode.Value) error {
	if m.sp >= len(m.stack) {
		return &Exception{Msg: "stack overflow", PC: m.pc, SP: m.sp, FP: m.fp}
	}
	m.stack[m.sp] = v
	m.sp++
	return nil
}

func (m *VM) pop() bytecode.Value {
	m.sp--
	return m.stack[m.sp]
}

func (m *VM) top() bytecode.Value { return m.stack[m.sp-1] }

// Run executes the program from instruction 0 until HLT, returning a
// *Exception for a runtime failure (§7). A successful run always leaves
// sp where it started (§8 property 1); Run itself started at sp==0, so a
// well-formed program's Run returns with sp==0 too.
func (m *VM) Run() error {
	insns := m.prog.Instructions
	for {
		if m.pc < 0 || m.pc >= len(insns) {
			return &Exception{Msg: fmt.Sprintf("program counter out of range: %d", m.pc), PC: m.pc, SP: m.sp, FP: m.fp}
		}
		ins := insns[m.pc]
		m.pc++

		switch ins.Op {
		case bytecode.HLT:
			return nil

		case bytecode.PUSH:
			if err := m.push(ins.Args[0]); err != nil {
				return m.abort(err)
			}

		case bytecode.POP:
			m.pop()

		case bytecode.STORE:
			m.stack[m.fp+ins.Arg0()] = m.pop()
		case bytecode.LOAD:
			if err := m.push(m.stack[m.fp+ins.Arg0()]); err != nil {
				return m.abort(err)
			}
		case bytecode.GSTORE:
			m.stack[ins.Arg0()] = m.pop()
		case bytecode.GLOAD:
			if err := m.push(m.stack[ins.Arg0()]); err != nil {
				return m.abort(err)
			}

		case bytecode.LDARG0:
			if err := m.push(m.stack[m.arg0Addr()]); err != nil {
				return m.abort(err)
			}
		case bytecode.SETARG0:
			m.stack[m.arg0Addr()] = m.pop()

		case bytecode.IADD, bytecode.ISUB, bytecode.IMUL, bytecode.IDIV, bytecode.MOD,
			bytecode.BITL, bytecode.BITR, bytecode.BITAND, bytecode.BITOR, bytecode.BITXOR:
			if err := m.intBinOp(ins.Op); err != nil {
				return m.abort(err)
			}
		case bytecode.BITNOT:
			a := m.pop()
			if err := m.push(bytecode.Int32Val(^a.AsInt32())); err != nil {
				return m.abort(err)
			}
		case bytecode.IMINUS:
			a := m.pop()
			if err := m.push(bytecode.Int32Val(-a.AsInt32())); err != nil {
				return m.abort(err)
			}
		case bytecode.I2F:
			a := m.pop()
			if err := m.push(bytecode.NumVal(float64(a.AsInt32()))); err != nil {
				return m.abort(err)
			}

		case bytecode.FADD, bytecode.FSUB, bytecode.FMUL, bytecode.FDIV:
			if err := m.floatBinOp(ins.Op); err != nil {
				return m.abort(err)
			}
		case bytecode.FMINUS:
			a := m.pop()
			if err := m.push(bytecode.NumVal(-a.AsNum())); err != nil {
				return m.abort(err)
			}
		case bytecode.F2I:
			a := m.pop()
			if err := m.push(bytecode.Int32Val(int32(a.AsNum()))); err != nil {
				return m.abort(err)
			}

		case bytecode.NOT:
			a := m.pop()
			if err := m.push(bytecode.BoolVal(!a.AsBool())); err != nil {
				return m.abort(err)
			}
		case bytecode.B2I:
			a := m.pop()
			i := int32(0)
			if a.AsBool() {
				i = 1
			}
			if err := m.push(bytecode.Int32Val(i)); err != nil {
				return m.abort(err)
			}

		case bytecode.SYSCALL:
			if err := m.syscall(ins.Arg0()); err != nil {
				return m.abort(err)
			}
		case bytecode.INVOKE:
			if err := m.invoke(ins.Arg0(), ins.Arg1()); err != nil {
				return m.abort(err)
			}
		case bytecode.RESERVE:
			n := ins.Arg0()
			if m.sp+n > len(m.stack) {
				return m.abort(&Exception{Msg: "stack overflow", PC: m.pc, SP: m.sp, FP: m.fp})
			}
			for i := 0; i < n; i++ {
				m.stack[m.sp+i] = bytecode.UndefinedVal
			}
			m.sp += n

		case bytecode.RET:
			m.ret(false)
		case bytecode.RETVIRTUAL:
			m.ret(true)

		case bytecode.JMP:
			m.pc = ins.Arg0()
		case bytecode.JMPF:
			cond := m.pop()
			if !cond.Truthy() {
				m.pc = ins.Arg0()
			}

		case bytecode.ARR:
			n := ins.Arg0()
			elems := make([]bytecode.Value, n)
			copy(elems, m.stack[m.sp-n:m.sp])
			m.sp -= n
			obj := m.allocArray(elems)
			if err := m.push(bytecode.ObjVal(obj)); err != nil {
				return m.abort(err)
			}
		case bytecode.STR:
			n := ins.Arg0()
			var b []byte
			for i := 0; i < n; i++ {
				b = append(b, byte(m.stack[m.sp-n+i].AsInt32()))
			}
			m.sp -= n
			obj := m.allocString(string(b))
			if err := m.push(bytecode.ObjVal(obj)); err != nil {
				return m.abort(err)
			}
		case bytecode.LDLIB:
			// reserved; unused by the core VM (spec §6).

		case bytecode.TOSTR:
			a := m.pop()
			obj := m.allocString(bytecode.Display(a))
			if err := m.push(bytecode.ObjVal(obj)); err != nil {
				return m.abort(err)
			}

		case bytecode.BEQ, bytecode.IEQ, bytecode.FEQ, bytecode.BNE, bytecode.INE, bytecode.FNE:
			b, a := m.pop(), m.pop()
			eq := a.Equal(b)
			if ins.Op == bytecode.BNE || ins.Op == bytecode.INE || ins.Op == bytecode.FNE {
				eq = !eq
			}
			if err := m.push(bytecode.BoolVal(eq)); err != nil {
				return m.abort(err)
			}
		case bytecode.ILT, bytecode.IGT, bytecode.ILE, bytecode.IGE:
			b, a := m.pop(), m.pop()
			if err := m.push(bytecode.BoolVal(intCompare(ins.Op, a.AsInt32(), b.AsInt32()))); err != nil {
				return m.abort(err)
			}
		case bytecode.FLT, bytecode.FGT, bytecode.FLE, bytecode.FGE:
			b, a := m.pop(), m.pop()
			if err := m.push(bytecode.BoolVal(floatCompare(ins.Op, a.AsNum(), b.AsNum()))); err != nil {
				return m.abort(err)
			}
		case bytecode.BAND:
			b, a := m.pop(), m.pop()
			if err := m.push(bytecode.BoolVal(a.AsBool() && b.AsBool())); err != nil {
				return m.abort(err)
			}
		case bytecode.BOR:
			b, a := m.pop(), m.pop()
			if err := m.push(bytecode.BoolVal(a.AsBool() || b.AsBool())); err != nil {
				return m.abort(err)
			}

		case bytecode.GETSUB:
			k, arr := m.pop(), m.pop()
			o := arr.AsObj()
			i := int(k.AsInt32())
			if i < 0 || i >= o.Len() {
				return m.abort(&Exception{Msg: fmt.Sprintf("index %d out of range (len %d)", i, o.Len()), PC: m.pc, SP: m.sp, FP: m.fp})
			}
			var v bytecode.Value
			if o.Kind == bytecode.ObjString {
				v = bytecode.Int32Val(int32(o.Bytes()[i]))
			} else {
				v = o.Elems()[i]
			}
			if err := m.push(v); err != nil {
				return m.abort(err)
			}
		case bytecode.SETSUB:
			v, k, arr := m.pop(), m.pop(), m.pop()
			o := arr.AsObj()
			i := int(k.AsInt32())
			if i < 0 || i >= o.Len() {
				return m.abort(&Exception{Msg: fmt.Sprintf("index %d out of range (len %d)", i, o.Len()), PC: m.pc, SP: m.sp, FP: m.fp})
			}
			if o.Kind == bytecode.ObjString {
				b := o.Bytes()
				b[i] = byte(v.AsInt32())
			} else {
				o.Elems()[i] = v
			}
		case bytecode.LEN:
			arr := m.pop()
			if err := m.push(bytecode.Int32Val(int32(arr.AsObj().Len()))); err != nil {
				return m.abort(err)
			}
		case bytecode.APPEND:
			elem, arr := m.pop(), m.pop()
			o := arr.AsObj()
			if o.Kind == bytecode.ObjString {
				o.SetBytes(append(o.Bytes(), []byte(elemText(elem))...))
			} else {
				o.SetElems(append(o.Elems(), elem))
			}
		case bytecode.CONS:
			elem, arr := m.pop(), m.pop()
			o := arr.AsObj()
			if o.Kind == bytecode.ObjString {
				o.SetBytes(append(o.Bytes(), []byte(elemText(elem))...))
			} else {
				o.SetElems(append(o.Elems(), elem))
			}
			if err := m.push(arr); err != nil {
				return m.abort(err)
			}

		case bytecode.UPVAL:
			fp := m.ascend(ins.Arg0())
			if err := m.push(m.stack[fp+ins.Arg1()]); err != nil {
				return m.abort(err)
			}
		case bytecode.UPSTORE:
			fp := m.ascend(ins.Arg0())
			m.stack[fp+ins.Arg1()] = m.pop()

		case bytecode.CLASS:
			if err := m.class(ins.Arg0()); err != nil {
				return m.abort(err)
			}
		case bytecode.SETFIELD:
			v, self := m.pop(), m.top()
			self.AsObj().Elems()[ins.Arg0()] = v
		case bytecode.GETFIELD:
			self := m.pop()
			if err := m.push(self.AsObj().Elems()[ins.Arg0()]); err != nil {
				return m.abort(err)
			}

		default:
			return m.abort(&Exception{Msg: fmt.Sprintf("unimplemented opcode %s", ins.Op), PC: m.pc, SP: m.sp, FP: m.fp})
		}
	}
}

// abort implements §7's runtime-error protocol: set pc to the last
// instruction so the caller's loop (already returned) sees a clean halt,
// clear the stack, and run a final GC before surfacing the error.
func (m *VM) abort(err error) error {
	m.pc = len(m.prog.Instructions) - 1
	m.sp = 0
	m.collect()
	return err
}

func elemText(v bytecode.Value) string {
	if v.IsObj() && v.AsObj().Kind == bytecode.ObjString {
		return v.AsObj().Str()
	}
	return bytecode.Display(v)
}

func intCompare(op bytecode.Opcode, a, b int32) bool {
	switch op {
	case bytecode.ILT:
		return a < b
	case bytecode.IGT:
		return a > b
	case bytecode.ILE:
		return a <= b
	default: // IGE
		return a >= b
	}
}

func floatCompare(op bytecode.Opcode, a, b float64) bool {
	switch op {
	case bytecode.FLT:
		return a < b
	case bytecode.FGT:
		return a > b
	case bytecode.FLE:
		return a <= b
	default: // FGE
		return a >= b
	}
}

// intBinOp implements the integer arithmetic/bitwise opcodes. Per §4.5
// "Arithmetic": the right operand is popped first, then the left.
func (m *VM) intBinOp(op bytecode.Opcode) error {
	b, a := m.pop(), m.pop()
	x, y := a.AsInt32(), b.AsInt32()
	var r int32
	switch op {
	case bytecode.IADD:
		r = x + y
	case bytecode.ISUB:
		r = x - y
	case bytecode.IMUL:
		r = x * y
	case bytecode.IDIV:
		if y == 0 {
			return &Exception{Msg: "integer division by zero", PC: m.pc, SP: m.sp, FP: m.fp}
		}
		r = x / y
	case bytecode.MOD:
		if y == 0 {
			return &Exception{Msg: "integer division by zero", PC: m.pc, SP: m.sp, FP: m.fp}
		}
		r = x % y
	case bytecode.BITL:
		r = x << uint32(y)
	case bytecode.BITR:
		r = x >> uint32(y)
	case bytecode.BITAND:
		r = x & y
	case bytecode.BITOR:
		r = x | y
	case bytecode.BITXOR:
		r = x ^ y
	}
	return m.push(bytecode.Int32Val(r))
}

func (m *VM) floatBinOp(op bytecode.Opcode) error {
	b, a := m.pop(), m.pop()
	x, y := a.AsNum(), b.AsNum()
	var r float64
	switch op {
	case bytecode.FADD:
		r = x + y
	case bytecode.FSUB:
		r = x - y
	case bytecode.FMUL:
		r = x * y
	case bytecode.FDIV:
		r = x / y
	}
	return m.push(bytecode.NumVal(r))
}

// arg0Addr returns the stack address of parameter 0 — self, for any
// function invoked with a receiver — per §4.5's "parameter i lives at
// stack[fp-(argc+3)+i]" with i=0: self is always the first value the
// caller pushed, the one furthest from fp, not the one adjacent to the
// saved-argc slot.
func (m *VM) arg0Addr() int {
	argc := int(m.stack[m.fp-3].AsInt32())
	return m.fp - argc - 3
}

// ascend walks depth saved frame-pointer links, per §4.5's closure access
// rule: "ascend depth saved frame-pointer links (read stack[fp-2]
// repeatedly)".
func (m *VM) ascend(depth int) int {
	fp := m.fp
	for i := 0; i < depth; i++ {
		fp = int(m.stack[fp-2].AsInt32())
	}
	return fp
}

// invoke implements INVOKE addr argc (§4.5's calling convention): the
// caller has already pushed arg0..argN; invoke pushes argc, old_fp,
// return_pc and transfers control, with fp set to the new frame's base.
func (m *VM) invoke(addr, argc int) error {
	if err := m.push(bytecode.Int32Val(int32(argc))); err != nil {
		return err
	}
	if err := m.push(bytecode.Int32Val(int32(m.fp))); err != nil {
		return err
	}
	if err := m.push(bytecode.Int32Val(int32(m.pc))); err != nil {
		return err
	}
	m.fp = m.sp
	m.pc = addr
	return nil
}

// ret implements RET (virtual=false) and RETVIRTUAL (virtual=true) exactly
// per §4.5: RETVIRTUAL additionally re-pushes the receiver alongside ret
// (self on top), so the caller's SETARG0 can rebind its receiver from the
// literal top of stack. self counts as part of argc (the receiver is
// parameter 0), so once argc is subtracted out sp already sits on self's
// slot; it's peeked, not popped again.
func (m *VM) ret(virtual bool) {
	ret := m.pop()
	m.sp = m.fp
	savedPC := m.pop()
	savedFP := m.pop()
	argc := m.pop()
	m.sp -= int(argc.AsInt32())
	if virtual {
		self := m.stack[m.sp]
		m.push(ret)
		m.push(self)
	} else {
		m.push(ret)
	}
	m.pc = int(savedPC.AsInt32())
	m.fp = int(savedFP.AsInt32())
}

// syscall implements SYSCALL idx: pop the callee's arguments (its arity is
// whatever the registered intrinsic expects; the compiler already checked
// this statically), dispatch to the host Go function, push its result.
func (m *VM) syscall(idx int) error {
	if idx < 0 || idx >= len(vrt.AllIntrinsics) {
		return &Exception{Msg: fmt.Sprintf("unknown syscall index %d", idx), PC: m.pc, SP: m.sp, FP: m.fp}
	}
	in := vrt.AllIntrinsics[idx]
	args := make([]bytecode.Value, in.Arity)
	copy(args, m.stack[m.sp-in.Arity:m.sp])
	m.sp -= in.Arity
	ret, err := in.Fn(args)
	if err != nil {
		return &Exception{Msg: err.Error(), PC: m.pc, SP: m.sp, FP: m.fp}
	}
	return m.push(ret)
}

// class implements CLASS nfields (§4.5): it reads argc off the frame just
// below the pending call (the same slot LDARG0/SETARG0 address), allocates
// the instance, overwrites the caller's placeholder self with it, and also
// pushes it once as the value the constructor body's closing RETVIRTUAL
// later treats as "ret" (ret == self for a constructor specifically).
func (m *VM) class(nfields int) error {
	selfAddr := m.arg0Addr()
	obj := m.allocClass(nfields)
	self := bytecode.ObjVal(obj)
	m.stack[selfAddr] = self
	return m.push(self)
}
