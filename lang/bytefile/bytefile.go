// Package bytefile implements the on-disk bytecode format (spec §6): a
// flat, fixed-layout encoding of a bytecode.Program that the compile mode
// writes and the runcompiled mode reads back byte-for-byte.
package bytefile

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/mna/vela/lang/bytecode"
)

// Magic is the u32 little-endian file signature that opens every bytecode
// file.
const Magic uint32 = 0x00ACCE55

// on-disk Value tags (§6): tag 3 is the only variable-length case.
const (
	tagNum  = 1
	tagBool = 2
	tagStr  = 3
)

// Encode serializes p into the §6 file format: u32 magic, u32
// num_instructions, then per instruction a u8 opcode, a u8 arg_count and
// arg_count encoded Values.
func Encode(p *bytecode.Program) []byte {
	var buf bytes.Buffer
	var u32 [4]byte

	binary.LittleEndian.PutUint32(u32[:], Magic)
	buf.Write(u32[:])
	binary.LittleEndian.PutUint32(u32[:], uint32(len(p.Instructions)))
	buf.Write(u32[:])

	for _, ins := range p.Instructions {
		argc := ins.Op.ArgCount()
		buf.WriteByte(byte(ins.Op))
		buf.WriteByte(byte(argc))
		for i := 0; i < argc; i++ {
			encodeValue(&buf, ins.Args[i])
		}
	}
	return buf.Bytes()
}

// encodeValue writes one operand Value in its §6 wire form. PUSH is the
// only opcode whose operand may be a genuine boolean or string Value;
// every other opcode's operand is an address/count/offset carried as an
// Int32Val, which encodes as tagNum like any other non-heap number.
func encodeValue(buf *bytes.Buffer, v bytecode.Value) {
	var u32 [4]byte
	switch {
	case v.IsBool():
		buf.WriteByte(tagBool)
		writeBits(buf, v.Bits())
	case v.IsObj() && v.AsObj().Kind == bytecode.ObjString:
		buf.WriteByte(tagStr)
		s := v.AsObj().Bytes()
		binary.LittleEndian.PutUint32(u32[:], uint32(len(s)))
		buf.Write(u32[:])
		buf.Write(s)
	default:
		// int32, float or any other singleton: the 8-byte payload is
		// self-describing via its own internal tag bits.
		buf.WriteByte(tagNum)
		writeBits(buf, v.Bits())
	}
}

func writeBits(buf *bytes.Buffer, bits uint64) {
	var u64 [8]byte
	binary.LittleEndian.PutUint64(u64[:], bits)
	buf.Write(u64[:])
}

// Decode parses the §6 file format written by Encode.
func Decode(b []byte) (*bytecode.Program, error) {
	if len(b) < 8 {
		return nil, fmt.Errorf("bytefile: truncated header: want at least 8 bytes, got %d", len(b))
	}
	magic := binary.LittleEndian.Uint32(b[0:4])
	if magic != Magic {
		return nil, fmt.Errorf("bytefile: bad magic: want %#08x, got %#08x", Magic, magic)
	}
	numInsns := binary.LittleEndian.Uint32(b[4:8])
	off := 8

	p := &bytecode.Program{Instructions: make([]bytecode.Instruction, 0, numInsns)}
	for i := uint32(0); i < numInsns; i++ {
		if off+2 > len(b) {
			return nil, fmt.Errorf("bytefile: truncated instruction %d: missing opcode/arg_count", i)
		}
		op := bytecode.Opcode(b[off])
		argc := int(b[off+1])
		off += 2
		if argc != op.ArgCount() {
			return nil, fmt.Errorf("bytefile: instruction %d (%s): arg_count %d does not match opcode's expected %d", i, op, argc, op.ArgCount())
		}

		var ins bytecode.Instruction
		ins.Op = op
		for a := 0; a < argc; a++ {
			v, n, err := decodeValue(b[off:])
			if err != nil {
				return nil, fmt.Errorf("bytefile: instruction %d (%s) operand %d: %w", i, op, a, err)
			}
			ins.Args[a] = v
			off += n
		}
		p.Instructions = append(p.Instructions, ins)
	}
	return p, nil
}

// decodeValue parses one operand from b, returning the Value and the
// number of bytes consumed.
func decodeValue(b []byte) (bytecode.Value, int, error) {
	if len(b) < 1 {
		return bytecode.Value{}, 0, fmt.Errorf("truncated: missing tag byte")
	}
	tag := b[0]
	switch tag {
	case tagNum, tagBool:
		if len(b) < 9 {
			return bytecode.Value{}, 0, fmt.Errorf("truncated: want 8 bytes after tag, got %d", len(b)-1)
		}
		bits := binary.LittleEndian.Uint64(b[1:9])
		return bytecode.FromBits(bits), 9, nil
	case tagStr:
		if len(b) < 5 {
			return bytecode.Value{}, 0, fmt.Errorf("truncated: missing string length")
		}
		n := binary.LittleEndian.Uint32(b[1:5])
		if uint32(len(b)-5) < n {
			return bytecode.Value{}, 0, fmt.Errorf("truncated: want %d string bytes, got %d", n, len(b)-5)
		}
		s := make([]byte, n)
		copy(s, b[5:5+n])
		return bytecode.ObjVal(bytecode.NewString(string(s))), 5 + int(n), nil
	default:
		return bytecode.Value{}, 0, fmt.Errorf("invalid value tag: %d", tag)
	}
}
