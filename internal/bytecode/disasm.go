package bytecode

import (
	"fmt"
	"io"
	"strings"
)

// Disassembler writes a human-readable listing of a Chunk, recursing
// into every nested Function so a `disasm` run shows the whole program
// (the root chunk plus each compiled function) in one pass.
type Disassembler struct {
	writer io.Writer
	chunk  *Chunk
}

// NewDisassembler creates a disassembler for chunk (conventionally the
// root chunk returned by Compile).
func NewDisassembler(chunk *Chunk, writer io.Writer) *Disassembler {
	return &Disassembler{writer: writer, chunk: chunk}
}

// Disassemble prints the root chunk followed by every function it
// (transitively) owns.
func (d *Disassembler) Disassemble() {
	d.disassembleChunk(d.chunk, "<top-level>")
	for i, fn := range d.chunk.Functions {
		name := fn.Name
		if name == "" {
			name = fmt.Sprintf("<anonymous %d>", i)
		}
		fmt.Fprintln(d.writer)
		d.disassembleChunk(fn.Chunk, fmt.Sprintf("function[%d] %s", i, name))
	}
}

func (d *Disassembler) disassembleChunk(chunk *Chunk, label string) {
	fmt.Fprintf(d.writer, "== %s ==\n", label)
	for offset := 0; offset < len(chunk.Code); offset++ {
		d.disassembleInstruction(chunk, offset)
	}
}

// disassembleInstruction prints the instruction at offset, prefixed by
// its index and source line (the line is elided with "|" when it
// repeats the previous instruction's, matching the teacher's listing
// style).
func (d *Disassembler) disassembleInstruction(chunk *Chunk, offset int) {
	ins := chunk.Code[offset]

	if offset > 0 && chunk.Code[offset-1].Line == ins.Line {
		fmt.Fprintf(d.writer, "%04d    | ", offset)
	} else {
		fmt.Fprintf(d.writer, "%04d %4d ", offset, ins.Line)
	}

	switch ins.Op {
	case OpJump, OpJumpIfFalse:
		fmt.Fprintf(d.writer, "%-12s %4d\n", ins.Op, ins.Addr)
	case OpStore:
		fmt.Fprintf(d.writer, "%-12s %s%s\n", ins.Op, ins.Name, accessorsString(ins.Accessors))
	case OpLoad, OpAccessField:
		fmt.Fprintf(d.writer, "%-12s %s\n", ins.Op, ins.Name)
	case OpMakeStruct:
		fmt.Fprintf(d.writer, "%-12s count=%d\n", ins.Op, ins.Count)
	case OpPush:
		fmt.Fprintf(d.writer, "%-12s %s\n", ins.Op, ins.Value)
	case OpPushObject:
		fmt.Fprintf(d.writer, "%-12s %s\n", ins.Op, ins.Object)
	default:
		fmt.Fprintf(d.writer, "%s\n", ins.Op)
	}
}

func accessorsString(accessors []Accessor) string {
	if len(accessors) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, a := range accessors {
		sb.WriteString(".")
		sb.WriteString(a.FieldName)
	}
	return sb.String()
}

// DisassembleToString renders chunk's full disassembly (root plus every
// nested function) as a string, e.g. for the `l disasm` command or a
// golden test.
func DisassembleToString(chunk *Chunk) string {
	var sb strings.Builder
	NewDisassembler(chunk, &sb).Disassemble()
	return sb.String()
}
