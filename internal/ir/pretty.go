package ir

import (
	"fmt"
	"sort"
	"strings"
)

// FormatBlocks renders blocks line by line, labelling them first. A
// trailing goto that just falls through to the next block is hidden.
func FormatBlocks(blocks []*BasicBlock, env *Environment) []string {
	NumberBlocks(blocks)

	handlerMap := make(map[*BasicBlock][]*BasicBlock)
	for _, b := range blocks {
		if b.ErrorHandler != nil {
			handlerMap[b.ErrorHandler] = append(handlerMap[b.ErrorHandler], b)
		}
	}

	var lines []string
	for i, block := range blocks {
		handlerMsg := ""
		if sources, ok := handlerMap[block]; ok {
			labels := make([]string, len(sources))
			for j, b := range sources {
				labels[j] = fmt.Sprintf("L%d", b.Label)
			}
			sort.Strings(labels)
			handlerMsg = fmt.Sprintf(" (handler for %s)", strings.Join(labels, ", "))
		}
		lines = append(lines, fmt.Sprintf("L%d:%s", block.Label, handlerMsg))

		ops := block.Ops
		if g, ok := lastOp(ops).(*Goto); ok && i+1 < len(blocks) && g.Target == blocks[i+1] {
			ops = ops[:len(ops)-1]
		}
		for _, op := range ops {
			lines = append(lines, "    "+op.ToStr(env))
		}
		if !block.Terminated() {
			// Each basic block needs to exit somewhere.
			lines = append(lines, "    [MISSING BLOCK EXIT OPCODE]")
		}
	}
	return lines
}

func lastOp(ops []Op) Op {
	if len(ops) == 0 {
		return nil
	}
	return ops[len(ops)-1]
}

// FormatFunc renders a whole function: header, register declarations,
// blocks.
func FormatFunc(f *FuncIR) string {
	var lines []string
	prefix := ""
	if f.Decl.ClassName != "" {
		prefix = f.Decl.ClassName + "."
	}
	argNames := make([]string, len(f.Args()))
	for i, arg := range f.Args() {
		argNames[i] = arg.Name
	}
	lines = append(lines, fmt.Sprintf("def %s%s(%s):", prefix, f.Name(), strings.Join(argNames, ", ")))
	for _, line := range f.Env.ToLines() {
		lines = append(lines, "    "+line)
	}
	lines = append(lines, FormatBlocks(f.Blocks, f.Env)...)
	return strings.Join(lines, "\n")
}
