package lower

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/slowlang/cflat/compiler/lir"
)

// assemble groups the flat translation sequence into basic blocks.
//
// An instruction seen before any label belongs to the entry block.
// Items following a terminator before the next label can never run
// and are dropped.
func assemble(ctx context.Context, entry lir.Label, items []item) map[lir.Label]*lir.Block {
	tr := tlog.SpanFromContext(ctx)

	blocks := make(map[lir.Label]*lir.Block)

	var cur *lir.Block
	seen := false

	open := func(l lir.Label) *lir.Block {
		b, ok := blocks[l]
		if !ok {
			b = &lir.Block{Label: l}
			blocks[l] = b
		}

		return b
	}

	for i, it := range items {
		switch {
		case it.Label != "":
			cur = open(it.Label)
			seen = true
		case cur == nil && seen:
			if tr.If("dead_code") {
				tr.Printw("drop unreachable item", "i", i, "item", it)
			}
		case it.Inst != nil:
			if cur == nil {
				cur = open(entry)
			}

			cur.Insts = append(cur.Insts, it.Inst)
		case it.Term != nil:
			if cur == nil {
				cur = open(entry)
			}

			cur.Term = it.Term
			cur = nil
		}
	}

	if tr.If("dump_blocks") {
		for _, l := range lir.BlockOrder(entry, blocks) {
			b := blocks[l]
			tr.Printw("block", "label", l, "insts", len(b.Insts), "term_typ", tlog.NextAsType, b.Term, "term", b.Term)
		}
	}

	return blocks
}
