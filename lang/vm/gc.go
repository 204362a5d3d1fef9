package vm

import "github.com/mna/vela/lang/bytecode"

// allocString, allocArray and allocClass are the VM's only heap allocation
// points (spec §4.5: "GC points: every call to the heap allocator"). Each
// triggers a collection first if the live count has reached the threshold,
// then links the new object onto the freelist and counts it as live.

func (m *VM) allocString(s string) *bytecode.Obj {
	m.maybeCollect()
	return m.link(bytecode.NewString(s))
}

func (m *VM) allocArray(elems []bytecode.Value) *bytecode.Obj {
	m.maybeCollect()
	return m.link(bytecode.NewArray(elems))
}

func (m *VM) allocClass(nfields int) *bytecode.Obj {
	m.maybeCollect()
	return m.link(bytecode.NewClass(nfields))
}

func (m *VM) link(o *bytecode.Obj) *bytecode.Obj {
	o.SetNext(m.heap)
	m.heap = o
	m.liveCount++
	return o
}

func (m *VM) maybeCollect() {
	if m.cfg.DisableGC || m.liveCount < m.gcThresh {
		return
	}
	m.collect()
}

// collect runs one mark-and-sweep cycle (spec §4.5): mark from every stack
// slot in [0, sp) and transitively through every marked Array/Class's
// elements, then sweep the freelist, unlinking and dropping every unmarked
// node. The threshold doubles to 2× the post-sweep live count, so a heap
// that stays mostly garbage keeps triggering frequent, cheap collections.
func (m *VM) collect() {
	for i := 0; i < m.sp; i++ {
		mark(m.stack[i])
	}

	var kept *bytecode.Obj
	live := 0
	for o := m.heap; o != nil; {
		next := o.Next()
		if o.Mark {
			o.Mark = false
			o.SetNext(kept)
			kept = o
			live++
		}
		o = next
	}
	m.heap = kept
	m.liveCount = live
	m.gcThresh = 2 * live
	if m.gcThresh < m.cfg.InitialGCThreshold {
		m.gcThresh = m.cfg.InitialGCThreshold
	}
}

func mark(v bytecode.Value) {
	if !v.IsObj() {
		return
	}
	o := v.AsObj()
	if o.Mark {
		return
	}
	o.Mark = true
	if o.Kind == bytecode.ObjArray || o.Kind == bytecode.ObjClass {
		for _, e := range o.Elems() {
			mark(e)
		}
	}
}
