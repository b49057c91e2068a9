package ir

import "fmt"

// ============================================================================
// 函数构建器
// ============================================================================

// builder 为单个函数分配寄存器、局部槽位和标签并追加指令。
// 寄存器编号单调递增且从不复用；局部槽位与寄存器是两个独立的编号空间。
type builder struct {
	fn     *Function
	scopes []map[string]Value // 名称 -> Local，最内层在末尾
	labels int
}

func newBuilder(name string, ret Type) *builder {
	return &builder{
		fn: &Function{
			Name:         name,
			ReturnType:   ret,
			Params:       []Value{},
			Instructions: make([]*Instruction, 0, 32),
		},
		scopes: []map[string]Value{{}},
	}
}

// emit 追加指令
func (b *builder) emit(inst *Instruction) *Instruction {
	b.fn.Instructions = append(b.fn.Instructions, inst)
	return inst
}

// newRegister 分配新寄存器
func (b *builder) newRegister(t Type, name string) Value {
	r := Register(b.fn.RegisterCount, t, name)
	b.fn.RegisterCount++
	return r
}

// alloc 分配新的局部槽位并发射 ALLOC。名称在 bind 之后才可见
func (b *builder) alloc(name string, t Type) Value {
	slot := Local(b.fn.LocalCount, name)
	slot.Type = t
	b.fn.LocalCount++
	b.emit(&Instruction{Op: OpAlloc, Dest: valuePtr(slot)})
	return slot
}

// bind 在当前作用域中绑定名称
func (b *builder) bind(name string, slot Value) {
	b.scopes[len(b.scopes)-1][name] = slot
}

// lookup 由内向外查找名称对应的槽位
func (b *builder) lookup(name string) (Value, bool) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if slot, ok := b.scopes[i][name]; ok {
			return slot, true
		}
	}
	return Value{}, false
}

func (b *builder) enterScope() {
	b.scopes = append(b.scopes, map[string]Value{})
}

func (b *builder) exitScope() {
	b.scopes = b.scopes[:len(b.scopes)-1]
}

// newLabels 为一个控制结构创建一组标签，格式 <kind>_<n>_<role>
func (b *builder) newLabels(kind string, roles ...string) []Value {
	n := b.labels
	b.labels++
	out := make([]Value, len(roles))
	for i, role := range roles {
		out[i] = Label(fmt.Sprintf("%s_%d_%s", kind, n, role))
	}
	return out
}

// ============================================================================
// 指令发射
// ============================================================================

func (b *builder) emitLabel(l Value) {
	b.emit(&Instruction{Op: OpLabel, Src1: valuePtr(l)})
}

func (b *builder) emitJump(target Value) {
	b.emit(&Instruction{Op: OpJump, Src1: valuePtr(target)})
}

func (b *builder) emitJumpIfFalse(cond, target Value) {
	b.emit(&Instruction{Op: OpJumpIfFalse, Src1: valuePtr(cond), Src2: valuePtr(target)})
}

func (b *builder) emitStore(target, src Value) {
	b.emit(&Instruction{Op: OpStore, Dest: valuePtr(target), Src1: valuePtr(src)})
}

func (b *builder) emitLoad(slot Value, t Type) Value {
	r := b.newRegister(t, slot.Name)
	b.emit(&Instruction{Op: OpLoad, Dest: valuePtr(r), Src1: valuePtr(slot)})
	return r
}

func (b *builder) emitConstInt(v int64, t Type) Value {
	r := b.newRegister(t, "")
	b.emit(&Instruction{Op: OpConstInt, Dest: valuePtr(r), Src1: valuePtr(IntConst(v))})
	return r
}

func (b *builder) emitBinary(op Opcode, t Type, left, right *Value, comment string) Value {
	r := b.newRegister(t, "")
	b.emit(&Instruction{Op: op, Dest: valuePtr(r), Src1: left, Src2: right, Comment: comment})
	return r
}

func (b *builder) emitReturn(v *Value) {
	b.emit(&Instruction{Op: OpReturn, Src1: v})
}

// endsWithReturn 最后一条指令是否为 RETURN
func (b *builder) endsWithReturn() bool {
	n := len(b.fn.Instructions)
	return n > 0 && b.fn.Instructions[n-1].Op == OpReturn
}
