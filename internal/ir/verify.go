package ir

import (
	"fmt"

	"go.uber.org/multierr"
)

// VerificationError IR 验证错误
type VerificationError struct {
	Function string // 函数名
	Offset   int    // 指令下标
	Message  string // 错误消息
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("IR verification failed (%s@%d): %s", e.Function, e.Offset, e.Message)
}

// Verify 检查模块的结构性质：
//   - 入口函数存在，全局声明指向入口函数的槽位
//   - 每个寄存器只被定义一次，首次出现的编号不递减
//   - 寄存器和槽位编号在函数声明的数量之内
//   - 跳转目标在同一函数中有对应的 LABEL，标签不重复
func (m *Module) Verify() error {
	var err error
	entry := m.Function(m.EntryPoint)
	if entry == nil {
		err = multierr.Append(err, &VerificationError{Function: m.EntryPoint, Message: "entry point not found"})
	}
	for i, g := range m.Globals {
		if entry != nil && (g.Slot.Kind != LocalKind || g.Slot.Index >= entry.LocalCount) {
			err = multierr.Append(err, &VerificationError{
				Function: m.EntryPoint,
				Offset:   i,
				Message:  fmt.Sprintf("global %s has no slot in entry function", g.Name),
			})
		}
	}
	for _, f := range m.Functions {
		err = multierr.Append(err, f.Verify())
	}
	return err
}

// Verify 检查单个函数
func (f *Function) Verify() error {
	var err error
	fail := func(offset int, format string, args ...interface{}) {
		err = multierr.Append(err, &VerificationError{
			Function: f.Name,
			Offset:   offset,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	defined := make(map[int]bool)
	for _, p := range f.Params {
		defined[p.Index] = true
	}
	labels := make(map[string]bool)
	last := len(f.Params) - 1

	for i, inst := range f.Instructions {
		if inst.Op == OpLabel {
			name, _ := inst.Target()
			if labels[name] {
				fail(i, "duplicate label %s", name)
			}
			labels[name] = true
		}

		for _, v := range []*Value{inst.Dest, inst.Src1, inst.Src2} {
			if v == nil {
				continue
			}
			switch {
			case v.Kind == RegisterKind && v.Index >= f.RegisterCount:
				fail(i, "register r%d out of range", v.Index)
			case v.Kind == LocalKind && v.Index >= f.LocalCount:
				fail(i, "slot %d out of range", v.Index)
			}
		}

		if inst.Dest == nil || inst.Dest.Kind != RegisterKind {
			continue
		}
		n := inst.Dest.Index
		if defined[n] {
			fail(i, "register r%d redefined", n)
		}
		if n < last {
			fail(i, "register r%d defined after r%d", n, last)
		}
		defined[n] = true
		last = n
	}

	for i, inst := range f.Instructions {
		if !inst.IsJump() {
			continue
		}
		if target, ok := inst.Target(); ok && !labels[target] {
			fail(i, "jump to undefined label %s", target)
		}
	}
	return err
}
