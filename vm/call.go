// Copyright (C) 2026 The Muon Authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package vm

import (
	"github.com/muonic/muon/compiler"
	"github.com/muonic/muon/object"
	"github.com/muonic/muon/typecheck"
)

// opCall implements the call nargs nkwargs instruction: pop the capture,
// bind arguments against the callee's parameter list (positional, then
// keyword, then defaults captured at definition time), and transfer
// control to the function body (spec.md §4.6's func frame).
func opCall(vm *VM, ip int) error {
	nargs := int(vm.Code.Operand(ip, 0))
	nkwargs := int(vm.Code.Operand(ip, 1))

	calleeHandle := vm.pop()
	if vm.Objects.Tag(calleeHandle) != object.TagCapture {
		return vm.fail("call target is not a function, got %s", vm.Objects.Tag(calleeHandle))
	}
	capture := vm.Objects.Capture(calleeHandle)

	// A capture produced by func_lookup for a receiver method (spec.md
	// §4.8) has no bytecode body: dispatch straight to the builtin
	// registry, prepending the bound receiver as an implicit first
	// argument the way the C implementation's self_transform does.
	if capture.FuncDef == object.NoValue {
		args, kwargs := vm.Behavior.PopArgs(vm, nargs, nkwargs)
		if capture.BoundSelf != object.NoValue {
			args = append([]object.Handle{capture.BoundSelf}, args...)
		}
		result, err := vm.Behavior.NativeDispatch(vm, capture.Native, args, kwargs)
		if err != nil {
			return err
		}
		vm.push(result)
		return nil
	}

	fn := vm.Objects.FuncDef(capture.FuncDef)
	args, kwargs := vm.Behavior.PopArgs(vm, nargs, nkwargs)

	callScope := vm.Behavior.ScopePush(vm, capture.ScopeRef)
	if capture.BoundSelf != object.NoValue {
		vm.Scopes.Set(callScope, "self", capture.BoundSelf)
	}
	if err := bindParams(vm, callScope, fn, capture, args, kwargs); err != nil {
		return err
	}

	var expected typecheck.Tag
	if rt, ok := fn.ReturnType.(typecheck.Tag); ok {
		expected = rt
	}

	vm.frames = append(vm.frames, &Frame{
		Kind:      FrameFunc,
		ReturnIP:  ip + compiler.OpCall.Width(),
		Scope:     callScope,
		Expected:  expected,
		Mode:      vm.frame().Mode,
		Func:      &fn,
		StackBase: len(vm.stack),
	})
	vm.ip = fn.EntryPC
	return nil
}

// bindParams assigns positional args, then keyword args, then captured
// defaults, to fn's parameter names in callScope; any keyword argument
// left unconsumed, or any parameter left unfilled, is an error.
func bindParams(vm *VM, callScope int, fn object.FuncDefPayload, capture object.CapturePayload, args []object.Handle, kwargs map[string]object.Handle) error {
	if len(args) > len(fn.ParamNames) {
		return vm.fail("%s: too many positional arguments (got %d, want at most %d)", fn.Name, len(args), len(fn.ParamNames))
	}
	for i, name := range fn.ParamNames {
		if i < len(args) {
			markShared(vm.Objects, args[i])
			vm.Scopes.Set(callScope, name, args[i])
			continue
		}
		if v, ok := kwargs[name]; ok {
			markShared(vm.Objects, v)
			vm.Scopes.Set(callScope, name, v)
			delete(kwargs, name)
			continue
		}
		if capture.Defaults != object.NoValue {
			if v, ok := vm.Objects.DictGet(capture.Defaults, vm.Objects.MakeString(name)); ok {
				markShared(vm.Objects, v)
				vm.Scopes.Set(callScope, name, v)
				continue
			}
		}
		return vm.fail("%s: missing required argument %q", fn.Name, name)
	}
	for name := range kwargs {
		return vm.fail("%s: unexpected keyword argument %q", fn.Name, name)
	}
	return nil
}

func opCallNative(vm *VM, ip int) error {
	nargs := int(vm.Code.Operand(ip, 0))
	nkwargs := int(vm.Code.Operand(ip, 1))
	idx := int(vm.Code.Operand(ip, 2))

	args, kwargs := vm.Behavior.PopArgs(vm, nargs, nkwargs)
	result, err := vm.Behavior.NativeDispatch(vm, idx, args, kwargs)
	if err != nil {
		return err
	}
	vm.push(result)
	return nil
}

// opMember implements `self.method`: it does not invoke anything, only
// resolves and pushes the bound capture, which the following OpCall then
// drives like any other callable.
func opMember(vm *VM, ip int) error {
	name := vm.Objects.String(object.Handle(vm.Code.Operand(ip, 0)))
	self := vm.pop()
	bound, err := vm.Behavior.FuncLookup(vm, self, name)
	if err != nil {
		return err
	}
	vm.push(bound)
	return nil
}

// opReturn implements an explicit return statement: type-check the
// returned value against the frame's expected type (when the analyzer
// has populated one), unwind exactly the callee's contribution to the
// operand stack, and resume at the call site with the value on top.
func opReturn(vm *VM, ip int) error {
	return doReturn(vm, vm.pop())
}

// opReturnEnd implements falling off the end of a function body with no
// explicit return statement: the call yields null (spec.md glossary:
// Meson functions without a trailing return produce void/null).
func opReturnEnd(vm *VM, ip int) error {
	return doReturn(vm, object.HNull)
}

func doReturn(vm *VM, val object.Handle) error {
	f := vm.frame()
	if f.Kind != FrameFunc {
		return vm.fail("return outside of a function body")
	}
	if f.Expected != 0 {
		if err := checkTag(vm, val, f.Expected); err != nil {
			return err
		}
	}
	vm.frames = vm.frames[:len(vm.frames)-1]
	vm.stack = vm.stack[:f.StackBase]
	vm.ip = f.ReturnIP
	vm.push(val)
	return nil
}
