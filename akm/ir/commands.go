package ir

import (
	"fmt"

	"github.com/chazu/akmc/akm"
	"github.com/chazu/akmc/akm/frontend"
)

// InjectCommands splices one command-registration block into init,
// immediately before its first RET, for every extracted command (spec
// §4.2 "Init prologue injection"). It returns an error if the module has
// no init function — callers are expected to have already checked the
// §3 structural invariant that init/exit exist.
func InjectCommands(mod *Module, commands []frontend.Command) error {
	if len(commands) == 0 {
		return nil
	}
	init, ok := mod.FunctionByName["init"]
	if !ok {
		return fmt.Errorf("cannot inject command registrations: no init function")
	}

	retIdx := -1
	for i, ins := range init.Instructions {
		if ins.Op == akm.OpRet {
			retIdx = i
			break
		}
	}
	if retIdx == -1 {
		retIdx = len(init.Instructions)
	}

	var block []Instruction
	for _, cmd := range commands {
		block = append(block,
			PushStr(cmd.Name),
			PushStr(cmd.Syntax),
			PushStr(cmd.Description),
			PushStr(cmd.Category),
			Push(0),
			CallAPI(akm.RegisterCommandAPI, 5),
			Pop(),
		)
		mod.Strings.Intern(cmd.Name)
		mod.Strings.Intern(cmd.Syntax)
		mod.Strings.Intern(cmd.Description)
		mod.Strings.Intern(cmd.Category)
	}

	spliced := make([]Instruction, 0, len(init.Instructions)+len(block))
	spliced = append(spliced, init.Instructions[:retIdx]...)
	spliced = append(spliced, block...)
	spliced = append(spliced, init.Instructions[retIdx:]...)
	init.Instructions = spliced
	return nil
}
