// Package capability implements the §4.3 capability inferencer: it unions
// the module's declared capabilities with those implied by observed
// host-API calls and the presence of any registered command, then
// unconditionally sets LOG.
package capability

import (
	"github.com/chazu/akmc/akm"
	"github.com/chazu/akmc/akm/frontend"
)

// Infer computes the final capability mask for a module and writes it
// back into descriptor.Capabilities, mutating the descriptor exactly
// once as spec §3 requires.
func Infer(descriptor *akm.ModuleDescriptor, calls []frontend.APICall, hasCommands bool) {
	mask := akm.Capability(descriptor.Capabilities)

	if hasCommands {
		mask |= akm.CapCommand
	}

	for _, call := range calls {
		if method, _, ok := akm.LookupAPI(call.Method); ok {
			mask |= method.Capability
		}
	}

	mask |= akm.CapLog

	descriptor.Capabilities = uint32(mask)
}
