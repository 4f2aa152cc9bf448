package capability

import (
	"testing"

	"github.com/chazu/akmc/akm"
	"github.com/chazu/akmc/akm/frontend"
)

func TestInferUnconditionallySetsLog(t *testing.T) {
	d := akm.NewModuleDescriptor()
	Infer(&d, nil, false)
	if akm.Capability(d.Capabilities)&akm.CapLog == 0 {
		t.Error("expected LOG to always be set")
	}
}

func TestInferCommandBit(t *testing.T) {
	d := akm.NewModuleDescriptor()
	Infer(&d, nil, true)
	if akm.Capability(d.Capabilities)&akm.CapCommand == 0 {
		t.Error("expected COMMAND bit when hasCommands is true")
	}
}

func TestInferFromAPICalls(t *testing.T) {
	d := akm.NewModuleDescriptor()
	calls := []frontend.APICall{{Method: "readFile"}, {Method: "exec"}}
	Infer(&d, calls, false)
	mask := akm.Capability(d.Capabilities)
	if mask&akm.CapFSRead == 0 {
		t.Error("expected FS_READ from readFile call")
	}
	if mask&akm.CapShell == 0 {
		t.Error("expected SHELL from exec call")
	}
}

func TestInferUnknownAPICallAddsNothing(t *testing.T) {
	d := akm.NewModuleDescriptor()
	calls := []frontend.APICall{{Method: "notARealMethod"}}
	Infer(&d, calls, false)
	mask := akm.Capability(d.Capabilities)
	if mask != akm.CapLog {
		t.Errorf("mask = %s, want only LOG", akm.String(mask))
	}
}

func TestInferUnionsWithDeclaredCapabilities(t *testing.T) {
	d := akm.NewModuleDescriptor()
	d.Capabilities = uint32(akm.CapNetClient)
	Infer(&d, nil, false)
	mask := akm.Capability(d.Capabilities)
	if mask&akm.CapNetClient == 0 {
		t.Error("expected declared NET_CLIENT to survive inference")
	}
	if mask&akm.CapLog == 0 {
		t.Error("expected LOG added on top of declared capabilities")
	}
}
