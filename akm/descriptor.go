package akm

// ModuleDescriptor is the module metadata record described in spec §3. It
// is created by the frontend's module-config extraction, mutated exactly
// once by the capability inferencer, then treated as immutable by every
// later stage.
type ModuleDescriptor struct {
	Name           string
	Version        string
	Author         string
	Description    string
	License        string
	Capabilities   uint32
	Dependencies   []string
	SecurityLevel  uint8
}

// DefaultVersion is substituted when a module omits "version".
const DefaultVersion = "1.0.0"

// NewModuleDescriptor returns a descriptor with field defaults applied.
func NewModuleDescriptor() ModuleDescriptor {
	return ModuleDescriptor{Version: DefaultVersion}
}
