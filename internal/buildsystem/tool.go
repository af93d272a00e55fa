package buildsystem

import "fmt"

// toolBase carries the shared tool behavior: a name, rejection of
// unsupported attributes, and no custom command support.
type toolBase struct {
	name string
}

// Name returns the tool name.
func (t *toolBase) Name() string { return t.name }

// ConfigureAttribute rejects all scalar attributes.
func (t *toolBase) ConfigureAttribute(ctx *ConfigureContext, name, _ string) bool {
	ctx.Error(fmt.Sprintf("unexpected attribute: '%s'", name))
	return false
}

// ConfigureAttributeList rejects all list attributes.
func (t *toolBase) ConfigureAttributeList(ctx *ConfigureContext, name string, _ []string) bool {
	ctx.Error(fmt.Sprintf("unexpected attribute: '%s'", name))
	return false
}

// ConfigureAttributeMap rejects all map attributes.
func (t *toolBase) ConfigureAttributeMap(ctx *ConfigureContext, name string, _ map[string]string) bool {
	ctx.Error(fmt.Sprintf("unexpected attribute: '%s'", name))
	return false
}

// CreateCustomCommand declines all custom task payloads.
func (t *toolBase) CreateCustomCommand(BuildKey) Command { return nil }

// LookupBuiltinTool resolves one of the built-in tool definitions, or
// returns nil.
func LookupBuiltinTool(name string) Tool {
	switch name {
	case "shell":
		return &ShellTool{toolBase{name: name}}
	case "phony":
		return &PhonyTool{toolBase{name: name}}
	case "clang":
		return &ClangTool{toolBase{name: name}}
	case "mkdir":
		return &MkdirTool{toolBase{name: name}}
	}
	return nil
}
