// Package config provides the YAML build manifest loader.
package config

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"go.trai.ch/forge/internal/buildsystem"
	"go.trai.ch/forge/internal/core/domain"
)

// Loader implements buildsystem.FileLoader for YAML manifests with the
// sections: client, tools, targets, nodes, commands.
//
// Structural errors are reported through the delegate with the
// offending token and collected rather than fatal; the build system
// still attempts to build with whatever loaded cleanly. Only a read or
// parse failure, a top level that is not a mapping, or an invalid or
// mismatched client declaration fails the load.
type Loader struct{}

// NewLoader creates a manifest loader.
func NewLoader() *Loader {
	return &Loader{}
}

type loadState struct {
	delegate  buildsystem.Delegate
	filename  string
	buildFile *buildsystem.BuildFile
	loadOK    bool
}

func (s *loadState) error(node *yaml.Node, message string) {
	at := domain.Token{}
	if node != nil {
		at = domain.Token{Line: node.Line, Column: node.Column}
	}
	s.delegate.Error(s.filename, at, message)
}

func (s *loadState) context(node *yaml.Node) *buildsystem.ConfigureContext {
	at := domain.Token{}
	if node != nil {
		at = domain.Token{Line: node.Line, Column: node.Column}
	}
	return &buildsystem.ConfigureContext{Delegate: s.delegate, Filename: s.filename, Token: at}
}

// Load reads and parses the main build file.
func (l *Loader) Load(mainFilename string, delegate buildsystem.Delegate) (*buildsystem.BuildFile, bool) {
	data, err := delegate.FileSystem().GetFileContents(mainFilename)
	if err != nil {
		delegate.Error(mainFilename, domain.Token{}, fmt.Sprintf("unable to read build file '%s'", mainFilename))
		return nil, false
	}

	delegate.SetFileContentsBeingParsed(data)

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		delegate.Error(mainFilename, domain.Token{}, "unable to parse build file: "+err.Error())
		return nil, false
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		delegate.Error(mainFilename, domain.Token{}, "expected mapping at top level of build file")
		return nil, false
	}

	s := &loadState{
		delegate:  delegate,
		filename:  mainFilename,
		buildFile: buildsystem.NewBuildFile(),
		loadOK:    true,
	}

	root := doc.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "client":
			s.parseClient(value)
		case "tools":
			s.parseTools(value)
		case "targets":
			s.parseTargets(value)
		case "nodes":
			s.parseNodes(value)
		case "commands":
			s.parseCommands(value)
		default:
			s.error(key, fmt.Sprintf("unexpected section: '%s'", key.Value))
		}
	}

	if !s.loadOK {
		return nil, false
	}
	return s.buildFile, true
}

// mappingKeys validates that a section is a mapping with string keys
// and returns the key/value node pairs.
func (s *loadState) mappingKeys(section *yaml.Node, what string) []*yaml.Node {
	if section.Kind != yaml.MappingNode {
		s.error(section, fmt.Sprintf("expected mapping for '%s'", what))
		return nil
	}
	for i := 0; i+1 < len(section.Content); i += 2 {
		if key := section.Content[i]; key.Kind != yaml.ScalarNode || key.Tag != "!!str" {
			s.error(key, fmt.Sprintf("invalid key type in '%s' map", what))
			return nil
		}
	}
	return section.Content
}

func (s *loadState) parseClient(section *yaml.Node) {
	content := s.mappingKeys(section, "client")

	var name string
	var version uint64
	for i := 0; i+1 < len(content); i += 2 {
		key, value := content[i], content[i+1]
		switch key.Value {
		case "name":
			name = value.Value
		case "version":
			v, err := strconv.ParseUint(value.Value, 10, 16)
			if err != nil {
				s.error(value, fmt.Sprintf("invalid version number: '%s'", value.Value))
				s.loadOK = false
				return
			}
			version = v
		default:
			// Remaining properties are client-defined and passed through.
		}
	}

	// The client declaration must match the configured system.
	if name != s.delegate.Name() || uint32(version) != s.delegate.Version() {
		s.error(section, "unable to configure client")
		s.loadOK = false
		return
	}

	s.buildFile.ClientName = name
	s.buildFile.ClientVersion = uint32(version)
}

// getOrCreateTool resolves a tool name through the client delegate and
// the builtin definitions.
func (s *loadState) getOrCreateTool(name string, at *yaml.Node) buildsystem.Tool {
	if tool, ok := s.buildFile.Tools[name]; ok {
		return tool
	}

	tool := s.delegate.LookupTool(name)
	if tool == nil {
		tool = buildsystem.LookupBuiltinTool(name)
	}
	if tool == nil {
		s.error(at, fmt.Sprintf("invalid tool type in 'tools' map: '%s'", name))
		return nil
	}

	s.buildFile.AddTool(tool)
	return tool
}

func (s *loadState) parseTools(section *yaml.Node) {
	content := s.mappingKeys(section, "tools")
	for i := 0; i+1 < len(content); i += 2 {
		key, value := content[i], content[i+1]
		tool := s.getOrCreateTool(key.Value, key)
		if tool == nil {
			continue
		}
		if value.Kind != yaml.MappingNode {
			s.error(value, fmt.Sprintf("expected mapping for tool '%s'", key.Value))
			continue
		}
		for j := 0; j+1 < len(value.Content); j += 2 {
			s.configureAttribute(value.Content[j], value.Content[j+1], toolConfigurable{tool})
		}
	}
}

func (s *loadState) parseTargets(section *yaml.Node) {
	content := s.mappingKeys(section, "targets")
	for i := 0; i+1 < len(content); i += 2 {
		key, value := content[i], content[i+1]
		nodes, ok := s.nodeList(value, fmt.Sprintf("target '%s'", key.Value))
		if !ok {
			continue
		}
		s.buildFile.AddTarget(buildsystem.NewTarget(key.Value, nodes))
	}
}

func (s *loadState) parseNodes(section *yaml.Node) {
	content := s.mappingKeys(section, "nodes")
	for i := 0; i+1 < len(content); i += 2 {
		key, value := content[i], content[i+1]
		s.buildFile.GetOrCreateNode(key.Value)
		if value.Kind != yaml.MappingNode {
			s.error(value, fmt.Sprintf("expected mapping for node '%s'", key.Value))
			continue
		}
		// Node attributes are not supported by the built-in node type.
		for j := 0; j+1 < len(value.Content); j += 2 {
			s.error(value.Content[j], fmt.Sprintf("unexpected attribute: '%s'", value.Content[j].Value))
		}
	}
}

func (s *loadState) parseCommands(section *yaml.Node) {
	content := s.mappingKeys(section, "commands")
	seen := make(map[string]bool)

	for i := 0; i+1 < len(content); i += 2 {
		key, value := content[i], content[i+1]
		if seen[key.Value] {
			s.error(key, fmt.Sprintf("duplicate command name: '%s'", key.Value))
			continue
		}
		seen[key.Value] = true

		s.parseCommand(key, value)
	}
}

func (s *loadState) parseCommand(key, value *yaml.Node) {
	if value.Kind != yaml.MappingNode {
		s.error(value, fmt.Sprintf("expected mapping for command '%s'", key.Value))
		return
	}

	// The tool must be the first structural key so the command instance
	// exists before its attributes are applied.
	if len(value.Content) < 2 || value.Content[0].Value != "tool" {
		s.error(value, "expected 'tool' initial key")
		return
	}

	tool := s.getOrCreateTool(value.Content[1].Value, value.Content[1])
	if tool == nil {
		return
	}

	command := tool.CreateCommand(key.Value)
	for j := 2; j+1 < len(value.Content); j += 2 {
		attrKey, attrValue := value.Content[j], value.Content[j+1]
		switch attrKey.Value {
		case "inputs":
			if nodes, ok := s.nodeList(attrValue, fmt.Sprintf("command '%s' inputs", key.Value)); ok {
				command.ConfigureInputs(s.context(attrKey), nodes)
			}
		case "outputs":
			if nodes, ok := s.nodeList(attrValue, fmt.Sprintf("command '%s' outputs", key.Value)); ok {
				command.ConfigureOutputs(s.context(attrKey), nodes)
				for _, node := range nodes {
					node.AddProducer(command)
				}
			}
		case "description":
			command.ConfigureDescription(s.context(attrKey), attrValue.Value)
		default:
			s.configureAttribute(attrKey, attrValue, commandConfigurable{command})
		}
	}

	s.buildFile.AddCommand(command)
}

// nodeList decodes a sequence of node names, minting nodes as needed.
func (s *loadState) nodeList(value *yaml.Node, what string) ([]*buildsystem.BuildNode, bool) {
	if value.Kind != yaml.SequenceNode {
		s.error(value, fmt.Sprintf("expected list for %s", what))
		return nil, false
	}

	nodes := make([]*buildsystem.BuildNode, 0, len(value.Content))
	for _, item := range value.Content {
		if item.Kind != yaml.ScalarNode {
			s.error(item, fmt.Sprintf("expected scalar node name in %s", what))
			return nil, false
		}
		nodes = append(nodes, s.buildFile.GetOrCreateNode(item.Value))
	}
	return nodes, true
}

// configurable abstracts the shared attribute dispatch of tools and
// commands.
type configurable interface {
	scalar(ctx *buildsystem.ConfigureContext, name, value string) bool
	list(ctx *buildsystem.ConfigureContext, name string, values []string) bool
	mapping(ctx *buildsystem.ConfigureContext, name string, values map[string]string) bool
}

type toolConfigurable struct{ tool buildsystem.Tool }

func (c toolConfigurable) scalar(ctx *buildsystem.ConfigureContext, name, value string) bool {
	return c.tool.ConfigureAttribute(ctx, name, value)
}
func (c toolConfigurable) list(ctx *buildsystem.ConfigureContext, name string, values []string) bool {
	return c.tool.ConfigureAttributeList(ctx, name, values)
}
func (c toolConfigurable) mapping(ctx *buildsystem.ConfigureContext, name string, values map[string]string) bool {
	return c.tool.ConfigureAttributeMap(ctx, name, values)
}

type commandConfigurable struct{ command buildsystem.Command }

func (c commandConfigurable) scalar(ctx *buildsystem.ConfigureContext, name, value string) bool {
	return c.command.ConfigureAttribute(ctx, name, value)
}
func (c commandConfigurable) list(ctx *buildsystem.ConfigureContext, name string, values []string) bool {
	return c.command.ConfigureAttributeList(ctx, name, values)
}
func (c commandConfigurable) mapping(ctx *buildsystem.ConfigureContext, name string, values map[string]string) bool {
	return c.command.ConfigureAttributeMap(ctx, name, values)
}

func (s *loadState) configureAttribute(key, value *yaml.Node, target configurable) {
	ctx := s.context(key)

	switch value.Kind {
	case yaml.ScalarNode:
		target.scalar(ctx, key.Value, value.Value)

	case yaml.SequenceNode:
		values := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode {
				s.error(item, fmt.Sprintf("expected scalar value in attribute '%s'", key.Value))
				return
			}
			values = append(values, item.Value)
		}
		target.list(ctx, key.Value, values)

	case yaml.MappingNode:
		values := make(map[string]string, len(value.Content)/2)
		for j := 0; j+1 < len(value.Content); j += 2 {
			mk, mv := value.Content[j], value.Content[j+1]
			if mk.Kind != yaml.ScalarNode || mv.Kind != yaml.ScalarNode {
				s.error(mk, fmt.Sprintf("expected scalar entries in attribute '%s'", key.Value))
				return
			}
			values[mk.Value] = mv.Value
		}
		target.mapping(ctx, key.Value, values)

	default:
		s.error(value, fmt.Sprintf("invalid value for attribute '%s'", key.Value))
	}
}
