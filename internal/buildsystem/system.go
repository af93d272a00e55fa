package buildsystem

import (
	"fmt"
	"strings"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/engine"
)

// internalSchemaVersion is merged with the client version to form the
// build database schema identifier.
const internalSchemaVersion uint32 = 1

// BuildSystem interprets a declarative build description by projecting
// targets, nodes and commands onto engine rules. It owns the BuildFile
// and all of its nodes, commands, targets and tools; the engine borrows
// them through rule closures for the duration of a build.
type BuildSystem struct {
	delegate     Delegate
	mainFilename string
	loader       FileLoader

	buildFile *BuildFile
	engine    *engine.BuildEngine

	// executionQueue is only valid while a build is in progress.
	executionQueue ports.ExecutionQueue

	// dynamicNodes holds nodes minted on demand for names absent from
	// the manifest.
	dynamicNodes map[domain.InternedString]*BuildNode

	// customCommands owns the commands produced by tools for custom
	// task keys.
	customCommands []Command
}

// New creates a build system for the given main build file.
func New(delegate Delegate, mainFilename string, loader FileLoader) *BuildSystem {
	s := &BuildSystem{
		delegate:     delegate,
		mainFilename: mainFilename,
		loader:       loader,
		dynamicNodes: make(map[domain.InternedString]*BuildNode),
	}
	s.engine = engine.New(s)
	return s
}

// Delegate returns the client delegate.
func (s *BuildSystem) Delegate() Delegate { return s.delegate }

// MainFilename returns the name of the main build file.
func (s *BuildSystem) MainFilename() string { return s.mainFilename }

// BuildFile returns the loaded build description, or nil before the
// first build.
func (s *BuildSystem) BuildFile() *BuildFile { return s.buildFile }

// SchemaVersion merges the internal schema version with the client's
// 16-bit version into the database schema identifier.
func (s *BuildSystem) SchemaVersion() uint32 {
	return internalSchemaVersion + (s.delegate.Version() << 16)
}

// AttachDB binds the persistence backend. The backend has verified its
// schema version against SchemaVersion on open.
func (s *BuildSystem) AttachDB(db ports.BuildDB) error {
	return s.engine.AttachDB(db)
}

// EnableTracing opens an engine trace sink at path.
func (s *BuildSystem) EnableTracing(path string) error {
	return s.engine.EnableTracing(path)
}

// Close flushes the engine's trace sink.
func (s *BuildSystem) Close() error {
	return s.engine.Close()
}

// Build builds the named target and reports overall success. Errors
// surface through the delegate; a false return means the build could
// not run to completion (load failure, cycle, or database failure).
func (s *BuildSystem) Build(target string) bool {
	if s.buildFile == nil {
		buildFile, ok := s.loader.Load(s.mainFilename, s.delegate)
		if !ok {
			s.Error(s.mainFilename, "unable to load build file")
			return false
		}
		s.buildFile = buildFile
	}

	s.executionQueue = s.delegate.CreateExecutionQueue()

	_, err := s.engine.Build(MakeTargetKey(target).ToData())

	// Release the queue, implicitly waiting for in-flight jobs to
	// deliver their completions (e.g. command-finished notifications).
	s.executionQueue.Shutdown()
	s.executionQueue = nil

	return err == nil
}

// Error reports a diagnostic without a token position. An empty
// filename reports against the main build file.
func (s *BuildSystem) Error(filename, message string) {
	if filename == "" {
		filename = s.mainFilename
	}
	s.delegate.Error(filename, domain.Token{}, message)
}

// LookupRule resolves an engine key to its rule. This is the
// projection table from build description concepts onto the engine.
func (s *BuildSystem) LookupRule(keyData engine.KeyType) engine.Rule {
	key, err := BuildKeyFromData(keyData)
	if err != nil {
		s.Error("", fmt.Sprintf("invalid build key '%s'", string(keyData)))
		return s.missingCommandRule(keyData)
	}

	switch key.Kind {
	case KeyKindCommand:
		command, ok := s.buildFile.Commands[domain.NewInternedString(key.Name)]
		if !ok {
			// The command is gone from the manifest; force dependents to
			// rebuild and observe the absence.
			return s.missingCommandRule(keyData)
		}
		return s.commandRule(keyData, command)

	case KeyKindCustomTask:
		// Scan tools in registration order for one that claims the
		// payload; the first to return a command wins.
		for _, toolName := range s.buildFile.ToolOrder {
			command := s.buildFile.Tools[toolName].CreateCustomCommand(key)
			if command == nil {
				continue
			}
			s.customCommands = append(s.customCommands, command)
			return s.commandRule(keyData, command)
		}
		return s.missingCommandRule(keyData)

	case KeyKindNode:
		node := s.lookupNodeForKey(key.Name)
		if len(node.Producers()) == 0 {
			return engine.Rule{
				Key: keyData,
				CreateTask: func(*engine.BuildEngine) engine.Task {
					return &inputNodeTask{system: s, node: node}
				},
				IsValid: func(data engine.ValueType) bool {
					return inputNodeIsResultValid(s, node, valueFromData(data))
				},
			}
		}
		return engine.Rule{
			Key: keyData,
			CreateTask: func(*engine.BuildEngine) engine.Task {
				return &producedNodeTask{system: s, node: node}
			},
			IsValid: func(data engine.ValueType) bool {
				// A failed result must rebuild so the error is reproduced.
				return !valueFromData(data).IsFailedInput()
			},
		}

	case KeyKindTarget:
		target, ok := s.buildFile.Targets[domain.NewInternedString(key.Name)]
		if !ok {
			s.Error("", fmt.Sprintf("unknown target '%s'", key.Name))
			return s.missingCommandRule(keyData)
		}
		return engine.Rule{
			Key: keyData,
			CreateTask: func(*engine.BuildEngine) engine.Task {
				return &targetTask{system: s, target: target}
			},
			// Target results are never reused: the target re-visits its
			// nodes every build while their results stay cached.
			IsValid: nil,
		}
	}

	s.Error("", fmt.Sprintf("invalid build key '%s'", string(keyData)))
	return s.missingCommandRule(keyData)
}

func (s *BuildSystem) commandRule(keyData engine.KeyType, command Command) engine.Rule {
	return engine.Rule{
		Key: keyData,
		CreateTask: func(*engine.BuildEngine) engine.Task {
			return &commandTask{system: s, command: command}
		},
		IsValid: func(data engine.ValueType) bool {
			return command.IsResultValid(s, valueFromData(data))
		},
	}
}

func (s *BuildSystem) missingCommandRule(keyData engine.KeyType) engine.Rule {
	return engine.Rule{
		Key: keyData,
		CreateTask: func(*engine.BuildEngine) engine.Task {
			return &missingCommandTask{}
		},
		// The cached result for a missing command is never valid.
		IsValid: nil,
	}
}

// lookupNodeForKey resolves a node name to its declared node, a
// previously minted dynamic node, or a freshly minted implicit one.
func (s *BuildSystem) lookupNodeForKey(name string) *BuildNode {
	if node := s.buildFile.GetNode(name); node != nil {
		return node
	}

	key := domain.NewInternedString(name)
	if node, ok := s.dynamicNodes[key]; ok {
		return node
	}

	node := lookupNode(name)
	s.dynamicNodes[key] = node
	return node
}

// CycleDetected formats the rule chain and reports it against the main
// build file.
func (s *BuildSystem) CycleDetected(cycle []engine.Rule) {
	var sb strings.Builder
	sb.WriteString("cycle detected while building: ")
	for i, rule := range cycle {
		if i > 0 {
			sb.WriteString(" -> ")
		}
		key, err := BuildKeyFromData(rule.Key)
		if err != nil {
			sb.WriteString("((unknown))")
			continue
		}
		switch key.Kind {
		case KeyKindCommand:
			fmt.Fprintf(&sb, "command '%s'", key.Name)
		case KeyKindCustomTask:
			fmt.Fprintf(&sb, "custom task '%s'", key.Name)
		case KeyKindNode:
			fmt.Fprintf(&sb, "node '%s'", key.Name)
		case KeyKindTarget:
			fmt.Fprintf(&sb, "target '%s'", key.Name)
		}
	}

	s.Error(s.mainFilename, sb.String())
}

// TaskNeedsInput implements CommandInterface.
func (s *BuildSystem) TaskNeedsInput(task engine.Task, key BuildKey, inputID uint) {
	s.engine.TaskNeedsInput(task, key.ToData(), inputID)
}

// TaskMustFollow implements CommandInterface.
func (s *BuildSystem) TaskMustFollow(task engine.Task, key BuildKey) {
	s.engine.TaskMustFollow(task, key.ToData())
}

// TaskDiscoveredDependency implements CommandInterface.
func (s *BuildSystem) TaskDiscoveredDependency(task engine.Task, key BuildKey) {
	s.engine.TaskDiscoveredDependency(task, key.ToData())
}

// TaskIsComplete implements CommandInterface.
func (s *BuildSystem) TaskIsComplete(task engine.Task, value BuildValue, forceChange bool) {
	s.engine.TaskIsComplete(task, value.ToData(), forceChange)
}

// AddJob implements CommandInterface.
func (s *BuildSystem) AddJob(job ports.QueueJob) {
	s.executionQueue.AddJob(job)
}

// ExecutionQueue implements CommandInterface.
func (s *BuildSystem) ExecutionQueue() ports.ExecutionQueue {
	return s.executionQueue
}
