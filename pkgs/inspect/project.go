package inspect

import (
	"regexp"
	"slices"
	"strings"

	"github.com/aledsdavies/cmakeparse/pkgs/ast"
)

// TargetType is the kind of build target an add_* command declares
type TargetType int

const (
	Executable TargetType = iota
	StaticLibrary
	SharedLibrary
	ModuleLibrary
	ObjectLibrary
	InterfaceLibrary
)

func (t TargetType) String() string {
	switch t {
	case Executable:
		return "executable"
	case StaticLibrary:
		return "static"
	case SharedLibrary:
		return "shared"
	case ModuleLibrary:
		return "module"
	case ObjectLibrary:
		return "object"
	case InterfaceLibrary:
		return "interface"
	default:
		return "unknown"
	}
}

var libraryTypes = map[string]TargetType{
	"STATIC":    StaticLibrary,
	"SHARED":    SharedLibrary,
	"MODULE":    ModuleLibrary,
	"OBJECT":    ObjectLibrary,
	"INTERFACE": InterfaceLibrary,
}

// DependencyKind records how a dependency was brought in
type DependencyKind int

const (
	FindPackage DependencyKind = iota
	FetchContent
	Subdirectory
)

func (k DependencyKind) String() string {
	switch k {
	case FindPackage:
		return "find_package"
	case FetchContent:
		return "fetchcontent"
	case Subdirectory:
		return "subdirectory"
	default:
		return "unknown"
	}
}

// Target is a build target with the properties later commands attach to it
type Target struct {
	Name               string
	Type               TargetType
	Sources            []string
	LinkLibraries      []string
	IncludeDirectories []string
	CompileDefinitions []string
	CompileOptions     []string
	Properties         map[string]string
	Dependencies       []string
}

// Dependency is an external package, fetched repository or subdirectory
type Dependency struct {
	Name       string
	Kind       DependencyKind
	Version    string
	Exact      bool
	Components []string
	Required   bool
	Optional   bool

	GitRepository string
	GitTag        string
}

// Option is a user-facing cache entry from option() or set(... CACHE ...)
type Option struct {
	Name        string
	Description string
	Default     string
	Type        string // BOOL, STRING, PATH, FILEPATH, INTERNAL or UNKNOWN
}

// Project is the build model read from the invocations of one file. Nothing
// is evaluated: variable references stay as written and include() or
// add_subdirectory() are not followed.
type Project struct {
	Name           string
	Version        string
	Description    string
	Languages      []string
	MinimumVersion string
	Targets        []*Target
	Dependencies   []Dependency
	Options        []Option
	Variables      map[string]string
}

// Target returns the named target or nil
func (p *Project) Target(name string) *Target {
	i := slices.IndexFunc(p.Targets, func(t *Target) bool { return t.Name == name })
	if i < 0 {
		return nil
	}
	return p.Targets[i]
}

var keywords = map[string]bool{
	"PUBLIC": true, "PRIVATE": true, "INTERFACE": true, "REQUIRED": true,
	"OPTIONAL": true, "EXACT": true, "COMPONENTS": true, "VERSION": true,
	"DESCRIPTION": true, "LANGUAGES": true, "CACHE": true, "PROPERTIES": true,
	"SYSTEM": true, "BEFORE": true, "AFTER": true,
}

func isKeyword(arg string) bool {
	return keywords[strings.ToUpper(arg)]
}

var numericVersion = regexp.MustCompile(`^[0-9.]+$`)

type projectHandler func(p *Project, args []string)

var projectHandlers = map[string]projectHandler{
	"project":                    handleProject,
	"cmake_minimum_required":     handleMinimumRequired,
	"enable_language":            handleEnableLanguage,
	"add_executable":             handleAddExecutable,
	"add_library":                handleAddLibrary,
	"target_link_libraries":      appendTo(func(t *Target) *[]string { return &t.LinkLibraries }, "PUBLIC", "PRIVATE", "INTERFACE"),
	"target_include_directories": appendTo(func(t *Target) *[]string { return &t.IncludeDirectories }, "PUBLIC", "PRIVATE", "INTERFACE", "SYSTEM", "BEFORE", "AFTER"),
	"target_compile_definitions": appendTo(func(t *Target) *[]string { return &t.CompileDefinitions }, "PUBLIC", "PRIVATE", "INTERFACE"),
	"target_compile_options":     appendTo(func(t *Target) *[]string { return &t.CompileOptions }, "PUBLIC", "PRIVATE", "INTERFACE", "BEFORE"),
	"target_sources":             appendTo(func(t *Target) *[]string { return &t.Sources }, "PUBLIC", "PRIVATE", "INTERFACE"),
	"add_dependencies":           appendTo(func(t *Target) *[]string { return &t.Dependencies }),
	"set_target_properties":      handleSetTargetProperties,
	"find_package":               handleFindPackage,
	"fetchcontent_declare":       handleFetchContentDeclare,
	"add_subdirectory":           handleAddSubdirectory,
	"option":                     handleOption,
	"set":                        handleSet,
}

// Analyze builds the project model of file. Commands that modify a target
// declared nowhere in file are ignored.
func Analyze(file *ast.File) *Project {
	p := &Project{Variables: map[string]string{}}
	for _, cmd := range Commands(file) {
		if h, ok := projectHandlers[cmd.Name]; ok && len(cmd.Args) > 0 {
			h(p, cmd.Args)
		}
	}
	return p
}

func handleProject(p *Project, args []string) {
	p.Name = args[0]
	for i := 1; i < len(args); i++ {
		switch strings.ToUpper(args[i]) {
		case "VERSION":
			if i+1 < len(args) {
				i++
				p.Version = args[i]
			}
		case "DESCRIPTION":
			if i+1 < len(args) {
				i++
				p.Description = args[i]
			}
		case "LANGUAGES":
			for i+1 < len(args) && !isKeyword(args[i+1]) {
				i++
				p.Languages = append(p.Languages, args[i])
			}
		default:
			if !isKeyword(args[i]) {
				p.Languages = append(p.Languages, args[i])
			}
		}
	}
}

func handleMinimumRequired(p *Project, args []string) {
	if p.MinimumVersion != "" {
		return
	}
	for i, arg := range args {
		if strings.EqualFold(arg, "VERSION") && i+1 < len(args) {
			p.MinimumVersion = args[i+1]
			return
		}
	}
}

func handleEnableLanguage(p *Project, args []string) {
	for _, arg := range args {
		if !strings.EqualFold(arg, "OPTIONAL") {
			p.Languages = append(p.Languages, arg)
		}
	}
}

func handleAddExecutable(p *Project, args []string) {
	p.addTarget(&Target{Name: args[0], Type: Executable, Sources: sources(args[1:])})
}

func handleAddLibrary(p *Project, args []string) {
	t := &Target{Name: args[0], Type: StaticLibrary}
	rest := args[1:]
	if len(rest) > 0 {
		if typ, ok := libraryTypes[strings.ToUpper(rest[0])]; ok {
			t.Type = typ
			rest = rest[1:]
		}
	}
	t.Sources = sources(rest)
	p.addTarget(t)
}

func sources(args []string) []string {
	var out []string
	for _, arg := range args {
		if !isKeyword(arg) {
			out = append(out, arg)
		}
	}
	return out
}

// addTarget replaces an earlier target of the same name in place
func (p *Project) addTarget(t *Target) {
	if i := slices.IndexFunc(p.Targets, func(o *Target) bool { return o.Name == t.Name }); i >= 0 {
		p.Targets[i] = t
		return
	}
	p.Targets = append(p.Targets, t)
}

// appendTo returns a handler that appends the arguments after the target
// name to one list field, skipping the given scope keywords.
func appendTo(field func(*Target) *[]string, skip ...string) projectHandler {
	return func(p *Project, args []string) {
		t := p.Target(args[0])
		if t == nil {
			return
		}
		list := field(t)
		for _, arg := range args[1:] {
			if !slices.Contains(skip, strings.ToUpper(arg)) {
				*list = append(*list, arg)
			}
		}
	}
}

func handleSetTargetProperties(p *Project, args []string) {
	at := slices.IndexFunc(args, func(s string) bool { return strings.EqualFold(s, "PROPERTIES") })
	if at < 0 {
		return
	}
	for _, name := range args[:at] {
		t := p.Target(name)
		if t == nil {
			continue
		}
		if t.Properties == nil {
			t.Properties = map[string]string{}
		}
		for i := at + 1; i+1 < len(args); i += 2 {
			t.Properties[args[i]] = args[i+1]
		}
	}
}

func handleFindPackage(p *Project, args []string) {
	d := Dependency{Name: args[0], Kind: FindPackage}
	for i := 1; i < len(args); i++ {
		switch strings.ToUpper(args[i]) {
		case "REQUIRED":
			d.Required = true
		case "OPTIONAL":
			d.Optional = true
		case "EXACT":
			d.Exact = d.Version != ""
		case "COMPONENTS":
			for i+1 < len(args) && !isKeyword(args[i+1]) {
				i++
				d.Components = append(d.Components, args[i])
			}
		default:
			if d.Version == "" && numericVersion.MatchString(args[i]) {
				d.Version = args[i]
			}
		}
	}
	p.Dependencies = append(p.Dependencies, d)
}

func handleFetchContentDeclare(p *Project, args []string) {
	d := Dependency{Name: args[0], Kind: FetchContent}
	for i := 1; i+1 < len(args); i++ {
		switch strings.ToUpper(args[i]) {
		case "GIT_REPOSITORY":
			i++
			d.GitRepository = args[i]
		case "GIT_TAG":
			i++
			d.GitTag = args[i]
			d.Version = args[i]
		}
	}
	p.Dependencies = append(p.Dependencies, d)
}

func handleAddSubdirectory(p *Project, args []string) {
	p.Dependencies = append(p.Dependencies, Dependency{Name: args[0], Kind: Subdirectory})
}

func handleOption(p *Project, args []string) {
	if len(args) < 2 {
		return
	}
	o := Option{Name: args[0], Description: args[1], Default: "OFF", Type: "BOOL"}
	if len(args) > 2 {
		o.Default = args[2]
	}
	p.Options = append(p.Options, o)
}

var cacheTypes = []string{"BOOL", "STRING", "PATH", "FILEPATH", "INTERNAL"}

func handleSet(p *Project, args []string) {
	at := slices.IndexFunc(args, func(s string) bool { return strings.EqualFold(s, "CACHE") })
	if at < 0 {
		p.Variables[args[0]] = strings.Join(args[1:], " ")
		return
	}

	o := Option{Name: args[0], Type: "STRING"}
	if at > 1 {
		o.Default = args[1]
	}
	if at+1 < len(args) {
		o.Type = strings.ToUpper(args[at+1])
		if !slices.Contains(cacheTypes, o.Type) {
			o.Type = "UNKNOWN"
		}
	}
	if at+2 < len(args) {
		o.Description = args[at+2]
	}
	p.Options = append(p.Options, o)
}
