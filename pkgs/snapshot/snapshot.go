// Package snapshot serializes syntax trees to canonical CBOR and computes
// structural fingerprints.
//
// A snapshot keeps everything the parser produced, spans included, so a
// decoded tree is interchangeable with a fresh parse. A fingerprint covers
// only structure: node kinds, names, decoded values and order.
package snapshot

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/aledsdavies/cmakeparse/pkgs/ast"
	"github.com/aledsdavies/cmakeparse/pkgs/lexer"
)

// Version is the snapshot format version
const Version uint8 = 1

// ErrVersion is returned when decoding a snapshot of another format version
var ErrVersion = errors.New("unsupported snapshot version")

// Snapshot is the serialized form of a File
type Snapshot struct {
	Version  uint8
	Commands []Command
	Comments []Comment
	Span     Span
}

// Command is the serialized form of a CommandInvocation
type Command struct {
	Name      string
	NameSpan  Span
	Args      []Arg
	Span      Span
	Recovered bool
}

// Arg is a union of single and compound arguments
type Arg struct {
	Type string // "single" or "compound"

	// single
	Kind  uint8
	Value string
	Raw   string
	Level int

	// compound
	Args      []Arg
	Recovered bool

	Span Span
}

// Comment is the serialized form of an ast.Comment
type Comment struct {
	Text    string
	Bracket bool
	Span    Span
}

// Span is encoded as a six-element array
type Span struct {
	_         struct{} `cbor:",toarray"`
	StartLine int
	StartCol  int
	StartOff  int
	EndLine   int
	EndCol    int
	EndOff    int
}

const (
	typeSingle   = "single"
	typeCompound = "compound"
)

func fromSpan(s lexer.Span) Span {
	return Span{
		StartLine: s.Start.Line, StartCol: s.Start.Column, StartOff: s.Start.Offset,
		EndLine: s.End.Line, EndCol: s.End.Column, EndOff: s.End.Offset,
	}
}

func (s Span) toSpan() lexer.Span {
	return lexer.Span{
		Start: lexer.Position{Line: s.StartLine, Column: s.StartCol, Offset: s.StartOff},
		End:   lexer.Position{Line: s.EndLine, Column: s.EndCol, Offset: s.EndOff},
	}
}

// Build converts file into its snapshot form. With full unset, spans, source
// spelling, comments and recovery flags are left out, keeping only structure.
func Build(file *ast.File, full bool) *Snapshot {
	b := &builder{full: full, snap: &Snapshot{Version: Version}}
	ast.Walk(b, file)
	return b.snap
}

// builder assembles a Snapshot from listener callbacks
type builder struct {
	ast.BaseListener
	full  bool
	snap  *Snapshot
	cmd   Command
	stack []Arg // open compound arguments
}

func (b *builder) span(s lexer.Span) Span {
	if !b.full {
		return Span{}
	}
	return fromSpan(s)
}

func (b *builder) add(a Arg) {
	if n := len(b.stack); n > 0 {
		b.stack[n-1].Args = append(b.stack[n-1].Args, a)
		return
	}
	b.cmd.Args = append(b.cmd.Args, a)
}

func (b *builder) EnterFile(f *ast.File) {
	b.snap.Span = b.span(f.Loc)
	if b.full {
		for _, c := range f.Comments {
			b.snap.Comments = append(b.snap.Comments, Comment{Text: c.Text, Bracket: c.Bracket, Span: fromSpan(c.Loc)})
		}
	}
}

func (b *builder) EnterCommandInvocation(c *ast.CommandInvocation) {
	b.cmd = Command{Name: c.Name, NameSpan: b.span(c.NameLoc), Span: b.span(c.Loc)}
	if b.full {
		b.cmd.Recovered = c.Recovered
	}
}

func (b *builder) ExitCommandInvocation(*ast.CommandInvocation) {
	b.snap.Commands = append(b.snap.Commands, b.cmd)
	b.cmd = Command{}
}

func (b *builder) EnterSingleArgument(s *ast.SingleArgument) {
	a := Arg{Type: typeSingle, Kind: uint8(s.Kind), Value: s.Value, Span: b.span(s.Loc)}
	if b.full {
		a.Raw = s.Raw
		a.Level = s.Level
	}
	b.add(a)
}

func (b *builder) EnterCompoundArgument(c *ast.CompoundArgument) {
	a := Arg{Type: typeCompound, Span: b.span(c.Loc)}
	if b.full {
		a.Recovered = c.Recovered
	}
	b.stack = append(b.stack, a)
}

func (b *builder) ExitCompoundArgument(*ast.CompoundArgument) {
	n := len(b.stack)
	a := b.stack[n-1]
	b.stack = b.stack[:n-1]
	b.add(a)
}

// MarshalBinary produces deterministic CBOR encoding of the snapshot
func (s *Snapshot) MarshalBinary() ([]byte, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}

	// Alias to keep cbor from calling MarshalBinary recursively.
	type snapshotAlias Snapshot
	data, err := encMode.Marshal((*snapshotAlias)(s))
	if err != nil {
		return nil, fmt.Errorf("CBOR encoding failed: %w", err)
	}
	return data, nil
}

// UnmarshalBinary decodes a snapshot and checks its version
func (s *Snapshot) UnmarshalBinary(data []byte) error {
	decMode, err := cbor.DecOptions{
		MaxNestedLevels:  65535,
		MaxArrayElements: 1<<31 - 1,
		MaxMapPairs:      1<<31 - 1,
	}.DecMode()
	if err != nil {
		return fmt.Errorf("failed to create CBOR decoder: %w", err)
	}

	type snapshotAlias Snapshot
	var alias snapshotAlias
	if err := decMode.Unmarshal(data, &alias); err != nil {
		return fmt.Errorf("CBOR decoding failed: %w", err)
	}
	if alias.Version != Version {
		return fmt.Errorf("%w: %d (want %d)", ErrVersion, alias.Version, Version)
	}
	*s = Snapshot(alias)
	return nil
}

// Encode serializes file, spans and comments included
func Encode(file *ast.File) ([]byte, error) {
	return Build(file, true).MarshalBinary()
}

// Decode rebuilds a tree from Encode output
func Decode(data []byte) (*ast.File, error) {
	var s Snapshot
	if err := s.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return s.File()
}

// File converts the snapshot back into a syntax tree
func (s *Snapshot) File() (*ast.File, error) {
	file := &ast.File{Loc: s.Span.toSpan()}
	for _, c := range s.Comments {
		file.Comments = append(file.Comments, ast.Comment{Text: c.Text, Bracket: c.Bracket, Loc: c.Span.toSpan()})
	}
	for i, c := range s.Commands {
		args, err := toArguments(c.Args)
		if err != nil {
			return nil, fmt.Errorf("command %d (%s): %w", i, c.Name, err)
		}
		file.Commands = append(file.Commands, &ast.CommandInvocation{
			Name:      c.Name,
			NameLoc:   c.NameSpan.toSpan(),
			Arguments: args,
			Loc:       c.Span.toSpan(),
			Recovered: c.Recovered,
		})
	}
	return file, nil
}

func toArguments(args []Arg) ([]ast.Argument, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]ast.Argument, len(args))
	for i, a := range args {
		switch a.Type {
		case typeSingle:
			if a.Kind > uint8(ast.Bracket) {
				return nil, fmt.Errorf("argument %d: unknown kind %d", i, a.Kind)
			}
			out[i] = &ast.SingleArgument{
				Kind:  ast.ArgumentKind(a.Kind),
				Value: a.Value,
				Raw:   a.Raw,
				Level: a.Level,
				Loc:   a.Span.toSpan(),
			}
		case typeCompound:
			children, err := toArguments(a.Args)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			out[i] = &ast.CompoundArgument{Arguments: children, Loc: a.Span.toSpan(), Recovered: a.Recovered}
		default:
			return nil, fmt.Errorf("argument %d: unknown type %q", i, a.Type)
		}
	}
	return out, nil
}

// Fingerprint computes the BLAKE2b-256 hash of the structure of file.
// Trees that differ only in positions, source spelling of arguments or
// comments share a fingerprint.
func Fingerprint(file *ast.File) ([32]byte, error) {
	data, err := Build(file, false).MarshalBinary()
	if err != nil {
		return [32]byte{}, err
	}
	return blake2b.Sum256(data), nil
}

// Digest returns the fingerprint of file as "blake2b:<hex>"
func Digest(file *ast.File) (string, error) {
	sum, err := Fingerprint(file)
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint tree: %w", err)
	}
	return fmt.Sprintf("blake2b:%x", sum), nil
}
