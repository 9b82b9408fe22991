package llvm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vais-lang/vais/internal/core"
	"github.com/vais-lang/vais/internal/mono"
	"github.com/vais-lang/vais/internal/types"
)

// Emitter lowers a core.Program, plus the declaration registries and
// monomorphization tracker the earlier stages built, into one LLVM IR
// text module (spec §5 "IR Emitter Core").
type Emitter struct {
	builder strings.Builder

	reg  *types.Registries
	mono *mono.Tracker

	enumTags        map[string]map[string]int // enum name -> variant name -> tag
	enumPayloadSize map[string]int            // enum name -> max payload bytes
	stringConsts    map[string]string         // literal content -> global name
	structDone      map[string]bool
	enumDone        map[string]bool

	regCounter      int
	curFunc         *core.FuncDef
	curEmittedName  string
	curLabel        string            // label of the basic block currently being written
	locals          map[string]string // surface name -> alloca/field pointer
	localTypes      map[string]string // surface name -> pointee LLVM type, for closure capture analysis
	breakTargets    []string
	continueTargets []string
	breakPhis       [][]phiIncoming // per-enclosing-loop break (value, exit label) pairs, for the loop-exit phi

	closureCounter  int
	pendingClosures []*liftedClosure // closure bodies lambda-lifted during lowering, emitted after the current function
}

// NewEmitter creates an emitter over the registries and monomorphization
// tracker produced by internal/types and internal/mono.
func NewEmitter(reg *types.Registries, tracker *mono.Tracker) *Emitter {
	e := &Emitter{
		reg:             reg,
		mono:            tracker,
		enumTags:        make(map[string]map[string]int),
		enumPayloadSize: make(map[string]int),
		stringConsts:    make(map[string]string),
		structDone:      make(map[string]bool),
		enumDone:        make(map[string]bool),
	}
	for name, info := range reg.Enums {
		tags := make(map[string]int, len(info.Variants))
		for i, v := range info.Variants {
			tags[v.Name] = i
		}
		e.enumTags[name] = tags
	}
	return e
}

func (e *Emitter) emit(line string) {
	e.builder.WriteString(line)
	e.builder.WriteString("\n")
}

func (e *Emitter) emitf(format string, args ...interface{}) {
	e.emit(fmt.Sprintf(format, args...))
}

func (e *Emitter) nextReg() string {
	e.regCounter++
	return fmt.Sprintf("%%t%d", e.regCounter)
}

// Emit lowers prog to a complete .ll text module. Section order:
// external declarations, string globals, type definitions (non-generic
// structs, then non-generic enums, each group alphabetized by name),
// then function definitions (non-generic functions alphabetized by
// name, then recorded function specializations and then recorded method
// specializations, each alphabetized by mangled name). No type
// definitions are emitted for specialized generic structs or enums.
// String literals are only discovered while a function body
// is walked, so function text is lowered into a scratch buffer first
// and spliced in after the sections that must precede it.
func (e *Emitter) Emit(prog *core.Program) (string, error) {
	e.regCounter = 0

	byName := make(map[string]*core.FuncDef, len(prog.Funcs))
	for _, fn := range prog.Funcs {
		byName[fn.Name] = fn
	}

	ordered := make([]*core.FuncDef, 0, len(prog.Funcs))
	for _, fn := range prog.Funcs {
		if len(fn.Generics) == 0 {
			ordered = append(ordered, fn)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })

	var specialized []*mono.Instantiation
	if e.mono != nil {
		specialized = mono.SortedByMangledName(e.mono.ByKind(types.KindFunction))
		specialized = append(specialized, mono.SortedByMangledName(e.mono.ByKind(types.KindMethod))...)
	}

	e.builder.Reset()
	for _, fn := range ordered {
		if err := e.emitFunction(fn.Name, fn); err != nil {
			return "", err
		}
	}
	for _, inst := range specialized {
		fn, ok := byName[inst.BaseName]
		if !ok {
			continue
		}
		if err := e.emitFunction(inst.MangledName, fn); err != nil {
			return "", err
		}
	}
	funcText := e.builder.String()

	e.builder.Reset()
	e.emitModuleHeader()
	e.emitStringConstants()
	if err := e.emitStructDefs(); err != nil {
		return "", err
	}
	if err := e.emitEnumDefs(); err != nil {
		return "", err
	}
	e.builder.WriteString(funcText)

	return e.builder.String(), nil
}

func (e *Emitter) emitModuleHeader() {
	e.emit("; ModuleID = 'vais'")
	e.emit(`source_filename = "vais"`)
	e.emit(`target triple = "x86_64-unknown-linux-gnu"`)
	e.emit("")
	e.emit("declare i8* @malloc(i64)")
	e.emit("declare void @free(i8*)")
	e.emit("declare i32 @puts(i8*)")
	e.emit("")
}

func (e *Emitter) emitStructDefs() error {
	names := make([]string, 0, len(e.reg.Structs))
	for name, info := range e.reg.Structs {
		if len(info.Generics) == 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	e.emit("; struct definitions")
	for _, name := range names {
		info := e.reg.Structs[name]
		fieldTypes := make([]string, len(info.Fields))
		for i, f := range info.Fields {
			ft, err := e.mapType(f.Type)
			if err != nil {
				return fmt.Errorf("struct %s field %s: %w", name, f.Name, err)
			}
			fieldTypes[i] = ft
		}
		e.emitf("%%struct.%s = type { %s }", sanitizeName(name), strings.Join(fieldTypes, ", "))
		e.structDone[name] = true
	}
	e.emit("")
	return nil
}

func (e *Emitter) emitEnumDefs() error {
	names := make([]string, 0, len(e.reg.Enums))
	for name, info := range e.reg.Enums {
		if len(info.Generics) == 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	e.emit("; enum definitions")
	for _, name := range names {
		info := e.reg.Enums[name]
		maxPayload := 0
		for _, v := range info.Variants {
			size := 0
			for range v.Payload {
				size += 8
			}
			if size > maxPayload {
				maxPayload = size
			}
		}
		// { i32 tag, [N x i8] payload }
		e.emitf("%%enum.%s = type { i32, [%d x i8] }", sanitizeName(name), maxPayload)
		e.enumPayloadSize[name] = maxPayload
		e.enumDone[name] = true
	}
	e.emit("")
	return nil
}

func (e *Emitter) stringConstName(content string) string {
	if name, ok := e.stringConsts[content]; ok {
		return name
	}
	name := fmt.Sprintf("@.str.%d", len(e.stringConsts))
	e.stringConsts[content] = name
	return name
}

func (e *Emitter) emitStringConstants() {
	if len(e.stringConsts) == 0 {
		return
	}
	contents := make([]string, 0, len(e.stringConsts))
	for c := range e.stringConsts {
		contents = append(contents, c)
	}
	sort.Strings(contents)
	e.emit("; string constants")
	for _, content := range contents {
		name := e.stringConsts[content]
		escaped, length := escapeStringForLLVM(content)
		e.emitf(`%s = private constant [%d x i8] c"%s\00", align 1`, name, length, escaped)
	}
	e.emit("")
}

// escapeStringForLLVM renders s as an LLVM string-literal body and
// returns the array length of the backing global, which must include
// the trailing NUL the grammar mandates (spec §6 "@.str.<n> = private
// constant [<N> x i8] c\"…\\00\"").
func escapeStringForLLVM(s string) (string, int) {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b >= 32 && b < 127 && b != '"' && b != '\\' {
			sb.WriteByte(b)
		} else {
			fmt.Fprintf(&sb, "\\%02X", b)
		}
	}
	return sb.String(), len(s) + 1
}
