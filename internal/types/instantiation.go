package types

// InstantiationKind tags what a recorded instantiation specializes
// (spec §3 "GenericInstantiation").
type InstantiationKind string

const (
	KindFunction InstantiationKind = "function"
	KindStruct   InstantiationKind = "struct"
	KindEnum     InstantiationKind = "enum"
	KindMethod   InstantiationKind = "method"
)

// InstantiationSink is the narrow interface the type checker uses to
// record a discovered generic instantiation; the IR emitter does not
// record through it. internal/mono.Tracker implements it; types does not
// import mono to avoid a dependency cycle (mono needs types.Type).
type InstantiationSink interface {
	Record(baseName string, kind InstantiationKind, args []Type) (mangledName string)
}
