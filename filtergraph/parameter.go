package filtergraph

// ParamType tags which field of a Parameter is live, the same
// tagged-union-of-all-types shape the teacher uses for its HTTP
// payloads (generichttp.HumanPayload) rather than an interface{} value.
type ParamType int

const (
	ParamBool ParamType = iota
	ParamInt
	ParamFloat
	ParamString
	ParamFilename
	ParamEnum
)

// Parameter is a single typed, named filter setting (spec.md §4.2). Enum
// parameters carry a bidirectional name<->integer map so a decoder can
// store a compact int while the UI and config layers deal in names.
type Parameter struct {
	typ ParamType

	boolVal   bool
	intVal    int64
	floatVal  float64
	stringVal string

	enumNameToValue map[string]int64
	enumValueToName map[int64]string

	// version is bumped on every Set call. Callers that need to react to
	// a parameter change poll this rather than registering a callback,
	// so a refresh can't re-enter while a change is still being applied.
	version uint64
}

func NewBoolParameter(v bool) *Parameter     { return &Parameter{typ: ParamBool, boolVal: v} }
func NewIntParameter(v int64) *Parameter     { return &Parameter{typ: ParamInt, intVal: v} }
func NewFloatParameter(v float64) *Parameter { return &Parameter{typ: ParamFloat, floatVal: v} }
func NewStringParameter(v string) *Parameter { return &Parameter{typ: ParamString, stringVal: v} }
func NewFilenameParameter(v string) *Parameter {
	return &Parameter{typ: ParamFilename, stringVal: v}
}

// NewEnumParameter creates an enum parameter with no values registered
// yet; call AddEnumValue to populate the name<->value map before Set.
func NewEnumParameter(initial int64) *Parameter {
	return &Parameter{
		typ:             ParamEnum,
		intVal:          initial,
		enumNameToValue: make(map[string]int64),
		enumValueToName: make(map[int64]string),
	}
}

// AddEnumValue registers one name/value pair of an enum parameter.
func (p *Parameter) AddEnumValue(name string, value int64) {
	p.enumNameToValue[name] = value
	p.enumValueToName[value] = name
}

func (p *Parameter) Type() ParamType { return p.typ }
func (p *Parameter) Version() uint64 { return p.version }

func (p *Parameter) Bool() bool { return p.boolVal }
func (p *Parameter) SetBool(v bool) {
	p.boolVal = v
	p.version++
}

func (p *Parameter) Int() int64 { return p.intVal }
func (p *Parameter) SetInt(v int64) {
	p.intVal = v
	p.version++
}

func (p *Parameter) Float() float64 { return p.floatVal }
func (p *Parameter) SetFloat(v float64) {
	p.floatVal = v
	p.version++
}

func (p *Parameter) String() string { return p.stringVal }
func (p *Parameter) SetString(v string) {
	p.stringVal = v
	p.version++
}

// EnumName returns the name registered for the parameter's current value.
func (p *Parameter) EnumName() (string, bool) {
	name, ok := p.enumValueToName[p.intVal]
	return name, ok
}

// SetEnumByName sets the parameter's value to the one registered under
// name, returning false if name was never registered via AddEnumValue.
func (p *Parameter) SetEnumByName(name string) bool {
	v, ok := p.enumNameToValue[name]
	if !ok {
		return false
	}
	p.intVal = v
	p.version++
	return true
}
