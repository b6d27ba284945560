package tinst

// OutcomeKind tags the raw outcome of a single instantiation attempt.
type OutcomeKind int

const (
	// OutcomeSuccess means an instance of the expected type was produced.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeNull means nil was produced.
	OutcomeNull
	// OutcomeTypeMismatch means an instance of a different type was produced.
	OutcomeTypeMismatch
	// OutcomeThrown means the factory or constructor failed.
	OutcomeThrown
)

// String returns a short name for the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeNull:
		return "null"
	case OutcomeTypeMismatch:
		return "type-mismatch"
	case OutcomeThrown:
		return "thrown"
	default:
		return "unknown"
	}
}

// InstantiationResult is the raw, unclassified outcome of one attempt to
// create an instance for a scope.
type InstantiationResult struct {
	Kind     OutcomeKind
	Instance any
	Target   TypeID
	Actual   TypeID
	Cause    error
	Factory  FactoryExtension // nil for default construction
}

// OK reports whether the attempt produced a valid instance.
func (r InstantiationResult) OK() bool {
	return r.Kind == OutcomeSuccess
}

// classifyOutcome turns what a factory or constructor produced into a result.
func classifyOutcome(target TypeID, factory FactoryExtension, instance any, err error) InstantiationResult {
	r := InstantiationResult{Target: target, Factory: factory}
	switch {
	case err != nil:
		r.Kind = OutcomeThrown
		r.Cause = err
	case isNil(instance):
		r.Kind = OutcomeNull
	default:
		r.Actual = TypeOf(instance)
		if r.Actual != target {
			r.Kind = OutcomeTypeMismatch
		} else {
			r.Kind = OutcomeSuccess
			r.Instance = instance
		}
	}
	return r
}
