package tinst

import (
	"runtime/debug"

	"go.uber.org/zap"
)

// Orchestrator performs single instantiation attempts. It invokes the
// selected factory, or default construction when none was selected, captures
// every failure (including panics) and validates the produced type.
//
// The Orchestrator does not cache anything and does not create enclosing
// instances; Manager drives it for that.
type Orchestrator struct {
	logger *zap.Logger
}

// NewOrchestrator creates an orchestrator that logs with logger.
// A nil logger disables logging.
func NewOrchestrator(logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{logger: logger}
}

// Instantiate makes one attempt to create an instance for the selection's
// scope. For nested scopes, outer must be the already-created enclosing
// instance; for top-level scopes it is ignored.
//
// The returned result is raw; pass it to Classify to obtain a typed error.
func (o *Orchestrator) Instantiate(sel Selection, outer any) InstantiationResult {
	scope := sel.scope
	hasOuter := scope.Nested()
	if !hasOuter {
		outer = nil
	}

	ctx := FactoryContext{
		target:   scope.typ,
		outer:    outer,
		hasOuter: hasOuter,
		scope:    scope,
	}

	instance, err := o.invoke(sel, ctx)
	result := classifyOutcome(scope.typ, sel.factory, instance, err)

	if ce := o.logger.Check(zap.DebugLevel, "instantiation attempt"); ce != nil {
		fields := []zap.Field{
			zap.Stringer("class", scope.typ),
			zap.Stringer("outcome", result.Kind),
			zap.Bool("nested", hasOuter),
		}
		if sel.factory != nil {
			fields = append(fields, zap.String("factory", FactoryNameOf(sel.factory)))
		}
		if result.Cause != nil {
			fields = append(fields, zap.Error(result.Cause))
		}
		ce.Write(fields...)
	}

	return result
}

// invoke runs the factory or default construction, converting panics into
// *PanicError values.
func (o *Orchestrator) invoke(sel Selection, ctx FactoryContext) (instance any, err error) {
	defer func() {
		if r := recover(); r != nil {
			instance = nil
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	if sel.factory != nil {
		return sel.factory.CreateInstance(ctx)
	}
	return sel.scope.construct(ctx.outer, ctx.hasOuter)
}
