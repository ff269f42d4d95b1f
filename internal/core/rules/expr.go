package rules

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// exprEvaluator compiles and caches CEL predicates.
// Programs are compiled once per expression and reused across documents.
type exprEvaluator struct {
	env      *cel.Env
	prgCache map[string]cel.Program
	mu       sync.RWMutex
}

var (
	defaultEvaluator     *exprEvaluator
	defaultEvaluatorErr  error
	defaultEvaluatorOnce sync.Once
)

// evaluator returns the process-wide expression evaluator.
func evaluator() (*exprEvaluator, error) {
	defaultEvaluatorOnce.Do(func() {
		defaultEvaluator, defaultEvaluatorErr = newExprEvaluator()
	})
	return defaultEvaluator, defaultEvaluatorErr
}

func newExprEvaluator() (*exprEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("text", cel.StringType),
		cel.Variable("words", cel.IntType),
		cel.Variable("source", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	return &exprEvaluator{
		env:      env,
		prgCache: make(map[string]cel.Program),
	}, nil
}

// program returns the cached program for expr, compiling it on first use.
func (e *exprEvaluator) program(expr string) (cel.Program, error) {
	e.mu.RLock()
	prg, hit := e.prgCache[expr]
	e.mu.RUnlock()
	if hit {
		return prg, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if prg, hit = e.prgCache[expr]; hit {
		return prg, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("compile %q: expression must be boolean, got %s", expr, ast.OutputType())
	}
	prg, err := e.env.Program(ast,
		cel.InterruptCheckFrequency(100),
		cel.CostLimit(10000),
	)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	e.prgCache[expr] = prg
	return prg, nil
}

// eval evaluates expr against the folded document.
func (e *exprEvaluator) eval(expr string, in exprInput) (bool, error) {
	prg, err := e.program(expr)
	if err != nil {
		return false, err
	}
	out, _, err := prg.Eval(map[string]any{
		"text":   in.text,
		"words":  int64(in.words),
		"source": in.source,
	})
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", expr, err)
	}
	val, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("eval %q: result not bool", expr)
	}
	return val, nil
}

// CompileExpr checks that expr is a valid boolean predicate.
func CompileExpr(expr string) error {
	ev, err := evaluator()
	if err != nil {
		return err
	}
	_, err = ev.program(expr)
	return err
}

type exprInput struct {
	text   string
	words  int
	source string
}
