package autosplit

import (
	"fmt"
	"strings"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
	celgo "github.com/google/cel-go/cel"
)

// Condition languages accepted by rules modules.
const (
	RulesLanguageExpr = "expr"
	RulesLanguageCEL  = "cel"
)

// condition is one compiled rules expression.
type condition interface {
	eval(env map[string]any) (any, error)
}

// conditionCompiler compiles expressions against a fixed set of variables.
type conditionCompiler interface {
	compile(expression string) (condition, error)
}

func newConditionCompiler(language string, variables []string, cache ProgramCache) (conditionCompiler, error) {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "", RulesLanguageExpr:
		return &exprCompiler{cache: cache, scope: strings.Join(variables, ",")}, nil
	case RulesLanguageCEL:
		env, err := celEnvironment(variables)
		if err != nil {
			return nil, err
		}
		return &celCompiler{cache: cache, env: env, scope: strings.Join(variables, ",")}, nil
	default:
		return nil, fmt.Errorf("unsupported condition language %q", language)
	}
}

type exprCompiler struct {
	cache ProgramCache
	scope string
}

func (c *exprCompiler) compile(expression string) (condition, error) {
	key := "rules:expr:" + c.scope + ":" + expression
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return exprCondition{program: program}, nil
			}
		}
	}
	program, err := exprlang.Compile(expression,
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expression, err)
	}
	if c.cache != nil {
		c.cache.Set(key, program)
	}
	return exprCondition{program: program}, nil
}

type exprCondition struct {
	program *exprvm.Program
}

func (c exprCondition) eval(env map[string]any) (any, error) {
	return exprlang.Run(c.program, env)
}

type celCompiler struct {
	cache ProgramCache
	env   *celgo.Env
	scope string
}

func celEnvironment(variables []string) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.CrossTypeNumericComparisons(true),
		celgo.Variable("settings", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("state", celgo.IntType),
	}
	for _, name := range variables {
		opts = append(opts, celgo.Variable(name, celgo.MapType(celgo.StringType, celgo.DynType)))
	}
	return celgo.NewEnv(opts...)
}

func (c *celCompiler) compile(expression string) (condition, error) {
	key := "rules:cel:" + c.scope + ":" + expression
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			if program, ok := cached.(celgo.Program); ok {
				return celCondition{program: program}, nil
			}
		}
	}
	ast, issues := c.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expression, issues.Err())
	}
	program, err := c.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expression, err)
	}
	if c.cache != nil {
		c.cache.Set(key, program)
	}
	return celCondition{program: program}, nil
}

type celCondition struct {
	program celgo.Program
}

func (c celCondition) eval(env map[string]any) (any, error) {
	out, _, err := c.program.Eval(env)
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}
