package repair

import (
	"go.uber.org/zap"
)

// DefaultMaxAttempts bounds the validate-fix loop
const DefaultMaxAttempts = 2

// Validator checks one property of generated code. A nil return means
// the code passes.
type Validator interface {
	Validate(code string) error
}

// Fixer rewrites code in response to the latest validation error.
// Fixers run in order, each consuming the previous fixer's output.
type Fixer interface {
	Fix(code string, validationErr string) string
}

// Result is the outcome of a repair run. Validation failures live in
// Errors; the pipeline itself never fails.
type Result struct {
	Code     string
	Attempts int
	Errors   []string
}

// Pipeline runs a bounded validate-fix loop over generated code
type Pipeline struct {
	maxAttempts int
	validators  []Validator
	fixers      []Fixer
	logger      *zap.Logger
}

// New creates a pipeline. A negative maxAttempts selects the default.
func New(maxAttempts int, validators []Validator, fixers []Fixer, logger *zap.Logger) *Pipeline {
	if maxAttempts < 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Pipeline{
		maxAttempts: maxAttempts,
		validators:  validators,
		fixers:      fixers,
		logger:      logger,
	}
}

// Run validates and repairs code. It terminates within maxAttempts+1
// validation rounds: each round either passes (return with the round's
// attempt count) or consumes one fix cycle; the last round returns the
// unfixed code together with every recorded error.
func (p *Pipeline) Run(code string) Result {
	errs := []string{}
	current := code

	for attempt := 0; attempt <= p.maxAttempts; attempt++ {
		err := p.validate(current)
		if err == nil {
			return Result{Code: current, Attempts: attempt, Errors: errs}
		}

		errs = append(errs, err.Error())
		p.logger.Debug("validation failed",
			zap.Int("attempt", attempt),
			zap.String("error", err.Error()),
		)

		if attempt == p.maxAttempts {
			break
		}
		current = p.applyFixers(current, err.Error())
	}

	return Result{Code: current, Attempts: p.maxAttempts, Errors: errs}
}

func (p *Pipeline) validate(code string) error {
	for _, v := range p.validators {
		if err := v.Validate(code); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) applyFixers(code, validationErr string) string {
	current := code
	for _, f := range p.fixers {
		current = f.Fix(current, validationErr)
	}
	return current
}
