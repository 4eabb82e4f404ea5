package evaluation

import (
	"fmt"

	"go.uber.org/zap"
)

// registration binds a handler to the set of steps it may route to.
type registration struct {
	handler     Handler
	allowedNext map[Step]bool
}

// Registry is the closed table of evaluation steps.
//
// It maps each step identifier to its handler and the set of legal next
// steps. The table is validated once at construction; after that, lookups
// never surprise the driver.
type Registry struct {
	steps  map[Step]registration
	logger *zap.Logger
}

// NewRegistry builds and validates the step table.
//
// Every handler in handlers must serve a distinct step, every allowed-next
// target must itself be registered or the terminal sentinel, and every
// registered step must declare at least one exit. Unreachable registered
// steps are a configuration warning, not an error: the image-analysis step
// is legitimately unreachable for image-free records.
func NewRegistry(handlers map[Step][]Step, impls []Handler, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	byStep := make(map[Step]Handler, len(impls))
	for _, h := range impls {
		if _, dup := byStep[h.Step()]; dup {
			return nil, fmt.Errorf("%w: duplicate handler for step %q", ErrConfiguration, h.Step())
		}
		byStep[h.Step()] = h
	}

	r := &Registry{
		steps:  make(map[Step]registration, len(handlers)),
		logger: logger,
	}
	for step, next := range handlers {
		h, ok := byStep[step]
		if !ok {
			return nil, fmt.Errorf("%w: no handler registered for step %q", ErrConfiguration, step)
		}
		if len(next) == 0 {
			return nil, fmt.Errorf("%w: step %q declares no exits", ErrConfiguration, step)
		}
		allowed := make(map[Step]bool, len(next))
		for _, n := range next {
			allowed[n] = true
		}
		r.steps[step] = registration{handler: h, allowedNext: allowed}
	}

	// Closed-world check: every exit target must be a registered step or the
	// terminal sentinel.
	for step, reg := range r.steps {
		for next := range reg.allowedNext {
			if next == StepTerminal {
				continue
			}
			if _, ok := r.steps[next]; !ok {
				return nil, fmt.Errorf("%w: step %q routes to unregistered step %q", ErrConfiguration, step, next)
			}
		}
	}

	for _, step := range r.unreachable() {
		logger.Warn("registered step is unreachable", zap.String("step", string(step)))
	}

	return r, nil
}

// DefaultTransitions returns the evaluation graph's transition table.
//
//	image_analyzer        -> concept_breaker
//	concept_breaker       -> human_feedback
//	human_feedback        -> human_feedback | process_feedback
//	process_feedback      -> concept_breaker | technical_feasibility
//	technical_feasibility -> operations
//	operations            -> reflection
//	reflection            -> technical_feasibility | operations | final_score
//	final_score           -> terminal
func DefaultTransitions() map[Step][]Step {
	return map[Step][]Step{
		StepImageAnalyzer:        {StepConceptBreaker},
		StepConceptBreaker:       {StepHumanFeedback},
		StepHumanFeedback:        {StepHumanFeedback, StepProcessFeedback},
		StepProcessFeedback:      {StepConceptBreaker, StepTechnicalFeasibility},
		StepTechnicalFeasibility: {StepOperations},
		StepOperations:           {StepReflection},
		StepReflection:           {StepTechnicalFeasibility, StepOperations, StepFinalScore},
		StepFinalScore:           {StepTerminal},
	}
}

// Lookup resolves a step to its handler. An unknown step means the record is
// corrupted or forged.
func (r *Registry) Lookup(step Step) (Handler, error) {
	reg, ok := r.steps[step]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
	return reg.handler, nil
}

// Route validates the next step a handler declared against the allowed-next
// set of the step that just ran. A mismatch is a configuration error, never
// silently corrected. Route is pure: it reads only its arguments.
func (r *Registry) Route(from, declared Step) (Step, error) {
	reg, ok := r.steps[from]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStep, from)
	}
	if !reg.allowedNext[declared] {
		return "", fmt.Errorf("%w: step %q declared illegal transition to %q", ErrConfiguration, from, declared)
	}
	return declared, nil
}

// unreachable returns registered steps no other step routes to. Entry steps
// (image_analyzer, concept_breaker) are excluded since records start there.
func (r *Registry) unreachable() []Step {
	targets := map[Step]bool{
		StepImageAnalyzer:  true,
		StepConceptBreaker: true,
	}
	for _, reg := range r.steps {
		for next := range reg.allowedNext {
			targets[next] = true
		}
	}
	var orphans []Step
	for step := range r.steps {
		if !targets[step] {
			orphans = append(orphans, step)
		}
	}
	return orphans
}
