package dice

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vttforge/areatrigger/internal/errors"
)

// EvalResult contains the outcome of evaluating a roll formula
type EvalResult struct {
	Total  int
	Rolls  []int  // Every die rolled, in order
	Detail string // Human-readable breakdown, e.g. "2d6 [4 2] + 3"
}

// Evaluator evaluates roll formulas like "2d6+3" or "1d8 + prof - 1".
// Terms are separated by + or - and each term is either a dice term (NdS),
// an integer literal, or a variable resolved from the caller's bindings.
type Evaluator struct {
	roller Roller
}

// NewEvaluator creates a formula evaluator backed by the given roller
func NewEvaluator(roller Roller) *Evaluator {
	if roller == nil {
		panic("roller is required")
	}
	return &Evaluator{roller: roller}
}

// Evaluate evaluates a formula against the given variable bindings.
// A leading "@" on a variable name is accepted and ignored so formulas
// written in the host application's "@abilities.dex.mod" style still resolve.
func (e *Evaluator) Evaluate(formula string, vars map[string]int) (*EvalResult, error) {
	terms, signs, err := splitTerms(formula)
	if err != nil {
		return nil, err
	}

	result := &EvalResult{}
	var detail []string

	for i, term := range terms {
		sign := signs[i]

		value, rolls, termDetail, err := e.evaluateTerm(term, vars)
		if err != nil {
			return nil, err
		}

		result.Total += sign * value
		result.Rolls = append(result.Rolls, rolls...)

		if i == 0 && sign == -1 {
			termDetail = "-" + termDetail
		} else if i > 0 {
			op := "+"
			if sign == -1 {
				op = "-"
			}
			termDetail = op + " " + termDetail
		}
		detail = append(detail, termDetail)
	}

	result.Detail = strings.Join(detail, " ")
	return result, nil
}

func (e *Evaluator) evaluateTerm(term string, vars map[string]int) (value int, rolls []int, detail string, err error) {
	if count, sides, ok := parseDiceTerm(term); ok {
		rollResult, rollErr := e.roller.Roll(count, sides, 0)
		if rollErr != nil {
			return 0, nil, "", errors.Wrapf(rollErr, "failed to roll %s", term)
		}
		return rollResult.Total, rollResult.Rolls, fmt.Sprintf("%s %v", term, rollResult.Rolls), nil
	}

	if n, convErr := strconv.Atoi(term); convErr == nil {
		return n, nil, term, nil
	}

	name := strings.TrimPrefix(term, "@")
	if v, ok := vars[name]; ok {
		return v, nil, fmt.Sprintf("%s(%d)", name, v), nil
	}

	return 0, nil, "", errors.Configurationf("unresolved variable %q in formula", term)
}

// splitTerms splits a formula into terms and their signs
func splitTerms(formula string) ([]string, []int, error) {
	cleaned := strings.ReplaceAll(formula, " ", "")
	if cleaned == "" {
		return nil, nil, errors.Configuration("empty formula")
	}

	var terms []string
	var signs []int

	sign := 1
	current := strings.Builder{}
	for _, r := range cleaned {
		switch r {
		case '+', '-':
			if current.Len() == 0 {
				// Leading sign, or a sign directly after an operator
				if r == '-' {
					sign = -sign
				}
				continue
			}
			terms = append(terms, current.String())
			signs = append(signs, sign)
			current.Reset()
			sign = 1
			if r == '-' {
				sign = -1
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() == 0 {
		return nil, nil, errors.Configurationf("malformed formula %q", formula)
	}
	terms = append(terms, current.String())
	signs = append(signs, sign)

	return terms, signs, nil
}

// parseDiceTerm recognizes "NdS" and "dS" terms
func parseDiceTerm(term string) (count, sides int, ok bool) {
	idx := strings.IndexAny(term, "dD")
	if idx < 0 {
		return 0, 0, false
	}

	countPart := term[:idx]
	sidesPart := term[idx+1:]

	if countPart == "" {
		count = 1
	} else {
		n, err := strconv.Atoi(countPart)
		if err != nil {
			return 0, 0, false
		}
		count = n
	}

	n, err := strconv.Atoi(sidesPart)
	if err != nil {
		return 0, 0, false
	}
	sides = n

	return count, sides, count >= 1 && sides >= 1
}
