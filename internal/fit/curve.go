package fit

import (
	"fmt"
	"strings"
)

// Model selects the curve family used for synthesis.
type Model int

const (
	// None disables curve synthesis.
	None Model = iota
	// LinearModel fits a straight line.
	LinearModel
	// ParabolaModel fits a quadratic.
	ParabolaModel
)

// String returns the config name of the model.
func (m Model) String() string {
	switch m {
	case None:
		return "none"
	case LinearModel:
		return "linear"
	case ParabolaModel:
		return "parabola"
	default:
		return "unknown"
	}
}

// ParseModel maps a config value to a Model. Empty means None.
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "linear":
		return LinearModel, nil
	case "parabola", "quadratic":
		return ParabolaModel, nil
	default:
		return None, fmt.Errorf("unknown fit model %q (use none, linear or parabola)", s)
	}
}

// MinPoints is the number of distinct x values the model needs.
func (m Model) MinPoints() int {
	switch m {
	case LinearModel:
		return 2
	case ParabolaModel:
		return 3
	default:
		return 0
	}
}

// Curve is a fitted polynomial, coefficients in ascending power order.
type Curve struct {
	Model  Model
	Coeffs []float64
}

// Fit fits the chosen model to the points.
func Fit(m Model, xs, ys []float64) (Curve, error) {
	switch m {
	case LinearModel:
		a0, a1, err := Linear(xs, ys)
		if err != nil {
			return Curve{}, err
		}
		return Curve{Model: m, Coeffs: []float64{a0, a1}}, nil
	case ParabolaModel:
		a0, a1, a2, err := Parabola(xs, ys)
		if err != nil {
			return Curve{}, err
		}
		return Curve{Model: m, Coeffs: []float64{a0, a1, a2}}, nil
	default:
		return Curve{}, fmt.Errorf("cannot fit model %s", m)
	}
}

// Eval evaluates the curve at x using Horner's rule.
func (c Curve) Eval(x float64) float64 {
	var y float64
	for i := len(c.Coeffs) - 1; i >= 0; i-- {
		y = y*x + c.Coeffs[i]
	}
	return y
}

// String renders the curve as an equation.
func (c Curve) String() string {
	if len(c.Coeffs) == 0 {
		return "y = 0"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "y = %.6g", c.Coeffs[0])
	for i := 1; i < len(c.Coeffs); i++ {
		term := "x"
		if i > 1 {
			term = fmt.Sprintf("x^%d", i)
		}
		fmt.Fprintf(&b, " %+.6g*%s", c.Coeffs[i], term)
	}
	return b.String()
}
