package vm

import (
	"math"

	"github.com/deepnoodle-ai/gscript/op"
)

// Fold evaluates a pure opcode on constant operands. It reports false for
// opcodes that are not pure or when the operand count is wrong. The
// compiler folds constants through this function, so folded values and
// values computed at run time agree bit for bit.
func Fold(code op.Code, args ...float64) (float64, bool) {
	info := op.GetInfo(code)
	if !info.Valid() || !info.Pure || len(args) != info.OperandCount {
		return 0, false
	}
	var operands [8]float64
	copy(operands[:], args)
	return eval(code, &operands)
}

// eval applies every opcode that does not touch global state. It reports
// false for opcodes it does not handle.
func eval(code op.Code, a *[8]float64) (float64, bool) {
	switch code {
	case op.Move:
		return a[0], true
	case op.Select:
		if a[0] != 0 {
			return a[1], true
		}
		return a[2], true
	case op.Negate:
		return -a[0], true
	case op.Not:
		return bool2num(a[0] == 0), true
	case op.Add:
		return a[0] + a[1], true
	case op.Subtract:
		return a[0] - a[1], true
	case op.Multiply:
		return a[0] * a[1], true
	case op.Divide:
		return a[0] / a[1], true
	case op.Modulo:
		return math.Mod(a[0], a[1]), true
	case op.Equal:
		return bool2num(a[0] == a[1]), true
	case op.NotEqual:
		return bool2num(a[0] != a[1]), true
	case op.LessThan:
		return bool2num(a[0] < a[1]), true
	case op.LessThanOrEqual:
		return bool2num(a[0] <= a[1]), true
	case op.GreaterThan:
		return bool2num(a[0] > a[1]), true
	case op.GreaterThanOrEqual:
		return bool2num(a[0] >= a[1]), true
	case op.And:
		return bool2num(a[0] != 0 && a[1] != 0), true
	case op.Or:
		return bool2num(a[0] != 0 || a[1] != 0), true
	case op.IsNaN:
		return bool2num(math.IsNaN(a[0])), true
	case op.IsInf:
		return bool2num(math.IsInf(a[0], 0)), true
	case op.Abs:
		return math.Abs(a[0]), true
	case op.Min:
		return math.Min(a[0], a[1]), true
	case op.Max:
		return math.Max(a[0], a[1]), true
	case op.Floor:
		return math.Floor(a[0]), true
	case op.Ceil:
		return math.Ceil(a[0]), true
	case op.Round:
		return math.Round(a[0]), true
	case op.Clamp:
		return clamp(a[0], a[1], a[2]), true
	case op.Saturate:
		return clamp(a[0], 0, 1), true
	case op.Lerp:
		return a[0] + (a[1]-a[0])*a[2], true
	case op.Sqrt:
		return math.Sqrt(a[0]), true
	case op.Degrees:
		return a[0] * (180 / math.Pi), true
	case op.Radians:
		return a[0] * (math.Pi / 180), true
	case op.Sin:
		return math.Sin(a[0]), true
	case op.Cos:
		return math.Cos(a[0]), true
	case op.Tan:
		return math.Tan(a[0]), true
	}
	return 0, false
}

// clamp limits x to [lo, hi]. When lo > hi the result is hi. NaN is
// returned unchanged.
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		x = lo
	}
	if x > hi {
		x = hi
	}
	return x
}

func bool2num(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
