package graphcalc_test

import (
	"fmt"
	"math/big"

	"github.com/zephyrtronium/graphcalc"
)

// clamp restricts a number to an interval.
type clamp struct{}

func (clamp) Params() []graphcalc.Type {
	return []graphcalc.Type{graphcalc.TypeNumber, graphcalc.TypeNumber, graphcalc.TypeNumber}
}

func (clamp) Returns() graphcalc.Type { return graphcalc.TypeNumber }

func (clamp) Call(env *graphcalc.Env, args []graphcalc.Value) (graphcalc.Value, error) {
	x, lo, hi := args[0].Float(), args[1].Float(), args[2].Float()
	r := new(big.Float).SetPrec(env.Prec())
	switch {
	case x.Cmp(lo) < 0:
		r.Set(lo)
	case x.Cmp(hi) > 0:
		r.Set(hi)
	default:
		r.Set(x)
	}
	return graphcalc.Num(r), nil
}

func ExampleFunc() {
	env := graphcalc.NewEnv(graphcalc.Builtin("clamp", clamp{}))

	a, _ := env.ExecString("clamp(7, 0, 5)", nil)
	b, _ := env.ExecString("clamp@([-1, 2, 9], 0, 5)", nil)
	fmt.Println(a)
	fmt.Println(b)

	// Output:
	// 5
	// [0, 2, 5]
}
