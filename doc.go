// Package graphcalc implements the statement language of a graphing
// calculator with arbitrary-precision numbers.
//
// Each statement is either an expression, such as "2+3*4" or
// "{x<0: -1, x=0: 0, otherwise: 1}", or a function definition, such as
// "f(x: Number, n) = x*n!". Values are Numbers or flat Lists of numbers like
// "[1, 2, 3]". Arithmetic between Lists is elementwise, and a Number
// combined with a List applies to every element. Calling a function with
// "f@(...)" maps it over its List arguments.
//
// An Env holds the functions defined in a session. Definitions persist in the
// Env for later statements, and Env.Definitions enumerates them so that a
// session can be saved and restored.
//
// Every error from parsing or evaluation implements InputError, giving the
// column of the input where the problem occurred.
package graphcalc
