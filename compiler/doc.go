/*

Process of compilation

Program Text ->
	parse (tokens, recursive descent) ->
Semantic Actions (front) ->
	declarations, type checks, quadruple generation ->
Intermediate Representation (ir.Program) ->
	vm ->
Program Output

Every identifier gets a virtual address from the fixed layout (mem)
when it is declared. Constants are interned into the global segment
and shipped with the program.

*/
package compiler
