/*

Process of compilation

Program Document (json) ->
	parse ->
Abstract Syntax Tree (ast) ->
	lower ->
Low-level Intermediate Representation (lir) ->
	analyze (verify, reachability) ->
	format ->
LIR Text

Lowering goes in two passes per function.
Pass 1 walks the statement tree and emits a flat sequence
of labels, instructions and terminators.
Pass 2 cuts the sequence into basic blocks.

*/
package compiler
