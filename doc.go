/*

stackresolver enumerates installable software stacks.

Given a set of packages identified by dense small integers, a per-package
list of required dependencies, and a partitioning of packages into types
(two packages of the same type conflict — e.g. two versions of the same
product), it enumerates every set of packages that transitively closes
over a chosen set of direct dependencies while containing at most one
package per type. Each enumerated stack is streamed to a caller-provided
Sink in a framed uint32 wire format.

The package is deliberately small and single-threaded; ambient concerns
(CLI, config, logging, presolve, alternate sinks, monitoring) live above
it in internal/ and cmd/, never inside the core.
*/
package stackresolver
