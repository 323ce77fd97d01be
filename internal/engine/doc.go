// Package engine contains the simulation core: the immutable-per-turn
// state machine that advances the zombie infection across the building grid.
//
// ARCHITECTURAL RULE: every operation builds exactly one mutable draft,
// applies all mutations to it, and commits by atomically replacing the
// environment's retained state with that draft. Callers never share
// mutable structure with the environment.
package engine
