// Package basis holds the molecular geometry and Gaussian basis-set model:
// atoms, contracted shells, the flattened atomic-orbital index space, and
// its partition into shell-aligned tiles.
//
// Coordinates are stored in bohr. Shells are immutable once built; their
// contraction coefficients carry the primitive normalization folded in and
// are renormalized so the (L,0,0) Cartesian component has unit self-overlap.
package basis
