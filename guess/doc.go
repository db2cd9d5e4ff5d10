// Package guess seeds the SCF loop with an initial density.
//
// The superposition-of-atomic-densities builder solves a damped
// fixed-point problem for every distinct element of the molecule and
// places the converged atomic blocks on the diagonal of the molecular
// density. Identical elements share one solution. A cheaper
// core-Hamiltonian seed is available for small or well-behaved systems.
package guess
