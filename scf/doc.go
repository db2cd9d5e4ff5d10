// Package scf drives the self-consistent field procedure to a converged
// Hartree-Fock wavefunction.
//
// The driver walks an explicit state machine (build Fock, diagonalize,
// rebuild density, check convergence) for restricted and unrestricted
// references, with Pulay DIIS extrapolation of the Fock history and an
// automatic level shift when the orbital gap collapses. Every iteration
// is recorded so callers can inspect the convergence trajectory after
// the fact.
package scf
