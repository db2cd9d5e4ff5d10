// Package screen builds the sparsity structures of the Fock build: the
// significant shell-pair lists with precomputed primitive-pair data, the
// Schwarz bound matrix, and density shell-block norms.
package screen
