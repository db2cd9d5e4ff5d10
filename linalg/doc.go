// Package linalg provides the symmetric eigensolver backends behind the
// orthogonalizer and the Fock diagonalization.
//
// DenseLocal solves in place. BlockCyclic mirrors a distributed solver on
// shared memory: matrices are split into cyclic row blocks, the transform
// products run panel-parallel, and the tridiagonal kernel runs on the
// gathered matrix before results are scattered back. Both return identical
// numerics; the backend is a configuration choice.
package linalg
