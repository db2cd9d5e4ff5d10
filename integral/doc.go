// Package integral evaluates one- and two-electron integrals over contracted
// Cartesian Gaussian shells of arbitrary angular momentum.
//
// The Engine interface is the black-box contract the rest of the module
// programs against: shell-block granularity, row-major buffers, and a nil
// buffer meaning the block was screened out and contributes nothing. The
// native GaussianEngine implements it with McMurchie-Davidson Hermite
// recursions and the Boys function, so the module runs end to end without
// external integral libraries.
package integral
