// Package superimpose computes optimal rigid superpositions of equal-length
// point sets (Kabsch algorithm) and the RMSD between them.
//
// Fit returns the proper rotation R and translation T that minimize
// RMSD(a, R·b+T). The rotation is obtained from the singular value
// decomposition of the 3×3 cross-covariance matrix of the centered sets.
// When the decomposition yields an improper rotation (det(R) < 0) the sign of
// the last singular vector is flipped so the result is always a rotation.
//
// Degenerate inputs (for example collinear points) are not detected; the
// returned transform is still a valid rotation but may not be unique.
package superimpose
