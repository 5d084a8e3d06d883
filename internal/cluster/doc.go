// Package cluster groups trajectory segments whose motion statistics are
// indistinguishable.
//
// Responsibilities: the pairwise similarity predicate, the symmetric
// adjacency matrix over segment indices, breadth-first connected
// components labelling, and export of the similarity graph. LocateHand
// picks the dominant group of points on a single frame with adaptive-K
// k-means.
// Key types: Params, Matrix, Assignment, KMeans.
//
// Segments are compared by their displacement mean and variance only;
// positions play no part in similarity.
package cluster
