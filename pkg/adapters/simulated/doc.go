// Package simulated provides deterministic local backends for the image,
// quantum, federated, neuromorphic and safety node kinds. Results are
// seeded from a hash of the request, so the same request always produces
// the same result.
package simulated
