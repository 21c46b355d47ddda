// Package grpc exposes the standard gRPC health service for the
// orchestrator so load balancers and orchestration platforms can probe it.
package grpc
