// Package domain holds the types shared by the workflow orchestrator:
// workflow descriptions, the typed graph, node lifecycle states, the error
// taxonomy, run options and run reports.
//
// The package has no dependencies on adapters or transports; everything
// else in the module depends on it.
package domain
