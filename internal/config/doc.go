// Package config loads the orchestrator's settings from the environment.
//
// Every value has a default suited to a single process: in-memory report
// storage, events and vector search, hash embeddings and the simulated
// backends. Redis, Neo4j and the LLM providers are enabled by setting their
// environment variables.
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	opts := cfg.RunDefaults()
package config
