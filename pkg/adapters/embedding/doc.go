// Package embedding provides ports.Embedder implementations.
//
//   - OpenAIEmbedder: OpenAI embedding models through langchaingo
//   - HashEmbedder: local feature hashing, deterministic and offline
//
// Both implement the Models method so the embedding node can reject
// unknown models at load time.
package embedding
