// Package llm provides LLM chat clients behind ports.LLMChat.
//
// NewClient builds a Router over every provider that has credentials:
//   - anthropic: Anthropic Messages API (anthropic-sdk-go)
//   - openai: OpenAI-compatible endpoints through langchaingo
//
// The router selects a client by the request's provider and records call
// latency and token usage on the metrics collector.
package llm
