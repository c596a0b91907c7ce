// Package providers defines the canonical conversation model, the Adapter
// contract every provider variant implements, the typed error taxonomy, and
// the dispatch plumbing (Base) variants embed.
//
// Subpackages implement one adapter per provider wire format: openai,
// anthropic, gemini and qianfan. Callers construct adapters through
// providerfactory and talk to them only through the Adapter interface, so no
// provider-specific structure crosses the adapter boundary.
package providers
