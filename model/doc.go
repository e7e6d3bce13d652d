// Package model groups provider adapters implementing core.Model. Each
// subpackage wraps one official SDK (openai, anthropic) behind the shared
// Generate contract so the pipeline stays vendor-neutral.
package model
