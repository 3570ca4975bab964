// Package gemini implements the generation capabilities (architect, builder,
// editor and translator) on Google's Gemini API.
//
// Every call asks the model for a JSON document, decodes it into domain
// types and leaves structural normalization to the caller. Provider errors
// are mapped onto the generation error taxonomy so the workers can decide
// between retrying and failing, and transient failures are retried in
// process through internal/retry.
package gemini
