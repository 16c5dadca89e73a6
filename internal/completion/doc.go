// Package completion forwards a chat transcript to an Azure OpenAI chat
// completions deployment.
//
// The system prompt is prepended at call time and never stored. Requests go
// to {endpoint}/openai/deployments/{deployment}/chat/completions with the
// configured api-version and are authenticated by the first CredentialStrategy
// that succeeds: managed identity on the hosted platform, then the api-key
// header.
package completion
