package complete

// Test-only exports for injecting mock clients.

// WithChatCompleter exposes withChatCompleter for tests.
var WithChatCompleter = withChatCompleter

// WithDeepSeekHTTPClient exposes withDeepSeekHTTPClient for tests.
var WithDeepSeekHTTPClient = withDeepSeekHTTPClient
