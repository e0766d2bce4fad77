package correct

// Test-only exports for pinning internal heuristics.

// Reassemble exposes reassemble for boundary tests.
var Reassemble = reassemble

// StripHeader exposes stripHeader.
var StripHeader = stripHeader

// WithSleep exposes withSleep so tests skip retry delays.
var WithSleep = withSleep

// SignaturePhrases exposes signaturePhrases.
var SignaturePhrases = signaturePhrases
