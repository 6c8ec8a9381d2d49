// Package page is a headless document that scripts are injected into.
//
// A Page implements service.Document. Attaching a script element starts an
// HTTP fetch of its src; the element's handlers fire once the body is
// received, decoded and checked:
//
//   - load: the response was 2xx (or a 304 for a cached copy) and matched
//     the element's integrity metadata. The body is registered as a Module
//     under the element ID, where Resolve finds it.
//   - error: transport failure, non-2xx status, undecodable body, size limit
//     exceeded or integrity mismatch.
//   - abort: the page was closed before the fetch finished.
//
// Fetches share a token-bucket limiter. An optional storage.ScriptCache
// keeps bodies between runs and is revalidated with ETag and Last-Modified.
package page
