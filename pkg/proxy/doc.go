// Package proxy holds the HTTP plumbing shared by the relay endpoints:
// request parsing, the {"error": "<message>"} envelope and the JSON writer.
//
// Every response written through this package is JSON and carries
// Cache-Control: no-cache, as the authoring UI polls the same URLs
// repeatedly and must never see a cached answer.
//
// The handlers live in the handlers subpackage and the cross-cutting
// middleware (request ids, logging, CORS, panic recovery) in middleware.
package proxy
