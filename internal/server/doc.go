// Package server implements the JSON-lines stdio service in front of the
// reconstruction engine.
//
// The protocol is JSON-RPC 2.0, one message per line, requests on stdin
// and responses on stdout. Logging goes to stderr so the response stream
// stays clean. Three methods are exposed:
//
//	ping      liveness check, returns an empty object
//	analyze   context measures + recommended method for a region
//	inpaint   full reconstruction, writes the result file
//
// A request looks like:
//
//	{"jsonrpc":"2.0","id":1,"method":"inpaint","params":{
//	  "path":"photo.png",
//	  "region":{"x":120,"y":80,"width":64,"height":48},
//	  "options":{"qualityLevel":"best"}}}
//
// Requests are admitted concurrently up to the configured limit and each
// runs under the configured deadline. Responses may arrive out of request
// order; callers match them by id.
//
// Error codes follow JSON-RPC conventions: -32700/-32601/-32602 for
// protocol problems, -32001 for rejected inputs (unreadable file, invalid
// region, unusable metadata) and -32000 for pipeline failures.
package server
