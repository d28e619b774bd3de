// Package tools registers the Kusto operations as MCP tools.
//
// Every tool takes a cluster_uri, an optional database and an optional
// client_request_properties object. Results are returned as a single text
// content holding the encoded payload, for example
//
//	{"format":"columnar","data":{"Name":["a","b"]}}
//
// Failures are returned as tool errors, never as protocol errors, so that
// the model sees the message and the correlation id sent to the cluster.
package tools
