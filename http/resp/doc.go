/*
Package resp writes JSON HTTP responses on behalf of resources.

A [Responder] carries the application-wide configuration of how responses look:
the logger failures route through and the pooled buffers bodies render into.
Error-shaped responses all share one envelope: {"error": "..."}.
*/
package resp
