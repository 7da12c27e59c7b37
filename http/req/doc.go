/*
Package req parses the parts of an HTTP request a resource consumes:
JSON request bodies, pagination query params, and whitelisted filter params.
*/
package req
