/*
Package router defines how requests reach resources.

A [Router] leverages a standardized data model - a [Route] -
when registering how requests should be routed.
A path and an HTTP method comprise a Route.
An implementation of [http.Handler] is the function called when a request matches a Route.
Before a request gets to a handler, though,
any middlewares added to the Route are called in the order they appear.

Resource URL tables are built by package resource and registered here in bulk
through HandleRoutes, most often on a Subrouter carrying the API prefix.
*/
package router
