/*
Package restnest is a REST-resource layer built atop gorm and gorilla/mux.

A resource maps URLs to CRUD operations on a backing model. Beyond the usual
list and detail endpoints, restnest adds nested sub-resources reachable under
a parent resource's detail URL, configurable identifier patterns for detail
URLs, and authorization hooks that apply differently when a resource is
reached directly or through a parent.

The root package holds sentinel errors, context keys and model scaffolding
shared by the subpackages. The interesting parts live in package resource.
*/
package restnest
