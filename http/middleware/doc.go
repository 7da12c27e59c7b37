/*
Package middleware provides the HTTP middlewares a restnest application stacks
in front of its resources, and the Adapter type for composing them.
*/
package middleware
