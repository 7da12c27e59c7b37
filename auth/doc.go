/*
Package auth provides the request authenticators a resource can hang off its Meta.

Authentication is deliberately credential-shaped: there are no sessions or
login flows here, only per-request checks the dispatch pipeline runs before
touching the database.
*/
package auth
