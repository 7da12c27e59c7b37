/*
Package postgres wraps gorm in a chainable query surface scoped to what the
resource layer needs: building filtered querysets from lookup values captured
in URLs, executing them, and translating database errors into the restnest
sentinel errors.

FilterMap is the bridge between a resource's lookup kwargs and a query:
each key-value pair becomes an equality (or IN) clause, with keys validated
as SQL identifiers first.
*/
package postgres
