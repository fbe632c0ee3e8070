// Package lock serializes writers of a named collection.
//
// Local guards collections inside one process. Redis holds a lease in Redis
// so several server processes sharing one storage backend do not lose each
// other's writes.
package lock
