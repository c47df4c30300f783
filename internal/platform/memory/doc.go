// Package memory implements the store contracts with an in-process map.
// It is a behavioral twin of the postgres package used as a test double
// and for local development: same outputs, same ordering, no database.
package memory
