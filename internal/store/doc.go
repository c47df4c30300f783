// Package store defines the persistence contracts for the task core and
// the errors shared by every backing implementation.
package store
