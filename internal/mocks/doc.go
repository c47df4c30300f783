// Package mocks provides test doubles for the store interfaces.
//
// Each mock embeds the corresponding in-memory store for realistic default
// behavior and exposes function fields that tests set to override single
// methods, typically to inject failures.
package mocks
