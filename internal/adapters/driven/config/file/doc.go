// Package file provides the TOML configuration store.
//
// Settings live in ~/.handbook/config.toml. Nested tables are exposed
// as dot-notation keys ("fuzzy.weight.title") and written back as
// nested tables.
package file
