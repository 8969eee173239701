// Package catalog registers the datasets served by sheetsync with the core
// registry. Import this package to ensure all datasets are registered.
package catalog

// Each dataset file uses init() to register its definition.
