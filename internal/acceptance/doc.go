// Package acceptance runs the Gherkin scenarios in features/ against the
// full HTTP stack backed by a PostgreSQL testcontainer. The suite only runs
// with INTEGRATION_TEST=1.
package acceptance
