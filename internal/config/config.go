// Package config holds the section/member configuration model and its text format.
package config

// DefaultURL is the endpoint used when neither a flag nor a section sets one.
const DefaultURL = "http://localhost:8778/jolokia"

// Defaults holds the global connection settings a section falls back to.
type Defaults struct {
	URL      string // Endpoint URL, may contain placeholders
	User     string // Optional user name
	Password string // Optional password
}
