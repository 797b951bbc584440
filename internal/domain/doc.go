// Package domain contains the core business entities of the research
// pipeline: queries, search parameters, fetched content and scored results.
// Domain types validate themselves and carry no persistence or transport
// concerns.
package domain
