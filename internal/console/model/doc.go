// Package model defines the read-only projections the console fetches from the
// patrol backend.
package model
