// Package services wires the cart and its collaborators from configuration.
//
// Open builds the storage medium, catalog, cart store, view and optional
// NATS publisher in dependency order and hydrates the cart. Both the cartd
// daemon and the cart CLI start from a Registry, then use accessor methods
// to reach individual components.
package services
