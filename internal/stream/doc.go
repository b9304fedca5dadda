// Package stream provides the session registry shared by all renderer
// connections and the lifecycle feedback events consumed by the control loop.
package stream
