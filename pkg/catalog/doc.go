// Package catalog holds the static cost and capacity table for every
// service kind. It is a pure lookup with no state; the entries never
// change during a game.
package catalog
