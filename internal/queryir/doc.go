// Package queryir is the filter representation for recorded callback
// events.
//
// A filter is a Predicate tree built from the trace command's --where
// expressions:
//
//	reason=value_change
//	target=top.clk
//	to=called
//	sim_time>=5
//
// Several expressions are joined with And. Fields name columns of a
// recorded event (see Fields). Only sim_time is ordered; the text fields
// support equality alone.
//
// Predicate is a sealed interface. Backends (querysql) switch over the
// concrete types exhaustively.
package queryir
