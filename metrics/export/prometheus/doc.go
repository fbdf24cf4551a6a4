// Package prometheus renders authkit's in-process counters in the
// Prometheus text exposition format, with an http.Handler for scrape
// endpoints. It deliberately avoids a client-library dependency: the
// engine's counters are already atomic, so rendering is a read-only
// snapshot walk.
package prometheus
