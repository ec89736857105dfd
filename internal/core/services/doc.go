// Package services holds the sign-in core: configuration resolution, the
// session state machine, result mapping and redirect forwarding.
//
// Provider work is never run on the caller's goroutine. The SessionController
// queues it on a serial Dispatcher and hands back a domain.Call that settles
// when the work is done, so at most one provider callback runs at a time.
package services
