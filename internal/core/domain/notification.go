package domain

// NotificationOpenURL is the name of the redirect notification posted when
// the platform hands a URL to the application.
const NotificationOpenURL = "open-url"

// Notification is a platform event. Object is an untyped payload; for
// NotificationOpenURL it is expected to be a map with a "url" entry.
type Notification struct {
	Name   string
	Object any
	// Reply, when set, receives whether the redirect was accepted. The
	// sender must leave room for one value.
	Reply chan<- bool
}
