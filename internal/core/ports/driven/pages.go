package driven

// PageStore provides the HTML pages the loopback callback server shows in
// the browser once a redirect arrives. Implementations may load pages from
// files, embed them in the binary, or both.
type PageStore interface {
	// Load returns the page template for the given name.
	// Templates carry a single %s placeholder for the (escaped) message.
	Load(name string) (string, error)

	// Reload clears any cached pages, forcing fresh loads on next access.
	Reload()
}

// Well-known page names shown by the callback server.
const (
	// PageSignedIn is shown when the redirect carried an authorization code.
	PageSignedIn = "signed_in"

	// PageSignInFailed is shown when the redirect carried an error or no code.
	PageSignInFailed = "sign_in_failed"
)
