// Package models holds the authorization engine's data types.
package models

// RegisteredClient is an OAuth2 client known to the engine.
type RegisteredClient struct {
	ClientID     string
	Name         string
	RedirectURIs []string
	Scopes       []string
}

// AllowsRedirectURI reports whether uri is registered for the client. An
// empty registration list accepts any URI, which is only appropriate for
// development seeds.
func (c RegisteredClient) AllowsRedirectURI(uri string) bool {
	if len(c.RedirectURIs) == 0 {
		return true
	}
	for _, registered := range c.RedirectURIs {
		if registered == uri {
			return true
		}
	}
	return false
}

// AuthorizeRequest is the parsed /oauth2/authorize query.
type AuthorizeRequest struct {
	ResponseType string
	ClientID     string
	RedirectURI  string
	Scope        string
	State        string
}

// TermsView is what the consent page renders.
type TermsView struct {
	ClientID   string
	ClientName string
	State      string
	Scopes     []string
}
