// Package route maps the active conversation onto a navigable location
// token and back. The token is the only coupling between navigation and the
// store: `conversation/<id>` selects a topic, anything else is the landing
// page.
package route

import "strings"

// Prefix of every conversation location token.
const Prefix = "conversation/"

// LocationFor returns the location token for a topic id. An empty id maps
// to the landing location, the empty token.
func LocationFor(topicID string) string {
	if topicID == "" {
		return ""
	}
	return Prefix + topicID
}

// ConversationFor extracts the topic id from a location token. ok is false
// for the landing token and for tokens outside the conversation namespace.
func ConversationFor(token string) (string, bool) {
	if !strings.HasPrefix(token, Prefix) {
		return "", false
	}
	id := token[len(Prefix):]
	if id == "" {
		return "", false
	}
	return id, true
}
