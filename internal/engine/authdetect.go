package engine

import "strings"

// authFailurePhrases are the messages the server uses when it rejects a
// session token. The server does not tag rejections with a machine-readable
// code, so detection matches on the human-readable text it returns verbatim.
var authFailurePhrases = []string{
	"session expired",
	"invalid session token",
	"missing authorization",
	"missing app session token",
}

// IsAuthFailure reports whether err is the server telling us our session is
// no longer valid. Matching is a case-insensitive substring check so both
// bare API errors and wrapped ones ("poll state: Session expired. ...")
// are recognized.
func IsAuthFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range authFailurePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
