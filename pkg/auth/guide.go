package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowCredentialGuide explains where the application keys come from
func ShowCredentialGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "APPLICATION CREDENTIALS")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "followgraph uses app-only authentication. It needs the consumer key")
	fmt.Fprintln(w, "(API key) and consumer secret (API key secret) of a developer app.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  1. Sign in to the developer portal and open your project.")
	fmt.Fprintln(w, "  2. Select the app, then 'Keys and tokens'.")
	fmt.Fprintln(w, "  3. Copy the API key and API key secret shown under 'Consumer Keys'.")
	fmt.Fprintln(w, "     Regenerate them if the secret is no longer visible.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "A bearer token from the same page can be used instead of the key pair;")
	fmt.Fprintln(w, "the token request is then skipped.")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Credentials can also come from %s and %s,\n", EnvConsumerKey, EnvConsumerSecret)
	fmt.Fprintf(w, "or %s.\n", EnvBearerToken)
	fmt.Fprintln(w, rule)
}
