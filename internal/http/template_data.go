package httpx

import (
	"net/http"
	"strings"

	"github.com/fedefazz/laf-dashboard/internal/domain/nav"
)

// One-shot notices carried across a redirect as a flash query parameter.
// The message lives in this table, never in the URL.
const flashSignedIn = "signed_in"

var flashMessages = map[string]string{
	flashSignedIn: "Signed in successfully.",
}

// withFlash appends the flash code to a relative redirect target.
func withFlash(path, code string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "flash=" + code
}

// PageMeta contains page metadata for the layout.
type PageMeta struct {
	Title string
}

// basePageData builds the template data every page shares: the signed-in
// user and their role-filtered navigation with the current entry marked.
func basePageData(r *http.Request, sessions SessionService, meta PageMeta) map[string]any {
	data := map[string]any{
		"Title":       meta.Title,
		"CurrentPath": r.URL.Path,
	}
	if msg, ok := flashMessages[r.URL.Query().Get("flash")]; ok {
		data["Flash"] = msg
	}
	if user, ok := sessions.CurrentUser(); ok {
		data["User"] = user
		data["Nav"] = nav.Filter(nav.DefaultMenu(), user, r.URL.Path)
	} else {
		data["Nav"] = []nav.Node{}
	}
	return data
}
