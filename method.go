package h1

// Method is a registered HTTP method. Parsing is case-sensitive: HTTP
// method tokens are uppercase per RFC 7230, so "get" is an unknown
// method, not a lowercase GET (spec.md §4.D tie-break).
type Method int

const (
	MethodGet Method = iota
	MethodHead
	MethodPost
	MethodPut
	MethodDelete
	MethodConnect
	MethodOptions
	MethodTrace
	MethodPatch
	// WebDAV-registered verbs (spec.md §4.J).
	MethodCopy
	MethodLock
	MethodMkcol
	MethodMove
	MethodPropfind
	MethodProppatch
	MethodSearch
	MethodUnlock
	MethodBind
	MethodRebind
	MethodUnbind
	MethodAcl
	MethodReport
	MethodMkactivity
	MethodCheckout
	MethodMerge
	MethodMsearch
	MethodNotify
	MethodSubscribe
	MethodUnsubscribe
	MethodPurge
	MethodMkcalendar
	MethodLink
	MethodUnlink
)

var methodNames = [...]string{
	MethodGet:          "GET",
	MethodHead:         "HEAD",
	MethodPost:         "POST",
	MethodPut:          "PUT",
	MethodDelete:       "DELETE",
	MethodConnect:      "CONNECT",
	MethodOptions:      "OPTIONS",
	MethodTrace:        "TRACE",
	MethodPatch:        "PATCH",
	MethodCopy:         "COPY",
	MethodLock:         "LOCK",
	MethodMkcol:        "MKCOL",
	MethodMove:         "MOVE",
	MethodPropfind:     "PROPFIND",
	MethodProppatch:    "PROPPATCH",
	MethodSearch:       "SEARCH",
	MethodUnlock:       "UNLOCK",
	MethodBind:         "BIND",
	MethodRebind:       "REBIND",
	MethodUnbind:       "UNBIND",
	MethodAcl:          "ACL",
	MethodReport:       "REPORT",
	MethodMkactivity:   "MKACTIVITY",
	MethodCheckout:     "CHECKOUT",
	MethodMerge:        "MERGE",
	MethodMsearch:      "M-SEARCH",
	MethodNotify:       "NOTIFY",
	MethodSubscribe:    "SUBSCRIBE",
	MethodUnsubscribe:  "UNSUBSCRIBE",
	MethodPurge:        "PURGE",
	MethodMkcalendar:   "MKCALENDAR",
	MethodLink:         "LINK",
	MethodUnlink:       "UNLINK",
}

var methodByName map[string]Method

func init() {
	methodByName = make(map[string]Method, len(methodNames))
	for m, name := range methodNames {
		methodByName[name] = Method(m)
	}
}

// String formats m as its canonical uppercase token.
func (m Method) String() string {
	if int(m) < 0 || int(m) >= len(methodNames) {
		return "UNKNOWN"
	}
	return methodNames[m]
}

// ParseMethod looks up a method token. The match is case-sensitive; an
// unregistered or lowercased token is KindUnknownMethod, surfaced to
// the host with a suggested 400.
func ParseMethod(token []byte) (Method, error) {
	m, ok := methodByName[string(token)]
	if !ok {
		return 0, newErr(KindUnknownMethod, 400, "unregistered method "+string(token))
	}
	return m, nil
}
