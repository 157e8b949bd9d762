package telemetry

import (
	"fmt"
)

// API is what components report through instead of logging directly, so tests can swap it
// for a Recorder and assert on what was reported.
type API interface {
	// ReportBroken reports a failure that someone has to look at.
	//
	// Ids name the component and method, `<struct>.<method>` in lowercase with dashes between
	// words (ex. `client.fetch-all`). Details like the url or the wrapped error go into params,
	// never into the id.
	ReportBroken(id string, params ...any)
	// ReportWarning reports something unexpected that did not stop the operation.
	ReportWarning(id string, params ...any)
	// ReportDebug is for tracing what happened, `msg` may be free text.
	ReportDebug(msg string, params ...any)
	// ReportCount records a quantity, the last value reported for an id wins.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id with a namespace, usually the package doing the reporting.
// Scoping an already scoped API keeps a single prefix made of both namespaces.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	if scoped, ok := inner.(ScopedAPI); ok {
		return ScopedAPI{
			namespace: scoped.namespace + "." + namespace,
			inner:     scoped.inner,
		}
	}
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) id(id string) string {
	return fmt.Sprintf("%s: %s", s.namespace, id)
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.id(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.id(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(s.id(msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.id(id), count)
}
