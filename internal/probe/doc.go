// Package probe implements the single-endpoint reachability check.
//
// A Prober answers one question per link: is the endpoint reachable right now?
// HTTPProber issues one lightweight request (HEAD by default) with redirects
// disabled and maps the outcome onto a model.Status. Links whose scheme is not
// http or https are labelled NeedsManualCheck without any network access.
//
// All probes of a batch share one http.Transport built by NewTransport. It
// pools connections, caps connections per host, resolves names through a
// TTL-bounded DNS cache and can route through a SOCKS5 proxy.
//
// Probes never return errors. Every failure is classified into a status so a
// single broken endpoint cannot affect the rest of a batch.
package probe
