package http

import (
	"net/http"
	"net/url"

	"github.com/lorikeetchat/lorikeet/internal/identity/service"
	"github.com/lorikeetchat/lorikeet/pkg/httpx"
	"github.com/lorikeetchat/lorikeet/pkg/slogx"
)

// SSOIssueHandler serves GET /v1/sso/issue. The holder of a live
// session on this domain receives a short-lived ticket scoped to a
// sibling domain, either as a redirect carrying the ticket or as JSON
// when no redirect target is given.
type SSOIssueHandler struct {
	SSOService *service.SSOService
}

func (h *SSOIssueHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	raw, ok := httpx.CookieValue(r, httpx.CookieSession)
	if !ok {
		httpx.WriteUnauthenticated(w)
		return
	}

	redirect := r.URL.Query().Get("redirect")
	audience := r.URL.Query().Get("audience")
	if audience == "" && redirect != "" {
		if u, err := url.Parse(redirect); err == nil {
			audience = u.Hostname()
		}
	}
	if audience == "" {
		// No explicit scope means a same-host ticket.
		audience = requestHostname(r)
	}

	ticket, err := h.SSOService.IssueTicket(ctx, raw, audience, httpx.RequestFingerprint(r))
	if err != nil {
		log.Warn("sso issue failed", "err", err)
		httpx.WriteUnauthenticated(w)
		return
	}

	httpx.NoCache(w)
	if redirect == "" {
		httpx.WriteJSON(w, http.StatusOK, TicketResponse{Success: true, Ticket: ticket})
		return
	}

	target := service.ComposeRedirect(redirect, ticket)
	log.Info("sso ticket issued", "audience", audience)
	http.Redirect(w, r, target, http.StatusFound)
}
