package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mnsos/internal/config"
	"mnsos/internal/session"
)

// nameKeywords is the broad pre-filter applied to name-search results. A hit
// whose name contains none of these is discarded before the detail fetch;
// the strict business-type filter runs later against the extracted record.
var nameKeywords = []string{
	"LLC",
	"L.L.C.",
	"CORPORATION",
	"CORP",
	"INC",
	"INCORPORATED",
	"NONPROFIT",
	"NON-PROFIT",
}

// searchRowsJS collects the name and details href of every result row.
const searchRowsJS = `Array.from(document.querySelectorAll('table.table tbody tr')).map(tr => {
	const cells = tr.querySelectorAll('td');
	if (!cells.length) return null;
	const strong = cells[0].querySelector('strong');
	const name = (strong ? strong.innerText : cells[0].innerText).trim();
	const link = tr.querySelector('a[href*="filingGuid"]');
	return {name: name, href: link ? link.getAttribute('href') : ''};
}).filter(Boolean)`

// containsOptionJS switches the name search from "starts with" to "contains".
const containsOptionJS = `document.getElementById("containsz").checked = true`

// resultsReadySelector matches what the portal renders after a search
// submit: the hit table, or the alert box on an empty result set. Submitting
// triggers a navigation, so reading the page before one of these is visible
// would race the pre-submit document.
const resultsReadySelector = `table.table, .alert`

// Hit is one name-search result: the listed business name and the filing
// GUID extracted from its details link.
type Hit struct {
	BusinessName string `json:"name"`
	GUID         string `json:"guid"`
}

// Portal drives the registry search pages through a browser session.
type Portal struct {
	sess       session.Session
	cfg        config.PortalConfig
	maxResults int
	logger     *slog.Logger
}

// NewPortal returns a Portal bound to one browser session.
func NewPortal(sess session.Session, cfg config.PortalConfig, maxResults int, logger *slog.Logger) *Portal {
	return &Portal{
		sess:       sess,
		cfg:        cfg,
		maxResults: maxResults,
		logger:     logger,
	}
}

// LocateByFileNumber searches for the given file number and, on a hit,
// navigates to the business details page. It returns found=false for a
// clean miss; err is reserved for navigation and timeout failures.
func (p *Portal) LocateByFileNumber(ctx context.Context, fileNumber int) (found bool, businessName string, err error) {
	if err := p.sess.Navigate(ctx, p.cfg.SearchURL); err != nil {
		return false, "", err
	}

	// The file-number field lives behind its own tab.
	if err := p.sess.Click(ctx, `a[href="#fileNumberTab"]`); err != nil {
		return false, "", err
	}
	if err := p.sess.WaitVisible(ctx, "#FileNumber"); err != nil {
		return false, "", err
	}
	if err := p.sess.Fill(ctx, "#FileNumber", fmt.Sprintf("%d", fileNumber)); err != nil {
		return false, "", err
	}
	if err := p.sess.Click(ctx, `#fileNumberTab button[type="submit"]`); err != nil {
		return false, "", err
	}
	if err := p.sess.WaitVisible(ctx, resultsReadySelector); err != nil {
		return false, "", err
	}

	bodyText, err := p.sess.Text(ctx, "body")
	if err != nil {
		return false, "", err
	}
	lower := strings.ToLower(bodyText)
	if strings.Contains(lower, "no results") || strings.Contains(lower, "no businesses found") {
		return false, "", nil
	}

	// The name may be absent from the result row; the details page still
	// carries it, so this is best effort.
	businessName, _ = p.sess.Text(ctx, "table tbody tr td strong")
	businessName = strings.TrimSpace(businessName)

	if err := p.sess.Click(ctx, `a[href*="SearchDetails"]`); err == nil {
		if onDetails, _ := p.onDetailsPage(ctx); onDetails {
			return true, businessName, nil
		}
	}

	// Single-hit searches sometimes land directly on the details page.
	if onDetails, err := p.onDetailsPage(ctx); err != nil {
		return false, "", err
	} else if onDetails {
		return true, businessName, nil
	}

	return false, "", nil
}

func (p *Portal) onDetailsPage(ctx context.Context) (bool, error) {
	loc, err := p.sess.Location(ctx)
	if err != nil {
		return false, err
	}
	return strings.Contains(loc, "SearchDetails") || strings.Contains(loc, "Details"), nil
}

// SearchByName runs a contains-search for term and returns the keyword-
// filtered hits, capped at the configured maximum.
func (p *Portal) SearchByName(ctx context.Context, term string) ([]Hit, error) {
	if err := p.sess.Navigate(ctx, p.cfg.SearchURL); err != nil {
		return nil, err
	}
	if err := p.sess.Evaluate(ctx, containsOptionJS, nil); err != nil {
		return nil, err
	}
	if err := p.sess.Fill(ctx, "#BusinessName", term); err != nil {
		return nil, err
	}
	if err := p.sess.Click(ctx, `button[type="submit"]`); err != nil {
		return nil, err
	}
	if err := p.sess.WaitVisible(ctx, resultsReadySelector); err != nil {
		return nil, err
	}

	var rows []struct {
		Name string `json:"name"`
		Href string `json:"href"`
	}
	if err := p.sess.Evaluate(ctx, searchRowsJS, &rows); err != nil {
		// The harvest script yields an empty list when the results table is
		// absent, so a failure here is a transport or cancellation error.
		// It must surface to the caller: swallowing it would let the worker
		// checkpoint the pattern as completed.
		return nil, err
	}

	var hits []Hit
	for _, row := range rows {
		if len(hits) >= p.maxResults {
			break
		}
		guid := guidFromHref(row.Href)
		if guid == "" {
			continue
		}
		if !matchesKeyword(row.Name) {
			continue
		}
		hits = append(hits, Hit{BusinessName: row.Name, GUID: guid})
	}
	return hits, nil
}

// OpenByLocator navigates straight to a details page by filing GUID. A page
// without a Details title is a miss, not an error.
func (p *Portal) OpenByLocator(ctx context.Context, guid string) (businessName string, ok bool, err error) {
	url := fmt.Sprintf("%s?filingGuid=%s", p.cfg.DetailsURL, guid)
	if err := p.sess.Navigate(ctx, url); err != nil {
		return "", false, err
	}

	title, err := p.sess.Title(ctx)
	if err != nil {
		return "", false, err
	}
	if !strings.Contains(title, "Details") {
		return "", false, nil
	}

	businessName, _ = p.sess.Text(ctx, "h2")
	return strings.TrimSpace(businessName), true, nil
}

// HTML exposes the session's current document for extraction.
func (p *Portal) HTML(ctx context.Context) (string, error) {
	return p.sess.HTML(ctx)
}

func guidFromHref(href string) string {
	const marker = "filingGuid="
	idx := strings.LastIndex(href, marker)
	if idx < 0 {
		return ""
	}
	return href[idx+len(marker):]
}

func matchesKeyword(name string) bool {
	upper := strings.ToUpper(name)
	for _, kw := range nameKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}
