package scrape

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mnsos/internal/config"
	"mnsos/internal/session/sessiontest"
)

const (
	searchURL  = "https://mblsportal.sos.mn.gov/Business/Search"
	detailsURL = "https://mblsportal.sos.mn.gov/Business/SearchDetails"
)

func newTestPortal(fake *sessiontest.Fake, maxResults int) *Portal {
	cfg := config.PortalConfig{SearchURL: searchURL, DetailsURL: detailsURL}
	return NewPortal(fake, cfg, maxResults, slog.Default())
}

func TestLocateByFileNumberHit(t *testing.T) {
	fake := sessiontest.New()
	fake.Routes[searchURL] = &sessiontest.Page{
		URL: searchURL,
		Visible: map[string]bool{
			"#FileNumber":        true,
			resultsReadySelector: true,
		},
		Texts: map[string]string{
			"body":                     "1 result",
			"table tbody tr td strong": "ACME WIDGETS LLC",
		},
	}
	fake.Routes[detailsURL+"?filingGuid=x"] = &sessiontest.Page{
		URL:   detailsURL + "?filingGuid=x",
		Title: "Business Record Details",
	}
	fake.ClickRoutes[searchURL+`|a[href*="SearchDetails"]`] = detailsURL + "?filingGuid=x"

	portal := newTestPortal(fake, 500)
	found, name, err := portal.LocateByFileNumber(context.Background(), 1234567)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "ACME WIDGETS LLC", name)
	assert.Equal(t, "1234567", fake.Filled("#FileNumber"))
}

func TestLocateByFileNumberMiss(t *testing.T) {
	fake := sessiontest.New()
	fake.Routes[searchURL] = &sessiontest.Page{
		URL: searchURL,
		Visible: map[string]bool{
			"#FileNumber":        true,
			resultsReadySelector: true,
		},
		Texts: map[string]string{"body": "No Results Found for your search."},
	}

	portal := newTestPortal(fake, 500)
	found, name, err := portal.LocateByFileNumber(context.Background(), 99)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, name)
}

func TestLocateByFileNumberResultsNeverRender(t *testing.T) {
	// Neither the results table nor the alert ever appears after submit: the
	// lookup must fail, not report a miss off the stale pre-submit page.
	fake := sessiontest.New()
	fake.Routes[searchURL] = &sessiontest.Page{
		URL:     searchURL,
		Visible: map[string]bool{"#FileNumber": true},
		Texts:   map[string]string{"body": "Search by business name or file number"},
	}

	portal := newTestPortal(fake, 500)
	found, _, err := portal.LocateByFileNumber(context.Background(), 1234567)
	require.Error(t, err)
	assert.False(t, found)
}

func TestSearchByNameFiltersAndCaps(t *testing.T) {
	rows := []map[string]string{
		{"name": "AARDVARK HOLDINGS LLC", "href": "/Business/SearchDetails?filingGuid=guid-1"},
		{"name": "AAA PLUMBING", "href": "/Business/SearchDetails?filingGuid=guid-2"}, // no keyword
		{"name": "AABLE CORP", "href": ""},                                            // no guid
		{"name": "AACE NONPROFIT", "href": "/Business/SearchDetails?filingGuid=guid-3"},
		{"name": "AAD INC", "href": "/Business/SearchDetails?filingGuid=guid-4"},
	}
	fake := sessiontest.New()
	fake.Routes[searchURL] = &sessiontest.Page{
		URL: searchURL,
		Visible: map[string]bool{
			"#BusinessName":      true,
			resultsReadySelector: true,
		},
		Evals: map[string]any{searchRowsJS: rows},
	}

	portal := newTestPortal(fake, 2)
	hits, err := portal.SearchByName(context.Background(), "aa")
	require.NoError(t, err)

	require.Len(t, hits, 2)
	assert.Equal(t, Hit{BusinessName: "AARDVARK HOLDINGS LLC", GUID: "guid-1"}, hits[0])
	assert.Equal(t, Hit{BusinessName: "AACE NONPROFIT", GUID: "guid-3"}, hits[1])
	assert.Equal(t, "aa", fake.Filled("#BusinessName"))
}

func TestSearchByNameNoResultsTable(t *testing.T) {
	// The harvest script returns an empty list when the page has no results
	// table.
	fake := sessiontest.New()
	fake.Routes[searchURL] = &sessiontest.Page{
		URL:     searchURL,
		Visible: map[string]bool{resultsReadySelector: true},
		Evals:   map[string]any{searchRowsJS: []map[string]string{}},
	}

	portal := newTestPortal(fake, 500)
	hits, err := portal.SearchByName(context.Background(), "zz")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchByNameHarvestErrorPropagates(t *testing.T) {
	// A failing harvest means the results were never read, not that they
	// were empty. The error must reach the worker so the pattern is not
	// checkpointed as completed.
	fake := sessiontest.New()
	fake.Routes[searchURL] = &sessiontest.Page{
		URL:     searchURL,
		Visible: map[string]bool{resultsReadySelector: true},
	}
	fake.EvalErr = context.DeadlineExceeded

	portal := newTestPortal(fake, 500)
	hits, err := portal.SearchByName(context.Background(), "aa")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, hits)
}

func TestOpenByLocator(t *testing.T) {
	fake := sessiontest.New()
	fake.Routes[detailsURL+"?filingGuid=guid-9"] = &sessiontest.Page{
		URL:   detailsURL + "?filingGuid=guid-9",
		Title: "Business Record Details",
		Texts: map[string]string{"h2": "GOPHER STATE CORP"},
	}
	fake.Routes[detailsURL+"?filingGuid=gone"] = &sessiontest.Page{
		URL:   detailsURL + "?filingGuid=gone",
		Title: "Business Search",
	}

	portal := newTestPortal(fake, 500)

	name, ok, err := portal.OpenByLocator(context.Background(), "guid-9")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "GOPHER STATE CORP", name)

	_, ok, err = portal.OpenByLocator(context.Background(), "gone")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGuidFromHref(t *testing.T) {
	assert.Equal(t, "abc-123", guidFromHref("/Business/SearchDetails?filingGuid=abc-123"))
	assert.Equal(t, "", guidFromHref("/Business/Search"))
}
