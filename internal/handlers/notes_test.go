package handlers

import (
	"net/http"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var notePathPattern = regexp.MustCompile(`/(?:edit|delete)/(\d+)/`)

func loggedInClient(t *testing.T, baseURL, username string) *http.Client {
	t.Helper()
	client := newClient(t)
	resp := registerForm(t, client, baseURL, username, "pw1")
	readBody(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	return client
}

func indexPage(t *testing.T, client *http.Client, baseURL string) string {
	t.Helper()
	resp, err := client.Get(baseURL + "/")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return readBody(t, resp)
}

func firstNoteID(t *testing.T, page string) string {
	t.Helper()
	match := notePathPattern.FindStringSubmatch(page)
	require.Len(t, match, 2, "expected a note id on the page")
	return match[1]
}

func TestNoteLifecycleOverHTTP(t *testing.T) {
	srv := newTestApp(t)
	client := loggedInClient(t, srv.URL, "alice")

	resp := postForm(t, client, srv.URL+"/post", url.Values{"post": {"hello"}})
	readBody(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	page := indexPage(t, client, srv.URL)
	assert.Contains(t, page, "hello")
	id := firstNoteID(t, page)

	resp = postForm(t, client, srv.URL+"/edit/"+id+"/", url.Values{"content": {"hello world"}})
	readBody(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	page = indexPage(t, client, srv.URL)
	assert.Contains(t, page, "hello world")

	resp = postForm(t, client, srv.URL+"/delete/"+id+"/", url.Values{})
	readBody(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	page = indexPage(t, client, srv.URL)
	assert.NotContains(t, page, "hello world")
	assert.Contains(t, page, "No notes yet")
}

func TestEmptyNoteIsDropped(t *testing.T) {
	srv := newTestApp(t)
	client := loggedInClient(t, srv.URL, "alice")

	for _, content := range []string{"", "   "} {
		resp := postForm(t, client, srv.URL+"/post", url.Values{"post": {content}})
		readBody(t, resp)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	}

	assert.Contains(t, indexPage(t, client, srv.URL), "No notes yet")
}

func TestCrossUserEditIsSilentNoOp(t *testing.T) {
	srv := newTestApp(t)
	alice := loggedInClient(t, srv.URL, "alice")
	bob := loggedInClient(t, srv.URL, "bob")

	resp := postForm(t, alice, srv.URL+"/post", url.Values{"post": {"alice's note"}})
	readBody(t, resp)
	id := firstNoteID(t, indexPage(t, alice, srv.URL))

	// Bob's attempts look successful on the wire but change nothing.
	resp = postForm(t, bob, srv.URL+"/edit/"+id+"/", url.Values{"content": {"bob was here"}})
	readBody(t, resp)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp = postForm(t, bob, srv.URL+"/delete/"+id+"/", url.Values{})
	readBody(t, resp)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	page := indexPage(t, alice, srv.URL)
	assert.Contains(t, page, "alice&#39;s note")
	assert.NotContains(t, page, "bob was here")
}

func TestNotesOrderedMostRecentFirst(t *testing.T) {
	srv := newTestApp(t)
	client := loggedInClient(t, srv.URL, "alice")

	for _, content := range []string{"t1", "t2", "t3"} {
		resp := postForm(t, client, srv.URL+"/post", url.Values{"post": {content}})
		readBody(t, resp)
		time.Sleep(5 * time.Millisecond)
	}

	page := indexPage(t, client, srv.URL)
	posT3 := regexp.MustCompile(`\bt3\b`).FindStringIndex(page)
	posT2 := regexp.MustCompile(`\bt2\b`).FindStringIndex(page)
	posT1 := regexp.MustCompile(`\bt1\b`).FindStringIndex(page)
	require.NotNil(t, posT3)
	require.NotNil(t, posT2)
	require.NotNil(t, posT1)
	assert.Less(t, posT3[0], posT2[0])
	assert.Less(t, posT2[0], posT1[0])
}

func TestIndexSetsNoCacheHeaders(t *testing.T) {
	srv := newTestApp(t)
	client := loggedInClient(t, srv.URL, "alice")

	resp, err := client.Get(srv.URL + "/")
	require.NoError(t, err)
	readBody(t, resp)
	assert.Contains(t, resp.Header.Get("Cache-Control"), "no-store")
	assert.Equal(t, "no-cache", resp.Header.Get("Pragma"))
}

func TestMutationsRequireSession(t *testing.T) {
	srv := newTestApp(t)
	client := newClient(t)

	for _, route := range []string{"/post", "/edit/1/", "/delete/1/"} {
		resp := postForm(t, client, srv.URL+route, url.Values{"post": {"x"}, "content": {"x"}})
		readBody(t, resp)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode, route)
		assert.Equal(t, "/login", resp.Header.Get("Location"), route)
	}
}
