package crm

import (
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"crmsync/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

const (
	fakeToken    = "abc123"
	fakeSession  = "s3cr3t-session"
	fakeEmail    = "admissions@example.com"
	fakePassword = "hunter2"
	fakePerPage  = 20
)

// fakeCrm imitates the parts of the crm that the client talks to.
type fakeCrm struct {
	server *httptest.Server

	pageCount   int
	recordCount int
	jitter      time.Duration
	omitToken   bool
	failLogin   bool
	failPage    int
	// redirectTo is where an authenticated dashboard request is sent, if set.
	redirectTo string

	mu          sync.Mutex
	fetched     []int
	inflight    int
	maxInflight int
}

func newFakeCrm(t *testing.T, pageCount, recordCount int) *fakeCrm {
	f := &fakeCrm{
		pageCount:   pageCount,
		recordCount: recordCount,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/accounts/login/", f.login)
	mux.HandleFunc("/dashboard/", f.dashboard)
	mux.HandleFunc("/students/", f.students)
	mux.HandleFunc("/onboarding/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><h1>Complete your profile</h1></body></html>")
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeCrm) options() Options {
	return Options{
		LoginUrl:    f.server.URL + "/accounts/login/",
		RedirectUrl: f.server.URL + "/dashboard/",
		PageUrl:     f.server.URL + "/students/?page={page}",
		Credentials: Credentials{
			Username: fakeEmail,
			Password: fakePassword,
		},
		Timeout: 10 * time.Second,
	}
}

func (f *fakeCrm) newClient(t *testing.T) (*Client, *telemetry.Recorder) {
	tel := &telemetry.Recorder{}
	client, err := NewClient(f.options(), tel)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client, tel
}

func (f *fakeCrm) authenticated(r *http.Request) bool {
	cookie, err := r.Cookie("sessionid")
	return err == nil && cookie.Value == fakeSession
}

func (f *fakeCrm) writeLoginPage(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: fakeToken, Path: "/"})
	w.Header().Set("content-type", "text/html; charset=utf-8")
	token := ""
	if !f.omitToken {
		token = fmt.Sprintf(`<input type="hidden" name="csrfmiddlewaretoken" value="%s">`, fakeToken)
	}
	fmt.Fprintf(w, `<html><body><form method="post">%s
<input type="email" name="email"><input type="password" name="password">
</form></body></html>`, token)
}

func (f *fakeCrm) login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		f.writeLoginPage(w)
		return
	}
	if f.failLogin {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	err := r.ParseForm()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	csrfCookie, err := r.Cookie("csrftoken")
	if err != nil ||
		csrfCookie.Value != r.PostForm.Get("csrfmiddlewaretoken") ||
		r.Header.Get("referer") == "" {
		http.Error(w, "CSRF verification failed", http.StatusForbidden)
		return
	}
	if r.PostForm.Get("email") != fakeEmail || r.PostForm.Get("password") != fakePassword {
		// the crm renders the form again with a 200 on bad credentials
		f.writeLoginPage(w)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: fakeSession, Path: "/"})
	http.Redirect(w, r, "/dashboard/", http.StatusFound)
}

func (f *fakeCrm) dashboard(w http.ResponseWriter, r *http.Request) {
	if !f.authenticated(r) {
		http.Redirect(w, r, "/accounts/login/?next=/dashboard/", http.StatusFound)
		return
	}
	if f.redirectTo != "" {
		http.Redirect(w, r, f.redirectTo, http.StatusFound)
		return
	}
	fmt.Fprint(w, "<html><body><h1>Dashboard</h1></body></html>")
}

func (f *fakeCrm) students(w http.ResponseWriter, r *http.Request) {
	if !f.authenticated(r) {
		http.Redirect(w, r, "/accounts/login/?next=/students/", http.StatusFound)
		return
	}
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		http.Error(w, "bad page", http.StatusNotFound)
		return
	}
	page = min(page, f.pageCount)

	f.mu.Lock()
	f.fetched = append(f.fetched, page)
	f.inflight++
	f.maxInflight = max(f.maxInflight, f.inflight)
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inflight--
		f.mu.Unlock()
	}()

	if f.jitter > 0 {
		time.Sleep(rand.N(f.jitter))
	}
	if page == f.failPage {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("content-type", "text/html; charset=utf-8")
	fmt.Fprint(w, renderListing(page, f.pageCount, f.recordCount))
}

// renderListing renders a listing page, newest records come first.
func renderListing(page, pageCount, recordCount int) string {
	var b strings.Builder
	b.WriteString("<html><body>\n")
	first := (page-1)*fakePerPage + 1
	last := min(page*fakePerPage, recordCount)
	fmt.Fprintf(&b, "<div class=\"display\">Showing %d - %d of\n  %d</div>\n", first, last, recordCount)
	b.WriteString("<table>\n<tr><th>ID</th><th>Name</th><th>Contact</th><th>Notes</th><th>Program</th></tr>\n")
	for i := first; i <= last; i++ {
		id := recordCount - i + 1
		fmt.Fprintf(
			&b,
			"<tr><td>%d</td><td>\nStudent %d\n</td><td>student%d@example.com\n  +1 555 0100</td><td></td><td>BSc /\n  Example University</td></tr>\n",
			id, id, id,
		)
	}
	b.WriteString("</table>\n<div class=\"pages\">")
	for p := 1; p <= pageCount; p++ {
		fmt.Fprintf(&b, "<a href=\"?page=%d\">%d</a>", p, p)
	}
	b.WriteString("</div>\n</body></html>")
	return b.String()
}

func (f *fakeCrm) fetchedPages() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.fetched...)
}
