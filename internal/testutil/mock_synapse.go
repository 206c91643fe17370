// Package testutil provides a fake Synapse backend for tests.
package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Cookie names issued on login. They match the names the client reads.
const (
	AccessCookie = "access_token_cookie"
	CSRFCookie   = "csrf_access_token"
)

// MockResponse defines a canned response for one path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// Article is a news item held by the mock.
type Article struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
	TopicID     int64  `json:"-"`
}

type account struct {
	ID        int64  `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Birthdate string `json:"birthdate,omitempty"`
	password  string
}

type topic struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	State int    `json:"state,omitempty"`
}

type source struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// MockSynapse is an in-memory Synapse API. Routes live under /api.
type MockSynapse struct {
	server *httptest.Server

	mu        sync.Mutex
	overrides map[string]http.HandlerFunc
	articles  []Article
	users     map[string]*account
	tokens    map[string]*account
	topics    []topic
	custom    map[int64][]topic
	sources   []source
	attached  map[int64]map[int64]bool
	saved     map[int64][]int64
	history   map[int64][]int64
	nextID    int64

	// OmitPagination serves bare news lists without pagination metadata.
	OmitPagination bool

	// Tracking
	requestCount     int
	conditionalCount int
	pathCounts       map[string]int
	lastHeader       http.Header
}

// NewMockSynapse starts a mock with one account (reader@example.com /
// secret), the standard topics and two sources.
func NewMockSynapse() *MockSynapse {
	m := &MockSynapse{
		overrides:  make(map[string]http.HandlerFunc),
		users:      make(map[string]*account),
		tokens:     make(map[string]*account),
		custom:     make(map[int64][]topic),
		attached:   make(map[int64]map[int64]bool),
		saved:      make(map[int64][]int64),
		history:    make(map[int64][]int64),
		pathCounts: make(map[string]int),
		nextID:     1000,
		topics: []topic{
			{ID: 1, Name: "Technology"},
			{ID: 2, Name: "Science"},
			{ID: 3, Name: "Politics"},
		},
		sources: []source{
			{ID: 1, Name: "Wire", URL: "https://wire.example"},
			{ID: 2, Name: "Daily", URL: "https://daily.example"},
		},
	}
	m.users["reader@example.com"] = &account{ID: 1, FullName: "Test Reader", Email: "reader@example.com", password: "secret"}

	mux := http.NewServeMux()
	m.routes(mux)

	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.requestCount++
		m.pathCounts[r.URL.Path]++
		m.lastHeader = r.Header.Clone()
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			m.conditionalCount++
		}
		override, ok := m.overrides[r.URL.Path]
		m.mu.Unlock()

		if ok {
			override(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	return m
}

// URL returns the server root.
func (m *MockSynapse) URL() string {
	return m.server.URL
}

// APIURL returns the base URL clients should use.
func (m *MockSynapse) APIURL() string {
	return m.server.URL + "/api"
}

// Close shuts down the server.
func (m *MockSynapse) Close() {
	m.server.Close()
}

// AddArticles appends n articles to topicID and returns them.
func (m *MockSynapse) AddArticles(topicID int64, n int) []Article {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := make([]Article, 0, n)
	for i := 0; i < n; i++ {
		m.nextID++
		a := Article{
			ID:          m.nextID,
			Title:       fmt.Sprintf("Article %d", m.nextID),
			Description: fmt.Sprintf("Topic %d story", topicID),
			URL:         fmt.Sprintf("https://news.example/%d", m.nextID),
			PublishedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.nextID) * time.Minute).Format(time.RFC3339),
			TopicID:     topicID,
		}
		m.articles = append(m.articles, a)
		added = append(added, a)
	}
	return added
}

// SetHandler overrides every route for path, which includes the /api prefix.
func (m *MockSynapse) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[path] = handler
}

// SetResponse overrides path with a canned response.
func (m *MockSynapse) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-r.Context().Done():
				return
			}
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// RequestCount returns the number of requests served.
func (m *MockSynapse) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestCount
}

// ConditionalCount returns the number of conditional requests.
func (m *MockSynapse) ConditionalCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conditionalCount
}

// PathCount returns the number of requests for path.
func (m *MockSynapse) PathCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pathCounts[path]
}

// LastHeader returns the headers of the most recent request.
func (m *MockSynapse) LastHeader() http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastHeader.Clone()
}

// SavedIDs returns the ids user 1 has saved, in save order.
func (m *MockSynapse) SavedIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.saved[1]...)
}

// HistoryIDs returns the ids user 1 has read, most recent first.
func (m *MockSynapse) HistoryIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.history[1]...)
}

func (m *MockSynapse) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/users/register", m.register)
	mux.HandleFunc("POST /api/users/login", m.login)
	mux.HandleFunc("POST /api/users/logout", m.logout)
	mux.HandleFunc("GET /api/users/profile", m.authed(m.profile))
	mux.HandleFunc("PUT /api/users/profile/update", m.authed(m.updateProfile))
	mux.HandleFunc("PUT /api/users/profile/change_password", m.authed(m.changePassword))

	mux.HandleFunc("GET /api/news/{$}", m.authed(m.newsPage(func(*account, Article) bool { return true })))
	mux.HandleFunc("GET /api/news/for-you", m.authed(m.newsPage(m.preferred)))
	mux.HandleFunc("GET /api/news/topic/{topic}", m.authed(m.topicNews))
	mux.HandleFunc("GET /api/news/saved", m.authed(m.savedNews))
	mux.HandleFunc("GET /api/news/history", m.authed(m.historyNews))
	mux.HandleFunc("GET /api/news/{id}", m.authed(m.newsByID))
	mux.HandleFunc("POST /api/news/{id}/favorite", m.authed(m.favorite))
	mux.HandleFunc("PUT /api/news/{id}/favorite", m.authed(m.unfavorite))
	mux.HandleFunc("POST /api/news/{id}/history", m.authed(m.addHistory))

	mux.HandleFunc("GET /api/topics/standard", m.authed(m.standardTopics))
	mux.HandleFunc("GET /api/topics/custom", m.authed(m.customTopics))
	mux.HandleFunc("POST /api/topics/custom", m.authed(m.addCustomTopic))
	mux.HandleFunc("DELETE /api/topics/custom/{id}", m.authed(m.removeCustomTopic))

	mux.HandleFunc("GET /api/news_sources/list_all", m.authed(m.allSources))
	mux.HandleFunc("GET /api/news_sources/list_all_attached_sources", m.authed(m.attachedSources))
	mux.HandleFunc("POST /api/news_sources/attach", m.authed(m.attachSource))
	mux.HandleFunc("DELETE /api/news_sources/detach/{id}", m.authed(m.detachSource))
}

type authedHandler func(w http.ResponseWriter, r *http.Request, user *account)

// authed resolves the access cookie and enforces the CSRF header on
// mutating requests.
func (m *MockSynapse) authed(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(AccessCookie)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Missing access token")
			return
		}
		m.mu.Lock()
		user := m.tokens[cookie.Value]
		m.mu.Unlock()
		if user == nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		if r.Method != http.MethodGet {
			csrf, err := r.Cookie(CSRFCookie)
			if err != nil || r.Header.Get("X-CSRF-TOKEN") != csrf.Value {
				writeError(w, http.StatusUnauthorized, "Missing CSRF token")
				return
			}
		}
		next(w, r, user)
	}
}

func (m *MockSynapse) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" {
		writeError(w, http.StatusBadRequest, "Invalid registration")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[body.Email]; exists {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}
	m.nextID++
	m.users[body.Email] = &account{ID: m.nextID, FullName: body.FullName, Email: body.Email, password: body.Password}
	writeEnvelope(w, http.StatusCreated, "User registered", nil)
}

func (m *MockSynapse) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	m.mu.Lock()
	user := m.users[body.Email]
	if user == nil || user.password != body.Password {
		m.mu.Unlock()
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	token := fmt.Sprintf("token-%d-%d", user.ID, time.Now().UnixNano())
	m.tokens[token] = user
	profile := *user
	m.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: AccessCookie, Value: token, Path: "/", HttpOnly: true})
	http.SetCookie(w, &http.Cookie{Name: CSRFCookie, Value: "csrf-" + token, Path: "/"})
	writeEnvelope(w, http.StatusOK, "Login successful", profile)
}

func (m *MockSynapse) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(AccessCookie); err == nil {
		m.mu.Lock()
		delete(m.tokens, cookie.Value)
		m.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: AccessCookie, Value: "", Path: "/", MaxAge: -1})
	http.SetCookie(w, &http.Cookie{Name: CSRFCookie, Value: "", Path: "/", MaxAge: -1})
	writeEnvelope(w, http.StatusOK, "Logout successful", nil)
}

func (m *MockSynapse) profile(w http.ResponseWriter, r *http.Request, user *account) {
	m.mu.Lock()
	profile := *user
	m.mu.Unlock()
	writeCached(w, r, profile)
}

func (m *MockSynapse) updateProfile(w http.ResponseWriter, r *http.Request, user *account) {
	var body struct {
		FullName  string `json:"full_name"`
		Email     string `json:"email"`
		Birthdate string `json:"birthdate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid profile")
		return
	}
	m.mu.Lock()
	if body.FullName != "" {
		user.FullName = body.FullName
	}
	if body.Birthdate != "" {
		user.Birthdate = body.Birthdate
	}
	m.mu.Unlock()
	writeEnvelope(w, http.StatusOK, "Profile updated", nil)
}

func (m *MockSynapse) changePassword(w http.ResponseWriter, r *http.Request, user *account) {
	var body struct {
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "New password required")
		return
	}
	m.mu.Lock()
	user.password = body.NewPassword
	m.mu.Unlock()
	writeEnvelope(w, http.StatusOK, "Password changed", nil)
}

func (m *MockSynapse) preferred(user *account, a Article) bool {
	for _, t := range m.custom[user.ID] {
		if t.ID == a.TopicID {
			return true
		}
	}
	return len(m.custom[user.ID]) == 0
}

func (m *MockSynapse) newsPage(keep func(*account, Article) bool) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, user *account) {
		m.mu.Lock()
		var list []Article
		for i := len(m.articles) - 1; i >= 0; i-- {
			if keep(user, m.articles[i]) {
				list = append(list, m.articles[i])
			}
		}
		m.mu.Unlock()
		m.writePage(w, r, list, 10)
	}
}

func (m *MockSynapse) topicNews(w http.ResponseWriter, r *http.Request, user *account) {
	topicID, err := strconv.ParseInt(r.PathValue("topic"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid topic")
		return
	}
	m.newsPage(func(_ *account, a Article) bool { return a.TopicID == topicID })(w, r, user)
}

func (m *MockSynapse) savedNews(w http.ResponseWriter, r *http.Request, user *account) {
	m.mu.Lock()
	list := m.lookup(m.saved[user.ID])
	m.mu.Unlock()
	writeCached(w, r, list)
}

func (m *MockSynapse) historyNews(w http.ResponseWriter, r *http.Request, user *account) {
	m.mu.Lock()
	list := m.lookup(m.history[user.ID])
	m.mu.Unlock()
	m.writePage(w, r, list, 50)
}

func (m *MockSynapse) newsByID(w http.ResponseWriter, r *http.Request, _ *account) {
	a, ok := m.article(r)
	if !ok {
		writeError(w, http.StatusNotFound, "News not found")
		return
	}
	writeCached(w, r, a)
}

func (m *MockSynapse) favorite(w http.ResponseWriter, r *http.Request, user *account) {
	a, ok := m.article(r)
	if !ok {
		writeError(w, http.StatusNotFound, "News not found")
		return
	}
	m.mu.Lock()
	if !contains(m.saved[user.ID], a.ID) {
		m.saved[user.ID] = append(m.saved[user.ID], a.ID)
	}
	m.mu.Unlock()
	writeEnvelope(w, http.StatusOK, "News saved", nil)
}

func (m *MockSynapse) unfavorite(w http.ResponseWriter, r *http.Request, user *account) {
	a, ok := m.article(r)
	if !ok {
		writeError(w, http.StatusNotFound, "News not found")
		return
	}
	m.mu.Lock()
	m.saved[user.ID] = without(m.saved[user.ID], a.ID)
	m.mu.Unlock()
	writeEnvelope(w, http.StatusOK, "News removed", nil)
}

func (m *MockSynapse) addHistory(w http.ResponseWriter, r *http.Request, user *account) {
	a, ok := m.article(r)
	if !ok {
		writeError(w, http.StatusNotFound, "News not found")
		return
	}
	m.mu.Lock()
	m.history[user.ID] = append([]int64{a.ID}, without(m.history[user.ID], a.ID)...)
	m.mu.Unlock()
	writeEnvelope(w, http.StatusOK, "History updated", nil)
}

func (m *MockSynapse) standardTopics(w http.ResponseWriter, r *http.Request, _ *account) {
	m.mu.Lock()
	list := append([]topic(nil), m.topics...)
	m.mu.Unlock()
	writeCached(w, r, list)
}

func (m *MockSynapse) customTopics(w http.ResponseWriter, r *http.Request, user *account) {
	m.mu.Lock()
	list := append([]topic{}, m.custom[user.ID]...)
	m.mu.Unlock()
	writeCached(w, r, list)
}

func (m *MockSynapse) addCustomTopic(w http.ResponseWriter, r *http.Request, user *account) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeError(w, http.StatusBadRequest, "Topic name required")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.custom[user.ID] {
		if t.Name == body.Name {
			writeError(w, http.StatusConflict, "Topic already added")
			return
		}
	}
	t := topic{Name: body.Name, State: 1}
	for _, std := range m.topics {
		if std.Name == body.Name {
			t.ID = std.ID
		}
	}
	if t.ID == 0 {
		m.nextID++
		t.ID = m.nextID
	}
	m.custom[user.ID] = append(m.custom[user.ID], t)
	writeEnvelope(w, http.StatusCreated, "Topic added", t)
}

func (m *MockSynapse) removeCustomTopic(w http.ResponseWriter, r *http.Request, user *account) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid topic")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.custom[user.ID]
	for i, t := range list {
		if t.ID == id {
			m.custom[user.ID] = append(list[:i:i], list[i+1:]...)
			writeEnvelope(w, http.StatusOK, "Topic removed", nil)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Topic not found")
}

func (m *MockSynapse) allSources(w http.ResponseWriter, r *http.Request, _ *account) {
	m.mu.Lock()
	list := append([]source(nil), m.sources...)
	m.mu.Unlock()
	writeCached(w, r, list)
}

func (m *MockSynapse) attachedSources(w http.ResponseWriter, r *http.Request, user *account) {
	m.mu.Lock()
	list := []source{}
	for _, s := range m.sources {
		if m.attached[user.ID][s.ID] {
			list = append(list, s)
		}
	}
	m.mu.Unlock()
	writeCached(w, r, list)
}

func (m *MockSynapse) attachSource(w http.ResponseWriter, r *http.Request, user *account) {
	var body struct {
		SourceID int64 `json:"source_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || !m.hasSource(body.SourceID) {
		writeError(w, http.StatusNotFound, "Source not found")
		return
	}
	m.mu.Lock()
	if m.attached[user.ID] == nil {
		m.attached[user.ID] = make(map[int64]bool)
	}
	m.attached[user.ID][body.SourceID] = true
	m.mu.Unlock()
	writeEnvelope(w, http.StatusOK, "Source attached", nil)
}

func (m *MockSynapse) detachSource(w http.ResponseWriter, r *http.Request, user *account) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || !m.hasSource(id) {
		writeError(w, http.StatusNotFound, "Source not found")
		return
	}
	m.mu.Lock()
	delete(m.attached[user.ID], id)
	m.mu.Unlock()
	writeEnvelope(w, http.StatusOK, "Source detached", nil)
}

func (m *MockSynapse) hasSource(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sources {
		if s.ID == id {
			return true
		}
	}
	return false
}

func (m *MockSynapse) article(r *http.Request) (Article, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return Article{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.ID == id {
			return a, true
		}
	}
	return Article{}, false
}

// lookup resolves ids to articles; caller holds mu.
func (m *MockSynapse) lookup(ids []int64) []Article {
	byID := make(map[int64]Article, len(m.articles))
	for _, a := range m.articles {
		byID[a.ID] = a
	}
	list := make([]Article, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			list = append(list, a)
		}
	}
	return list
}

func (m *MockSynapse) writePage(w http.ResponseWriter, r *http.Request, list []Article, defaultPerPage int) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", defaultPerPage)

	pages := (len(list) + perPage - 1) / perPage
	if pages == 0 {
		pages = 1
	}
	start := (page - 1) * perPage
	if start > len(list) {
		start = len(list)
	}
	end := start + perPage
	if end > len(list) {
		end = len(list)
	}
	items := append([]Article{}, list[start:end]...)

	m.mu.Lock()
	omit := m.OmitPagination
	m.mu.Unlock()
	if omit {
		writeCached(w, r, items)
		return
	}
	writeCached(w, r, map[string]any{
		"news":       items,
		"pagination": map[string]int{"page": page, "pages": pages, "per_page": perPage, "total": len(list)},
	})
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 1 {
		return def
	}
	return v
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func without(ids []int64, id int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// writeCached writes data in an envelope with an ETag derived from the
// body, answering 304 when it matches If-None-Match.
func writeCached(w http.ResponseWriter, r *http.Request, data any) {
	body, err := json.Marshal(map[string]any{"success": true, "data": data})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sum := sha256.Sum256(body)
	etag := `"` + hex.EncodeToString(sum[:8]) + `"`

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "private, max-age=60")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func writeEnvelope(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": true, "message": message, "data": data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "error": message})
}

// NewRateLimitResponse creates a 429 with a Retry-After of seconds.
func NewRateLimitResponse(seconds int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"success": false, "error": "Rate limit exceeded"}`,
		Headers: map[string]string{
			"Retry-After":           strconv.Itoa(seconds),
			"X-RateLimit-Remaining": "0",
			"X-RateLimit-Reset":     strconv.Itoa(seconds),
			"Content-Type":          "application/json",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"success": false, "error": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewPageResponse serves body verbatim with status 200, for shape tests.
func NewPageResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// SortedPaths lists the paths requested so far, for debugging failed tests.
func (m *MockSynapse) SortedPaths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.pathCounts))
	for p := range m.pathCounts {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
