// Package mock implements an in-memory stand-in for a remote org. It routes
// the same method/path surface the real API exposes, so the client code under
// test runs unchanged. Wire it to a client with restforce.NewOrgDispatcher,
// or serve it over HTTP with cmd/restforce-sandbox.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/9re/restforce/internal/devseed"
)

// Response mirrors one HTTP exchange result: status, headers, raw JSON body.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Option configures the mock org.
type Option func(*Org)

// WithIDGenerator overrides how new record ids are minted (useful in tests).
func WithIDGenerator(fn func() string) Option {
	return func(o *Org) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// WithPageSize caps query result pages, forcing continuation URLs beyond the
// limit. Zero means unpaginated.
func WithPageSize(n int) Option {
	return func(o *Org) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

type objectStore struct {
	name    string
	records map[string]map[string]any
	order   []string
}

// Org is an in-memory collection of typed records with the routing of the
// remote REST surface on top.
type Org struct {
	mu        sync.RWMutex
	objects   map[string]*objectStore // keyed by lowercased type name
	typeOrder []string
	locators  map[string][]map[string]any
	newID     func() string
	pageSize  int
	seq       int
}

// New creates an empty org.
func New(opts ...Option) *Org {
	o := &Org{
		objects:  make(map[string]*objectStore),
		locators: make(map[string][]map[string]any),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SObjectSeed is re-exported so callers outside the module can build seed
// data without reaching into internal packages.
type SObjectSeed = devseed.SObjectSeed

// Seed loads initial records, typically decoded via devseed.LoadSObjectSeed.
// Records without an Id entry get a generated one.
func (o *Org) Seed(entries []SObjectSeed) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, e := range entries {
		if strings.TrimSpace(e.Type) == "" {
			return fmt.Errorf("mock org: seed entry missing object type")
		}
		store := o.storeLocked(e.Type)
		for _, fields := range e.Records {
			rec := copyFields(fields)
			id := stringValue(lookupFold(rec, "id"))
			if id == "" {
				id = o.newID()
				rec["Id"] = id
			}
			o.insertLocked(store, id, rec)
		}
	}
	return nil
}

// Records returns the stored records of one type in insertion order.
func (o *Org) Records(sobject string) []map[string]any {
	o.mu.RLock()
	defer o.mu.RUnlock()
	store := o.objects[strings.ToLower(sobject)]
	if store == nil {
		return nil
	}
	out := make([]map[string]any, 0, len(store.order))
	for _, id := range store.order {
		out = append(out, copyFields(store.records[id]))
	}
	return out
}

// Do routes one exchange the way the remote API would. Unknown paths come
// back as 404 with an API-shaped error body.
func (o *Org) Do(ctx context.Context, method, path string, query url.Values, body map[string]any) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	head, rest := splitResource(path)
	switch head {
	case "sobjects":
		return o.handleSObjects(method, rest, body)
	case "query", "queryAll":
		if len(rest) == 1 {
			return o.handleQueryMore(method, rest[0])
		}
		return o.handleQuery(method, query.Get("q"))
	case "search":
		return o.handleSearch(method, query.Get("q"))
	default:
		return errorResponse(http.StatusNotFound, "NOT_FOUND", "The requested resource does not exist"), nil
	}
}

// splitResource drops the versioned prefix and returns the resource head
// plus the remaining path segments.
func splitResource(path string) (string, []string) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		switch seg {
		case "sobjects", "query", "queryAll", "search":
			rest := make([]string, 0, len(segments)-i-1)
			for _, s := range segments[i+1:] {
				if decoded, err := url.PathUnescape(s); err == nil {
					s = decoded
				}
				rest = append(rest, s)
			}
			return seg, rest
		}
	}
	return "", nil
}

func (o *Org) handleSObjects(method string, rest []string, body map[string]any) (*Response, error) {
	switch {
	case len(rest) == 0:
		if method != http.MethodGet && method != http.MethodHead {
			return errorResponse(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "HTTP Method '"+method+"' not allowed"), nil
		}
		return o.describeGlobal(method == http.MethodHead), nil

	case len(rest) == 1:
		if method != http.MethodPost {
			return errorResponse(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "HTTP Method '"+method+"' not allowed"), nil
		}
		return o.create(rest[0], body), nil

	case len(rest) == 2 && rest[1] == "describe":
		return o.describe(rest[0]), nil

	case len(rest) == 2:
		sobject, id := rest[0], rest[1]
		switch method {
		case http.MethodGet, http.MethodHead:
			return o.find(sobject, id, method == http.MethodHead), nil
		case http.MethodPatch:
			return o.update(sobject, id, body), nil
		case http.MethodDelete:
			return o.destroy(sobject, id), nil
		}
		return errorResponse(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "HTTP Method '"+method+"' not allowed"), nil

	case len(rest) == 3:
		sobject, field, value := rest[0], rest[1], rest[2]
		switch method {
		case http.MethodGet, http.MethodHead:
			return o.findByField(sobject, field, value, method == http.MethodHead), nil
		case http.MethodPatch:
			return o.upsert(sobject, field, value, body), nil
		}
		return errorResponse(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "HTTP Method '"+method+"' not allowed"), nil
	}
	return errorResponse(http.StatusNotFound, "NOT_FOUND", "The requested resource does not exist"), nil
}

func (o *Org) describeGlobal(headOnly bool) *Response {
	o.mu.RLock()
	defer o.mu.RUnlock()

	summaries := make([]map[string]any, 0, len(o.typeOrder))
	for _, name := range o.typeOrder {
		summaries = append(summaries, map[string]any{
			"name":       name,
			"label":      name,
			"createable": true,
			"updateable": true,
			"deletable":  true,
			"queryable":  true,
			"searchable": true,
			"custom":     strings.HasSuffix(name, "__c"),
		})
	}
	if headOnly {
		return jsonResponse(http.StatusOK, nil)
	}
	return jsonResponse(http.StatusOK, map[string]any{
		"encoding":     "UTF-8",
		"maxBatchSize": 200,
		"sobjects":     summaries,
	})
}

func (o *Org) describe(sobject string) *Response {
	o.mu.RLock()
	store := o.objects[strings.ToLower(sobject)]
	o.mu.RUnlock()
	if store == nil {
		return errorResponse(http.StatusNotFound, "NOT_FOUND", "The requested resource does not exist")
	}

	fieldNames := map[string]bool{}
	for _, rec := range store.records {
		for name := range rec {
			fieldNames[name] = true
		}
	}
	fields := make([]map[string]any, 0, len(fieldNames))
	for name := range fieldNames {
		fields = append(fields, map[string]any{"name": name, "type": "string"})
	}
	return jsonResponse(http.StatusOK, map[string]any{
		"name":   store.name,
		"label":  store.name,
		"fields": fields,
	})
}

func (o *Org) create(sobject string, body map[string]any) *Response {
	if len(body) == 0 {
		return errorResponse(http.StatusBadRequest, "INVALID_FIELD", "Request body is required")
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	store := o.storeLocked(sobject)
	rec := copyFields(body)
	id := o.newID()
	rec["Id"] = id
	o.insertLocked(store, id, rec)
	return jsonResponse(http.StatusCreated, map[string]any{
		"id": id, "success": true, "errors": []any{},
	})
}

func (o *Org) find(sobject, id string, headOnly bool) *Response {
	o.mu.RLock()
	defer o.mu.RUnlock()

	store := o.objects[strings.ToLower(sobject)]
	if store == nil || store.records[id] == nil {
		return errorResponse(http.StatusNotFound, "NOT_FOUND", "Provided external ID field does not exist or is not accessible: "+id)
	}
	if headOnly {
		return jsonResponse(http.StatusOK, nil)
	}
	return jsonResponse(http.StatusOK, copyFields(store.records[id]))
}

func (o *Org) findByField(sobject, field, value string, headOnly bool) *Response {
	o.mu.RLock()
	defer o.mu.RUnlock()

	store := o.objects[strings.ToLower(sobject)]
	if store != nil {
		for _, id := range store.order {
			rec := store.records[id]
			if stringValue(lookupFold(rec, field)) == value {
				if headOnly {
					return jsonResponse(http.StatusOK, nil)
				}
				return jsonResponse(http.StatusOK, copyFields(rec))
			}
		}
	}
	return errorResponse(http.StatusNotFound, "NOT_FOUND", "Provided external ID field does not exist or is not accessible: "+value)
}

func (o *Org) update(sobject, id string, body map[string]any) *Response {
	o.mu.Lock()
	defer o.mu.Unlock()

	store := o.objects[strings.ToLower(sobject)]
	if store == nil || store.records[id] == nil {
		return errorResponse(http.StatusNotFound, "NOT_FOUND", "Record not found: "+id)
	}
	for k, v := range body {
		store.records[id][k] = v
	}
	return jsonResponse(http.StatusNoContent, nil)
}

func (o *Org) upsert(sobject, field, value string, body map[string]any) *Response {
	o.mu.Lock()
	defer o.mu.Unlock()

	store := o.storeLocked(sobject)
	for _, id := range store.order {
		rec := store.records[id]
		if stringValue(lookupFold(rec, field)) == value {
			for k, v := range body {
				rec[k] = v
			}
			return jsonResponse(http.StatusNoContent, nil)
		}
	}

	rec := copyFields(body)
	rec[field] = value
	id := o.newID()
	rec["Id"] = id
	o.insertLocked(store, id, rec)
	return jsonResponse(http.StatusCreated, map[string]any{
		"id": id, "success": true, "errors": []any{},
	})
}

func (o *Org) destroy(sobject, id string) *Response {
	o.mu.Lock()
	defer o.mu.Unlock()

	store := o.objects[strings.ToLower(sobject)]
	if store == nil || store.records[id] == nil {
		return errorResponse(http.StatusNotFound, "NOT_FOUND", "Record not found: "+id)
	}
	delete(store.records, id)
	for i, existing := range store.order {
		if existing == id {
			store.order = append(store.order[:i], store.order[i+1:]...)
			break
		}
	}
	return jsonResponse(http.StatusNoContent, nil)
}

// handleQuery supports the subset of the query dialect the mock understands:
// the FROM type selects an object store and an optional trailing LIMIT caps
// the result. Everything else in the expression is ignored.
func (o *Org) handleQuery(method, soql string) (*Response, error) {
	if method != http.MethodGet {
		return errorResponse(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "HTTP Method '"+method+"' not allowed"), nil
	}
	sobject, limit, err := parseQueryExpression(soql)
	if err != nil {
		return errorResponse(http.StatusBadRequest, "MALFORMED_QUERY", err.Error()), nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	var matched []map[string]any
	if store := o.objects[strings.ToLower(sobject)]; store != nil {
		for _, id := range store.order {
			matched = append(matched, copyFields(store.records[id]))
		}
	}
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	total := len(matched)
	page := matched
	var nextURL string
	if o.pageSize > 0 && len(matched) > o.pageSize {
		page = matched[:o.pageSize]
		nextURL = o.stashLocked(matched[o.pageSize:])
	}

	return jsonResponse(http.StatusOK, queryPageBody(total, page, nextURL)), nil
}

func (o *Org) handleQueryMore(method, locator string) (*Response, error) {
	if method != http.MethodGet {
		return errorResponse(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "HTTP Method '"+method+"' not allowed"), nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	remainder, ok := o.locators[locator]
	if !ok {
		return errorResponse(http.StatusBadRequest, "INVALID_QUERY_LOCATOR", "invalid query locator"), nil
	}
	delete(o.locators, locator)

	page := remainder
	var nextURL string
	if o.pageSize > 0 && len(remainder) > o.pageSize {
		page = remainder[:o.pageSize]
		nextURL = o.stashLocked(remainder[o.pageSize:])
	}
	return jsonResponse(http.StatusOK, queryPageBody(len(remainder), page, nextURL)), nil
}

func (o *Org) handleSearch(method, sosl string) (*Response, error) {
	if method != http.MethodGet {
		return errorResponse(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "HTTP Method '"+method+"' not allowed"), nil
	}
	term := parseSearchTerm(sosl)
	if term == "" {
		return errorResponse(http.StatusBadRequest, "MALFORMED_SEARCH", "search term is required"), nil
	}

	o.mu.RLock()
	defer o.mu.RUnlock()

	var hits []map[string]any
	for _, name := range o.typeOrder {
		store := o.objects[strings.ToLower(name)]
		for _, id := range store.order {
			rec := store.records[id]
			for _, v := range rec {
				s, isString := v.(string)
				if isString && strings.Contains(strings.ToLower(s), strings.ToLower(term)) {
					hits = append(hits, copyFields(rec))
					break
				}
			}
		}
	}
	return jsonResponse(http.StatusOK, map[string]any{"searchRecords": hits}), nil
}

func (o *Org) storeLocked(sobject string) *objectStore {
	key := strings.ToLower(sobject)
	store := o.objects[key]
	if store == nil {
		store = &objectStore{
			name:    sobject,
			records: make(map[string]map[string]any),
		}
		o.objects[key] = store
		o.typeOrder = append(o.typeOrder, sobject)
	}
	return store
}

func (o *Org) insertLocked(store *objectStore, id string, rec map[string]any) {
	if _, exists := store.records[id]; !exists {
		store.order = append(store.order, id)
	}
	store.records[id] = rec
}

func (o *Org) stashLocked(remainder []map[string]any) string {
	o.seq++
	locator := "01g-mock-" + strconv.Itoa(o.seq)
	o.locators[locator] = remainder
	return "/services/data/v26.0/query/" + locator
}

func queryPageBody(total int, page []map[string]any, nextURL string) map[string]any {
	records := page
	if records == nil {
		records = []map[string]any{}
	}
	body := map[string]any{
		"totalSize": total,
		"done":      nextURL == "",
		"records":   records,
	}
	if nextURL != "" {
		body["nextRecordsUrl"] = nextURL
	}
	return body
}

// parseQueryExpression pulls the FROM type and optional LIMIT out of a query
// expression.
func parseQueryExpression(soql string) (sobject string, limit int, err error) {
	tokens := strings.Fields(soql)
	if len(tokens) == 0 {
		return "", 0, fmt.Errorf("query expression is required")
	}
	for i, tok := range tokens {
		switch strings.ToUpper(tok) {
		case "FROM":
			if i+1 < len(tokens) {
				sobject = tokens[i+1]
			}
		case "LIMIT":
			if i+1 < len(tokens) {
				limit, _ = strconv.Atoi(tokens[i+1])
			}
		}
	}
	if sobject == "" {
		return "", 0, fmt.Errorf("missing FROM clause")
	}
	return sobject, limit, nil
}

// parseSearchTerm accepts either a bare term or the FIND {term} dialect.
func parseSearchTerm(sosl string) string {
	trimmed := strings.TrimSpace(sosl)
	if open := strings.Index(trimmed, "{"); open >= 0 {
		if close := strings.Index(trimmed[open:], "}"); close > 0 {
			return trimmed[open+1 : open+close]
		}
	}
	return trimmed
}

// lookupFold resolves a field case-insensitively; keys are scanned in
// lexicographic order so the pick is deterministic when case variants
// collide.
func lookupFold(rec map[string]any, name string) any {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.EqualFold(k, name) {
			return rec[k]
		}
	}
	return nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func copyFields(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func jsonResponse(status int, body any) *Response {
	resp := &Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errorResponse(http.StatusInternalServerError, "JSON_ENCODING_ERROR", err.Error())
		}
		resp.Body = data
	}
	return resp
}

func errorResponse(status int, code, message string) *Response {
	body, _ := json.Marshal([]map[string]any{{
		"message":   message,
		"errorCode": code,
	}})
	return &Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       body,
	}
}
