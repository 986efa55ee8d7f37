package feedclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/kailas-cloud/archivefeed/internal/domain/feed/filter"
)

// Region selectors of a rendered feed.
const (
	formSelector       = "form.cty-archive__form"
	featuredSelector   = ".cty-archive-featured"
	postsSelector      = ".cty-archive-posts"
	paginationSelector = ".cty-archive-pagination"
	loadMoreSelector   = ".cty-archive-pagination__button"
	summarySelector    = ".cty-archive-summary"
	searchSelector     = `input[type="search"]`
	filterSelector     = ".cty-archive-filter"
	filterRowSelector  = ".cty-archive-filter__inner"
	seeMoreSelector    = ".cty-archive-filter__see-more"

	noneClass    = "cty-archive__form--none"
	loadingClass = "cty-archive__form--loading"
	hiddenClass  = "is-hidden"
)

// ErrStale is returned when a response arrives after a newer one was applied.
var ErrStale = errors.New("stale feed response")

// ErrClosed is returned by calls on a closed controller.
var ErrClosed = errors.New("feed controller closed")

// State is the lifecycle state of a controller.
type State int

// Controller states.
const (
	Idle State = iota
	Loading
	Done
	None
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Done:
		return "done"
	case None:
		return "none"
	default:
		return "unknown"
	}
}

// Event is emitted after a response has been reconciled into the document.
type Event struct {
	State    State
	Append   bool
	Response Response
}

// Filterer sends async feed requests. *Client implements it.
type Filterer interface {
	Filter(ctx context.Context, req Request) (Response, error)
}

// Controller drives one feed form of a document.
type Controller struct {
	client    Filterer
	debounce  time.Duration
	history   func(string)
	logger    *slog.Logger
	name      string
	sessionID string
	nonce     string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	doc       *goquery.Document
	form      *goquery.Selection
	state     State
	offset    *int
	seq       uint64
	applied   uint64
	timer     *time.Timer
	closed    bool
	listeners []func(Event)
}

// New binds a controller to the feed form of doc.
func New(doc *goquery.Document, client Filterer, opts ...Option) (*Controller, error) {
	cfg := &controllerConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	return newController(doc, client, cfg)
}

// Open fetches pageURL, parses it and binds a controller whose client
// targets the form's data-endpoint resolved against the page.
func Open(ctx context.Context, pageURL string, opts ...Option) (*Controller, error) {
	cfg := &controllerConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build page request: %w", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	form, err := findForm(doc, cfg.feedName)
	if err != nil {
		return nil, err
	}
	ref, err := url.Parse(form.AttrOr("data-endpoint", "/feed-action"))
	if err != nil {
		return nil, fmt.Errorf("parse data-endpoint: %w", err)
	}

	return newController(doc, NewClient(base.ResolveReference(ref).String(), hc), cfg)
}

func newController(doc *goquery.Document, client Filterer, cfg *controllerConfig) (*Controller, error) {
	form, err := findForm(doc, cfg.feedName)
	if err != nil {
		return nil, err
	}
	sessionID := form.AttrOr("data-unique_id", "")
	if sessionID == "" {
		return nil, errors.New("feed form has no data-unique_id")
	}

	debounce := cfg.debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
		if ms, err := strconv.Atoi(form.Find(searchSelector).AttrOr("data-debounce", "")); err == nil && ms > 0 {
			debounce = time.Duration(ms) * time.Millisecond
		}
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	// A feed rendered with nothing left to load starts exhausted.
	state := Idle
	if form.HasClass(noneClass) {
		state = None
		form.Find(loadMoreSelector).SetAttr("hidden", "hidden")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		client:    client,
		debounce:  debounce,
		history:   cfg.history,
		logger:    logger,
		name:      form.AttrOr("name", ""),
		sessionID: sessionID,
		nonce:     form.AttrOr("data-nonce", ""),
		ctx:       ctx,
		cancel:    cancel,
		doc:       doc,
		form:      form,
		state:     state,
	}, nil
}

func findForm(doc *goquery.Document, name string) (*goquery.Selection, error) {
	forms := doc.Find(formSelector)
	if name != "" {
		forms = forms.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.AttrOr("name", "") == name
		})
	}
	if forms.Length() == 0 {
		if name != "" {
			return nil, fmt.Errorf("feed form %q not found", name)
		}
		return nil, errors.New("feed form not found")
	}
	return forms.First(), nil
}

// OnUpdate registers fn to run after every applied response.
func (c *Controller) OnUpdate(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Offset returns the last offset reported by the server, if any.
func (c *Controller) Offset() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.offset == nil {
		return 0, false
	}
	return *c.offset, true
}

// SessionID returns the feed session the form is bound to.
func (c *Controller) SessionID() string { return c.sessionID }

// Params returns the current serialisation of the form.
func (c *Controller) Params() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return serialize(c.form)
}

// HTML returns the current markup of the whole document.
func (c *Controller) HTML() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	html, err := c.doc.Html()
	if err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	return html, nil
}

// Change sets a filter or sort control and submits the form, replacing the
// loaded items and resetting the offset.
func (c *Controller) Change(ctx context.Context, name string, values ...string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.stopTimer()
	setControl(c.form, name, values)
	c.mu.Unlock()
	return c.submit(ctx, false)
}

// Search sets the search input and submits once input has been quiet for
// the debounce period. Earlier pending submissions are dropped.
func (c *Controller) Search(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.form.Find(searchSelector).SetAttr("value", value)
	c.stopTimer()
	c.timer = time.AfterFunc(c.debounce, c.fireSearch)
}

// SeeMore reveals the collapsed options of the filter control whose inputs
// carry data-filter=filter and removes its "See More" toggle.
func (c *Controller) SeeMore(filter string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	wrapper := c.form.Find(filterSelector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Find("[data-filter]").FilterFunction(func(_ int, in *goquery.Selection) bool {
			return in.AttrOr("data-filter", "") == filter
		}).Length() > 0
	}).First()
	if wrapper.Length() == 0 {
		return fmt.Errorf("filter %q not found", filter)
	}
	wrapper.Find(filterRowSelector).RemoveClass(hiddenClass)
	wrapper.Find(seeMoreSelector).Remove()
	return nil
}

// LoadMore appends the next page onto the last sub-feed.
func (c *Controller) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()
	return c.submit(ctx, true)
}

// Close cancels pending searches and waits for submissions they started.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.stopTimer()
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
}

func (c *Controller) fireSearch() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()
	defer c.wg.Done()

	if err := c.submit(c.ctx, false); err != nil && !errors.Is(err, ErrStale) && !errors.Is(err, context.Canceled) {
		c.logger.Warn("feed search failed", slog.String("feed", c.name), slog.Any("error", err))
	}
}

// stopTimer drops a pending search. Callers hold mu.
func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) submit(ctx context.Context, appendMode bool) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	if !appendMode {
		c.offset = nil
	}
	req := Request{
		Nonce:     c.nonce,
		FeedName:  c.name,
		SessionID: c.sessionID,
		Params:    serialize(c.form),
		Append:    appendValue(appendMode, c.offset),
	}
	c.state = Loading
	c.form.AddClass(loadingClass)
	c.mu.Unlock()

	resp, err := c.client.Filter(ctx, req)

	c.mu.Lock()
	if seq < c.applied {
		c.mu.Unlock()
		return ErrStale
	}
	if err != nil {
		if seq == c.seq {
			c.state = Idle
			c.form.RemoveClass(loadingClass)
		}
		c.mu.Unlock()
		return err
	}
	c.applied = seq
	ev := c.apply(resp, appendMode)
	listeners := slices.Clone(c.listeners)
	history := c.history
	c.mu.Unlock()

	if history != nil {
		history(filter.ShareableQuery(req.Params))
	}
	for _, fn := range listeners {
		fn(ev)
	}
	return nil
}

// apply reconciles resp into the document. Callers hold mu.
func (c *Controller) apply(resp Response, appendMode bool) Event {
	c.doc.Find(featuredSelector).Remove()

	regions := c.form.Find(postsSelector)
	if appendMode {
		regions.Last().AppendHtml(strings.Join(resp.PostItems, ""))
	} else {
		for i, html := range resp.PostItems {
			if i >= regions.Length() {
				break
			}
			regions.Eq(i).SetHtml(html)
		}
	}

	if resp.Pagination != nil {
		c.form.Find(paginationSelector).SetHtml(*resp.Pagination)
	}
	if resp.Summary != nil {
		c.form.Find(summarySelector).SetHtml(*resp.Summary)
	}

	c.offset = resp.Offset
	c.form.RemoveClass(loadingClass)
	loadMore := c.form.Find(loadMoreSelector)
	if resp.Exhausted() {
		c.state = None
		c.form.AddClass(noneClass)
		loadMore.SetAttr("hidden", "hidden")
	} else {
		c.state = Done
		c.form.RemoveClass(noneClass)
		loadMore.RemoveAttr("hidden")
	}

	return Event{State: c.state, Append: appendMode, Response: resp}
}

func appendValue(appendMode bool, offset *int) string {
	switch {
	case !appendMode:
		return "false"
	case offset != nil:
		return strconv.Itoa(*offset)
	default:
		return "true"
	}
}
