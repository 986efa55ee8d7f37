// Package feedclient drives a rendered archivefeed page from Go: it reads the
// feed form out of the page, sends filter and load-more requests to the async
// endpoint and reconciles the returned fragments into the document.
//
// # Usage
//
//	ctrl, _ := feedclient.Open(ctx, "https://example.com/feeds/news/")
//	defer ctrl.Close()
//
//	ctrl.OnUpdate(func(ev feedclient.Event) { log.Println(ev.State) })
//	_ = ctrl.Change(ctx, "filter-category", "events")
//	_ = ctrl.LoadMore(ctx)
//	ctrl.Search("release notes") // debounced
//
//	html, _ := ctrl.HTML()
//
// A controller moves through Idle, Loading and then Done or None. None means
// every matching item has been loaded and the load-more control is hidden.
// Responses older than one already applied are discarded.
package feedclient
