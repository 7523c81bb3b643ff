// Package httpclient is a small HTTP client for calls the edge makes to
// itself and to its backend: base URL resolution, default headers, a
// per-attempt timeout, classified errors and optional retry.
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "http://localhost:8080",
//	    Timeout: 5 * time.Second,
//	})
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method:       http.MethodGet,
//	    Path:         "/_health",
//	    ExpectStatus: http.StatusOK,
//	    Retry:        &retry,
//	})
package httpclient
