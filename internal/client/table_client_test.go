package client

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"pool_monitor/internal/entity"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"go.uber.org/zap"
)

const testEndpoint = "http://chain.test/v1/chain/get_table_rows"

func startNode(t *testing.T, handler fasthttp.RequestHandler) *fasthttp.Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	go func() {
		_ = fasthttp.Serve(ln, handler)
	}()
	t.Cleanup(func() { _ = ln.Close() })

	return &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) {
			return ln.Dial()
		},
	}
}

func TestGetTableRowsSendsRequestAndDecodesPage(t *testing.T) {
	var got entity.TableRowsRequest
	httpClient := startNode(t, func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Method()) != fasthttp.MethodPost {
			ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
			return
		}
		if err := json.Unmarshal(ctx.PostBody(), &got); err != nil {
			ctx.SetStatusCode(fasthttp.StatusBadRequest)
			return
		}
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"rows":[{"id":1,"token_a":"8,WAX"}],"more":true,"next_key":"42"}`)
	})

	c := NewTableClient(testEndpoint, time.Second, zap.NewNop(), WithHTTPClient(httpClient))
	page, err := c.GetTableRows(context.Background(), "taco", entity.TableRowsRequest{
		JSON: true, Code: "swap.taco", Scope: "swap.taco", Table: "pairs", Limit: 100, LowerBound: "7",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !got.JSON || got.Code != "swap.taco" || got.Scope != "swap.taco" || got.Table != "pairs" || got.Limit != 100 || got.LowerBound != "7" {
		t.Fatalf("unexpected request body: %+v", got)
	}
	if len(page.Rows) != 1 || page.Rows[0]["token_a"] != "8,WAX" {
		t.Fatalf("unexpected rows: %+v", page.Rows)
	}
	if !page.More || page.NextKey != "42" {
		t.Fatalf("unexpected pagination: more=%v next=%q", page.More, page.NextKey)
	}
}

func TestGetTableRowsNumericNextKey(t *testing.T) {
	httpClient := startNode(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`{"rows":[],"more":true,"next_key":12345678901234}`)
	})

	c := NewTableClient(testEndpoint, time.Second, zap.NewNop(), WithHTTPClient(httpClient))
	page, err := c.GetTableRows(context.Background(), "box", entity.TableRowsRequest{JSON: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.NextKey != "12345678901234" {
		t.Fatalf("unexpected next key %q", page.NextKey)
	}
	if page.Rows == nil {
		t.Fatalf("expected empty, non-nil rows")
	}
}

func TestGetTableRowsFailures(t *testing.T) {
	cases := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		malformed  bool
	}{
		{name: "server error", status: fasthttp.StatusInternalServerError, body: `oops`, wantStatus: 500},
		{name: "garbage body", status: fasthttp.StatusOK, body: `not json`, malformed: true},
		{name: "missing rows", status: fasthttp.StatusOK, body: `{"more":false}`, malformed: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			httpClient := startNode(t, func(ctx *fasthttp.RequestCtx) {
				ctx.SetStatusCode(tc.status)
				ctx.SetBodyString(tc.body)
			})

			c := NewTableClient(testEndpoint, time.Second, zap.NewNop(), WithHTTPClient(httpClient))
			_, err := c.GetTableRows(context.Background(), "alcor", entity.TableRowsRequest{LowerBound: "9"})

			var pfe *entity.PageFetchError
			if !errors.As(err, &pfe) {
				t.Fatalf("expected PageFetchError, got %v", err)
			}
			if pfe.Source != "alcor" || pfe.Cursor != "9" {
				t.Fatalf("unexpected error context: %+v", pfe)
			}
			if pfe.StatusCode != tc.wantStatus {
				t.Fatalf("unexpected status %d", pfe.StatusCode)
			}
			if errors.Is(err, entity.ErrMalformedResponse) != tc.malformed {
				t.Fatalf("malformed mismatch for %v", err)
			}
		})
	}
}

func TestGetTableRowsTransportError(t *testing.T) {
	httpClient := &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) {
			return nil, errors.New("connection refused")
		},
	}

	c := NewTableClient(testEndpoint, time.Second, zap.NewNop(), WithHTTPClient(httpClient))
	_, err := c.GetTableRows(context.Background(), "taco", entity.TableRowsRequest{})

	var pfe *entity.PageFetchError
	if !errors.As(err, &pfe) {
		t.Fatalf("expected PageFetchError, got %v", err)
	}
	if pfe.StatusCode != 0 {
		t.Fatalf("transport errors carry no status, got %d", pfe.StatusCode)
	}
}
