package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/juicecola/construct-agent/internal/domain"
	"github.com/juicecola/construct-agent/internal/fulfillment"
	"github.com/juicecola/construct-agent/internal/intent"
	"github.com/juicecola/construct-agent/internal/store"
)

// stubQuerier returns a canned result and records the keys it was asked for.
type stubQuerier struct {
	res  *intent.Result
	err  error
	keys []string
	text []string
}

func (s *stubQuerier) DetectIntent(_ context.Context, sessionKey, text string) (*intent.Result, error) {
	s.keys = append(s.keys, sessionKey)
	s.text = append(s.text, text)
	return s.res, s.err
}

type stubSender struct {
	messages []string
	err      error
}

func (s *stubSender) Send(_ context.Context, _ []string, message string) error {
	s.messages = append(s.messages, message)
	return s.err
}

type testServer struct {
	URL     string
	client  *http.Client
	stores  *store.Stores
	querier *stubQuerier
	sender  *stubSender
	close   func()
}

func newTestServer(t *testing.T, querier *stubQuerier) *testServer {
	t.Helper()
	stores := store.New()
	sender := &stubSender{}
	dispatcher := fulfillment.NewDispatcher(stores, sender, "+254700000911")
	handler, err := New(Config{Stores: stores, Intent: querier, Dispatcher: dispatcher})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	ts := &testServer{
		URL:     "http://" + ln.Addr().String(),
		client:  &http.Client{},
		stores:  stores,
		querier: querier,
		sender:  sender,
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
		},
	}
	t.Cleanup(ts.close)
	return ts
}

func postForm(t *testing.T, client *http.Client, url string, form url.Values) (*http.Response, string) {
	t.Helper()
	res, err := client.PostForm(url, form)
	if err != nil {
		t.Fatalf("post form: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, string(data)
}

func postJSON(t *testing.T, client *http.Client, url string, body any) (*http.Response, []byte) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	res, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post json: %v", err)
	}
	defer res.Body.Close()
	out, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, out
}

func TestIncomingSMSAcknowledges(t *testing.T) {
	querier := &stubQuerier{res: &intent.Result{Messages: []string{"ignored"}}}
	srv := newTestServer(t, querier)

	res, body := postForm(t, srv.client, srv.URL+"/webhooks/incoming_sms", url.Values{
		"from": {"+254711000111"},
		"text": {"hazard at gate"},
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
	if body != "SMS Received" {
		t.Fatalf("body %q", body)
	}
	if len(querier.keys) != 1 || querier.keys[0] != "sms_254711000111" {
		t.Fatalf("queried keys %v", querier.keys)
	}
	if querier.text[0] != "hazard at gate" {
		t.Fatalf("queried text %q", querier.text[0])
	}
}

func TestIncomingSMSMissingFields(t *testing.T) {
	srv := newTestServer(t, &stubQuerier{})

	res, body := postForm(t, srv.client, srv.URL+"/webhooks/incoming_sms", url.Values{"from": {"+254711000111"}})
	if res.StatusCode != http.StatusOK || body != "Missing required fields" {
		t.Fatalf("got %d %q", res.StatusCode, body)
	}

	res, body = postForm(t, srv.client, srv.URL+"/webhooks/incoming_sms", url.Values{"text": {"hello"}})
	if res.StatusCode != http.StatusOK || body != "Missing required fields" {
		t.Fatalf("got %d %q", res.StatusCode, body)
	}
	if len(srv.querier.keys) != 0 {
		t.Fatalf("engine must not be queried on malformed input, got %v", srv.querier.keys)
	}
}

func TestIncomingSMSEmptyTextIsAccepted(t *testing.T) {
	srv := newTestServer(t, &stubQuerier{})
	res, body := postForm(t, srv.client, srv.URL+"/webhooks/incoming_sms", url.Values{
		"from": {"+254711000111"},
		"text": {""},
	})
	if res.StatusCode != http.StatusOK || body != "SMS Received" {
		t.Fatalf("got %d %q", res.StatusCode, body)
	}
}

func TestIncomingUSSDContinues(t *testing.T) {
	querier := &stubQuerier{res: &intent.Result{Messages: []string{"Welcome", "Pick an option"}}}
	srv := newTestServer(t, querier)

	res, body := postForm(t, srv.client, srv.URL+"/webhooks/incoming_ussd", url.Values{
		"sessionId":   {"ATUid_1"},
		"phoneNumber": {"+254711000111"},
		"text":        {"1"},
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
	if body != "CON Welcome\nPick an option" {
		t.Fatalf("body %q", body)
	}
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type %q", ct)
	}
	if querier.keys[0] != "ussd_254711000111_ATUid_1" {
		t.Fatalf("queried key %q", querier.keys[0])
	}
}

func TestIncomingUSSDEnds(t *testing.T) {
	querier := &stubQuerier{res: &intent.Result{Messages: []string{"Bye"}, EndInteraction: true}}
	srv := newTestServer(t, querier)

	_, body := postForm(t, srv.client, srv.URL+"/webhooks/incoming_ussd", url.Values{
		"sessionId":   {"ATUid_1"},
		"phoneNumber": {"+254711000111"},
	})
	if body != "END Bye" {
		t.Fatalf("body %q", body)
	}
}

func TestIncomingUSSDMissingIdentity(t *testing.T) {
	srv := newTestServer(t, &stubQuerier{})
	res, body := postForm(t, srv.client, srv.URL+"/webhooks/incoming_ussd", url.Values{
		"text": {"1"},
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
	if body != "END Service error. Please try again." {
		t.Fatalf("body %q", body)
	}
}

func TestIncomingUSSDEngineUnavailable(t *testing.T) {
	srv := newTestServer(t, &stubQuerier{}) // nil result, nil error: engine disabled
	_, body := postForm(t, srv.client, srv.URL+"/webhooks/incoming_ussd", url.Values{
		"sessionId":   {"ATUid_1"},
		"phoneNumber": {"+254711000111"},
	})
	if body != "END Sorry, an error occurred." {
		t.Fatalf("body %q", body)
	}
}

func TestFulfillmentHazardEndToEnd(t *testing.T) {
	srv := newTestServer(t, &stubQuerier{})

	res, out := postJSON(t, srv.client, srv.URL+"/webhooks/fulfillment", map[string]any{
		"intentInfo":      map[string]any{"displayName": "Report Hazard"},
		"sessionInfo":     map[string]any{"parameters": map[string]any{"site_location": "Site1", "hazard_description": "Loose scaffold"}},
		"fulfillmentInfo": map[string]any{"tag": "log_hazard_alert"},
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", res.StatusCode, out)
	}
	var ack struct {
		FulfillmentResponse struct {
			Messages []json.RawMessage `json:"messages"`
		} `json:"fulfillment_response"`
	}
	if err := json.Unmarshal(out, &ack); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	if ack.FulfillmentResponse.Messages == nil {
		t.Fatal("messages must be present (empty array) on success")
	}
	if len(ack.FulfillmentResponse.Messages) != 0 {
		t.Fatalf("expected no messages on success, got %s", out)
	}
	if srv.stores.Hazards.Len() != 1 {
		t.Fatalf("hazard records = %d", srv.stores.Hazards.Len())
	}
	if len(srv.sender.messages) != 1 || !strings.Contains(srv.sender.messages[0], "Loose scaffold") {
		t.Fatalf("alerts = %v", srv.sender.messages)
	}
}

func TestFulfillmentUnknownTag(t *testing.T) {
	srv := newTestServer(t, &stubQuerier{})
	res, out := postJSON(t, srv.client, srv.URL+"/webhooks/fulfillment", map[string]any{
		"fulfillmentInfo": map[string]any{"tag": "unknown_tag"},
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
	if !strings.Contains(string(out), `"messages":[]`) {
		t.Fatalf("expected empty messages, got %s", out)
	}
	if srv.stores.Hazards.Len()+srv.stores.Attendance.Len()+srv.stores.Deliveries.Len() != 0 {
		t.Fatal("unknown tag must not append")
	}
}

func TestFulfillmentMalformedBodyStillAcknowledges(t *testing.T) {
	srv := newTestServer(t, &stubQuerier{})
	res, err := srv.client.Post(srv.URL+"/webhooks/fulfillment", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
}

func TestLogAPIsEmptyArrays(t *testing.T) {
	srv := newTestServer(t, &stubQuerier{})
	for _, path := range []string{"/api/hazards", "/api/attendance", "/api/deliveries"} {
		res, err := srv.client.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		data, _ := io.ReadAll(res.Body)
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("%s status %d", path, res.StatusCode)
		}
		if strings.TrimSpace(string(data)) != "[]" {
			t.Fatalf("%s body %q, want []", path, string(data))
		}
	}
}

func TestLogAPIsReturnRecordsInOrder(t *testing.T) {
	srv := newTestServer(t, &stubQuerier{})
	srv.stores.Hazards.Append(domain.HazardRecord{ID: "h1", Location: "Site1"})
	srv.stores.Hazards.Append(domain.HazardRecord{ID: "h2", Location: "Site2"})

	res, err := srv.client.Get(srv.URL + "/api/hazards")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer res.Body.Close()
	var got []domain.HazardRecord
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].ID != "h1" || got[1].ID != "h2" {
		t.Fatalf("unexpected records: %+v", got)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &stubQuerier{})
	res, err := srv.client.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
}
