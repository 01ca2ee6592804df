package models

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Skshirin/factify/internal/domain"
	"github.com/Skshirin/factify/pkg/httpclient"
)

func jsonServer(t *testing.T, status int, body string, inspect func(*http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if inspect != nil {
			inspect(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient() *httpclient.RestyClient {
	return httpclient.NewRestyClient(2 * time.Second)
}

func TestTransformerAdapterLabelScores(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `[[{"label":"LABEL_0","score":0.09},{"label":"LABEL_1","score":0.91}]]`, func(r *http.Request) {
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if payload["inputs"] != "Rahul Gandhi is from the male gender" {
			t.Errorf("unexpected inputs %q", payload["inputs"])
		}
		if r.Header.Get("Authorization") != "Bearer token" {
			t.Errorf("missing configured header")
		}
	})

	a := NewTransformerAdapter(Definition{
		Name:     "distilbert",
		Kind:     KindTransformer,
		Endpoint: srv.URL,
		Headers:  map[string]string{"Authorization": "Bearer token"},
		Output:   OutputFormatLogits,
	}, testClient())

	res, err := a.Predict(context.Background(), "Rahul Gandhi is from the male gender")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.Model != "distilbert" || res.RealPercentage != 91 || res.Confidence != 0.91 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestTransformerAdapterSingleLabel(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `[{"label":"FAKE","score":0.8}]`, nil)
	a := NewTransformerAdapter(Definition{Name: "roberta", Endpoint: srv.URL, Output: OutputFormatLogits}, testClient())

	res, err := a.Predict(context.Background(), "text")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.FakePercentage != 80 || res.RealPercentage != 20 {
		t.Fatalf("unexpected split %+v", res)
	}
}

func TestTransformerAdapterLogits(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"logits":[[0.0, 0.0]]}`, nil)
	a := NewTransformerAdapter(Definition{Name: "roberta", Endpoint: srv.URL, Output: OutputFormatLogits}, testClient())

	res, err := a.Predict(context.Background(), "text")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.FakePercentage != 50 || res.RealPercentage != 50 {
		t.Fatalf("unexpected split %+v", res)
	}
}

func TestTransformerAdapterErrors(t *testing.T) {
	cases := []struct {
		name       string
		status     int
		body       string
		unexpected bool
	}{
		{name: "three logits", status: http.StatusOK, body: `{"logits":[[0.1,0.2,0.7]]}`, unexpected: true},
		{name: "unknown labels", status: http.StatusOK, body: `[{"label":"POSITIVE","score":0.8}]`, unexpected: true},
		{name: "server error", status: http.StatusInternalServerError, body: `boom`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := jsonServer(t, tc.status, tc.body, nil)
			a := NewTransformerAdapter(Definition{Name: "distilbert", Endpoint: srv.URL, Output: OutputFormatLogits}, testClient())

			_, err := a.Predict(context.Background(), "text")
			var adapterErr *domain.AdapterError
			if !errors.As(err, &adapterErr) || adapterErr.Model != "distilbert" {
				t.Fatalf("expected AdapterError naming distilbert, got %v", err)
			}
			if tc.unexpected && !errors.Is(err, domain.ErrUnexpectedOutput) {
				t.Fatalf("expected ErrUnexpectedOutput, got %v", err)
			}
		})
	}
}

func testTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := ParseTokenizer([]byte(`{"config": {"oov_token": "<OOV>", "word_index": {"<OOV>": 1, "rahul": 2, "gandhi": 3, "is": 4, "from": 5, "the": 6, "male": 7, "gender": 8, "you": 9, "are": 10, "stupid": 11}}}`))
	if err != nil {
		t.Fatalf("ParseTokenizer: %v", err)
	}
	return tok
}

func TestSequenceAdapterPredict(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"predictions": [[0.81]]}`, func(r *http.Request) {
		var payload servingRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if len(payload.Instances) != 1 || len(payload.Instances[0]) != 200 {
			t.Errorf("expected one instance of length 200")
			return
		}
		ids := payload.Instances[0]
		if ids[0] != 0 || ids[199] != 8 {
			t.Errorf("expected pre-padded sequence ending in gender, got head=%d tail=%d", ids[0], ids[199])
		}
	})

	def := Definition{Name: "lstm", Kind: KindSequence, Endpoint: srv.URL, MaxLen: 200, Padding: "pre", Truncating: "pre", Output: OutputFormatProbabilities}
	a := NewSequenceAdapter(def, testTokenizer(t), testClient())

	res, err := a.Predict(context.Background(), "Rahul Gandhi is from the male gender")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.RealPercentage != 81 || res.FakePercentage != 19 || res.Confidence != 0.81 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSequenceAdapterMissingPredictions(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"outputs": [[0.5]]}`, nil)
	def := Definition{Name: "cnn", Kind: KindSequence, Endpoint: srv.URL, MaxLen: 10, Padding: "pre", Truncating: "pre", Output: OutputFormatProbabilities}
	a := NewSequenceAdapter(def, testTokenizer(t), testClient())

	if _, err := a.Predict(context.Background(), "text"); !errors.Is(err, domain.ErrUnexpectedOutput) {
		t.Fatalf("expected ErrUnexpectedOutput, got %v", err)
	}
}

func TestToxicityClassifier(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"predictions": [[0.1, 0.7, 0.2]]}`, func(r *http.Request) {
		var payload servingRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		ids := payload.Instances[0]
		if len(ids) != 100 || ids[0] != 9 || ids[99] != 0 {
			t.Errorf("expected post-padded sequence of 100 starting with you, got len=%d head=%d", len(ids), ids[0])
		}
	})

	def := Definition{Name: "hate", Kind: KindToxicity, Endpoint: srv.URL, MaxLen: 100, Padding: "post", Truncating: "post"}
	c := NewToxicityClassifier(def, testTokenizer(t), testClient())

	res, err := c.Classify(context.Background(), "@someone You are STUPID!! http://t.co/x")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Label != domain.ToxicityOffensive {
		t.Fatalf("expected offensive label, got %s", res.Label)
	}
	if math.Abs(res.Confidence-0.7) > 1e-9 {
		t.Fatalf("expected confidence 0.7, got %v", res.Confidence)
	}
	var sum float64
	for _, s := range res.Scores {
		sum += s
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("scores sum to %v", sum)
	}
}

func TestToxicityClassifierSoftmaxesRawScores(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"predictions": [[3.0, 1.0, -1.0]]}`, nil)
	def := Definition{Name: "hate", Kind: KindToxicity, Endpoint: srv.URL, MaxLen: 100, Padding: "post", Truncating: "post"}
	c := NewToxicityClassifier(def, testTokenizer(t), testClient())

	res, err := c.Classify(context.Background(), "text")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Label != domain.ToxicityHate {
		t.Fatalf("expected hate label, got %s", res.Label)
	}
	if res.Confidence <= 0.5 || res.Confidence >= 1 {
		t.Fatalf("expected softmax confidence, got %v", res.Confidence)
	}
}

func TestToxicityClassifierWrongArity(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"predictions": [[0.4, 0.6]]}`, nil)
	def := Definition{Name: "hate", Kind: KindToxicity, Endpoint: srv.URL, MaxLen: 100, Padding: "post", Truncating: "post"}
	c := NewToxicityClassifier(def, testTokenizer(t), testClient())

	if _, err := c.Classify(context.Background(), "text"); !errors.Is(err, domain.ErrUnexpectedOutput) {
		t.Fatalf("expected ErrUnexpectedOutput, got %v", err)
	}
}

func TestLoadBuildsSetInFileOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tokenizer.json", `{"config": {"word_index": "{\"a\": 1}"}}`)
	file := writeFile(t, dir, "models.yaml", `
models:
  - {name: distilbert, kind: transformer, endpoint: http://x/distilbert}
  - {name: roberta, kind: transformer, endpoint: http://x/roberta}
  - {name: cnn, kind: sequence, endpoint: http://x/cnn, tokenizer: tokenizer.json, clip_max: 9999}
  - {name: lstm, kind: sequence, endpoint: http://x/lstm, tokenizer: tokenizer.json}
  - {name: bilstm, kind: sequence, endpoint: http://x/bilstm, tokenizer: tokenizer.json, enabled: false}
toxicity:
  name: hate
  endpoint: http://x/hate
  tokenizer: tokenizer.json
`)

	set, err := Load(file, testClient())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	adapters := set.Adapters()
	want := []string{"distilbert", "roberta", "cnn", "lstm"}
	if len(adapters) != len(want) {
		t.Fatalf("expected %d adapters, got %d", len(want), len(adapters))
	}
	for i, a := range adapters {
		if a.Name() != want[i] {
			t.Fatalf("adapter[%d] = %s, want %s", i, a.Name(), want[i])
		}
	}
	if set.Toxicity() == nil {
		t.Fatalf("expected toxicity classifier")
	}
}

func TestLoadFailsOnMissingTokenizer(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "models.yaml", `
models:
  - {name: cnn, kind: sequence, endpoint: http://x/cnn, tokenizer: missing.json}
`)
	if _, err := Load(file, testClient()); err == nil {
		t.Fatalf("expected error for missing tokenizer file")
	}
}
