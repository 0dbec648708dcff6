package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/cache"
	"github.com/dmitrijs2005/nutrikeeper/internal/client/metrics"
	"github.com/dmitrijs2005/nutrikeeper/internal/client/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	mu      sync.Mutex
	token   string
	getErr  error
	deletes int
}

func (f *fakeTokens) Get(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", f.getErr
	}
	return f.token, nil
}

func (f *fakeTokens) Delete(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.deletes++
	return nil
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestClient(t *testing.T, baseURL string, tokens TokenStore, opts ...Option) *HTTPClient {
	t.Helper()
	opts = append([]Option{WithNetworkRetryDelay(time.Millisecond)}, opts...)
	c, err := New(baseURL, tokens, opts...)
	require.NoError(t, err)
	return c
}

func TestNew_Validation(t *testing.T) {
	_, err := New("", &fakeTokens{})
	require.Error(t, err)

	_, err = New("http://localhost", nil)
	require.Error(t, err)

	c, err := New("http://localhost/api/", &fakeTokens{})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/api", c.baseURL)
}

func TestInterceptor_RetriesNetworkFailureExactlyOnce(t *testing.T) {
	var calls atomic.Int32
	hc := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("connection refused")
		}
		return jsonResponse(http.StatusOK, `{"success":true,"data":{"id":"u1","email":"a@b.c"}}`), nil
	})}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	c := newTestClient(t, "http://api.test", &fakeTokens{}, WithHTTPClient(hc), WithMetrics(m))

	u, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.EqualValues(t, 2, calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NetworkRetries))
}

func TestInterceptor_GivesUpAfterSecondNetworkFailure(t *testing.T) {
	var calls atomic.Int32
	hc := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls.Add(1)
		return nil, errors.New("connection reset")
	})}
	c := newTestClient(t, "http://api.test", &fakeTokens{}, WithHTTPClient(hc))

	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.EqualValues(t, 2, calls.Load())

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeNetwork, apiErr.Code)
	assert.True(t, apiErr.Retryable)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, msgNetwork, Message(err))
}

func TestInterceptor_NoRetryWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	hc := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls.Add(1)
		cancel()
		return nil, context.Canceled
	})}
	c := newTestClient(t, "http://api.test", &fakeTokens{}, WithHTTPClient(hc))

	_, err := c.Me(ctx)
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeCancelled, apiErr.Code)
	assert.False(t, apiErr.Retryable)
}

func TestInterceptor_AttachesHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, &fakeTokens{token: "tok-1"})
	require.NoError(t, c.ResendVerification(context.Background(), &models.ResendVerificationRequest{Email: "a@b.c"}))

	assert.Equal(t, "Bearer tok-1", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.NotEmpty(t, got.Get("X-Request-ID"))
}

func TestInterceptor_TokenReadFailureSendsAnonymously(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, &fakeTokens{getErr: errors.New("keystore locked")})
	require.NoError(t, c.ResendVerification(context.Background(), &models.ResendVerificationRequest{Email: "a@b.c"}))
	assert.Empty(t, auth)
}

func TestInterceptor_UnauthorizedRunsCascadeOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"success":false,"error":"Token expired"}`)
	}))
	defer srv.Close()

	tokens := &fakeTokens{token: "stale"}
	var handled atomic.Int32
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	c := newTestClient(t, srv.URL, tokens,
		WithMetrics(m),
		WithUnauthorizedHandler(func(context.Context) { handled.Add(1) }),
	)

	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "Token expired", Message(err))

	assert.EqualValues(t, 1, hits.Load())
	assert.EqualValues(t, 1, handled.Load())
	assert.Equal(t, 1, tokens.deletes)
	assert.Empty(t, tokens.token)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Unauthorized))
}

func TestSignOut_SendsGivenTokenAndSkipsCascade(t *testing.T) {
	var auth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"success":false,"error":"No token"}`)
			return
		}
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	tokens := &fakeTokens{}
	var handled atomic.Int32
	c := newTestClient(t, srv.URL, tokens, WithUnauthorizedHandler(func(context.Context) { handled.Add(1) }))

	require.NoError(t, c.SignOut(context.Background(), "tok"))

	err := c.SignOut(context.Background(), "")
	require.ErrorIs(t, err, ErrUnauthorized)

	assert.Equal(t, []string{"Bearer tok", ""}, auth)
	assert.Zero(t, handled.Load())
	assert.Zero(t, tokens.deletes)
}

func TestUnauthorized_DropsPreviousUsersCachedReads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/me":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"success":false,"error":"Token expired"}`)
		case "/auth/verify-email":
			_, _ = io.WriteString(w, `{"success":true,"data":{"user":{"id":"b"},"token":"tok-b"}}`)
		case "/daily-goals":
			calories := 1111
			if r.Header.Get("Authorization") == "Bearer tok-b" {
				calories = 2222
			}
			fmt.Fprintf(w, `{"success":true,"data":{"calories":%d}}`, calories)
		}
	}))
	defer srv.Close()

	tokens := &fakeTokens{token: "tok-a"}
	q := cache.New(time.Minute)
	c := newTestClient(t, srv.URL, tokens, WithCache(q))
	ctx := context.Background()

	g, err := c.GetDailyGoals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1111.0, g.Calories)

	_, err = c.Me(ctx)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, q.Len())

	_, err = c.VerifyEmail(ctx, &models.VerifyEmailRequest{Email: "b@example.com", Code: "123456"})
	require.NoError(t, err)
	tokens.token = "tok-b"

	g, err = c.GetDailyGoals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2222.0, g.Calories)
}

func TestSignUp_ClearsCacheOnlyWhenATokenIsIssued(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	q := cache.New(time.Minute)
	c := newTestClient(t, srv.URL, &fakeTokens{}, WithCache(q))
	in := &models.SignUpRequest{Email: "b@example.com", Password: "Secret123"}

	q.Set(pathDailyGoals, json.RawMessage(`{"calories":1}`))
	body = `{"success":true,"data":{"user":{"id":"b"}}}`
	_, err := c.SignUp(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 1, q.Len())

	body = `{"success":true,"data":{"user":{"id":"b"},"token":"tok-b"}}`
	_, err = c.SignUp(context.Background(), in)
	require.NoError(t, err)
	assert.Zero(t, q.Len())
}

func TestUnwrap_ErrorShapes(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantMsg   string
		wantCode  string
		retryable bool
	}{
		{
			name:    "error string",
			status:  http.StatusBadRequest,
			body:    `{"success":false,"error":"Email already registered"}`,
			wantMsg: "Email already registered",
		},
		{
			name:     "error object",
			status:   http.StatusUnprocessableEntity,
			body:     `{"success":false,"error":{"message":"Invalid code","code":"INVALID_CODE"}}`,
			wantMsg:  "Invalid code",
			wantCode: "INVALID_CODE",
		},
		{
			name:     "top level message",
			status:   http.StatusConflict,
			body:     `{"success":false,"message":"Conflict","code":"DUP"}`,
			wantMsg:  "Conflict",
			wantCode: "DUP",
		},
		{
			name:      "empty 5xx",
			status:    http.StatusServiceUnavailable,
			body:      ``,
			wantMsg:   "Request failed with status 503",
			retryable: true,
		},
		{
			name:      "html 5xx",
			status:    http.StatusBadGateway,
			body:      `<html>bad gateway</html>`,
			wantMsg:   "Request failed with status 502",
			retryable: true,
		},
		{
			name:    "success false with 200",
			status:  http.StatusOK,
			body:    `{"success":false,"error":"Quota exceeded"}`,
			wantMsg: "Quota exceeded",
		},
		{
			name:     "non json 200",
			status:   http.StatusOK,
			body:     `not json`,
			wantMsg:  msgInvalidResponse,
			wantCode: CodeInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
				return jsonResponse(tt.status, tt.body), nil
			})}
			c := newTestClient(t, "http://api.test", &fakeTokens{}, WithHTTPClient(hc))

			_, err := c.Me(context.Background())
			require.Error(t, err)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.retryable, apiErr.Retryable)
		})
	}
}

func TestUnwrap_EmptyBodyWithoutOutput(t *testing.T) {
	hc := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNoContent, ""), nil
	})}
	c := newTestClient(t, "http://api.test", &fakeTokens{}, WithHTTPClient(hc))

	require.NoError(t, c.DeleteMeal(context.Background(), "m1"))
}

func TestGetMeals_EncodesQuery(t *testing.T) {
	var gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.RequestURI()
		_, _ = io.WriteString(w, `{"success":true,"data":[{"id":"m1","mealType":"lunch","name":"Salad","totals":{"calories":320}}]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, &fakeTokens{})
	meals, err := c.GetMeals(context.Background(), "2026-01-02")
	require.NoError(t, err)
	require.Len(t, meals, 1)
	assert.Equal(t, "/nutrition/meals?date=2026-01-02", gotURL)
	assert.Equal(t, 320.0, meals[0].Totals.Calories)
}

func TestCachedReads_InvalidatedByMutation(t *testing.T) {
	var reads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			n := reads.Add(1)
			fmt.Fprintf(w, `{"success":true,"data":{"id":"u1","firstName":"v%d"}}`, n)
			return
		}
		_, _ = io.WriteString(w, `{"success":true,"data":{"id":"u1","firstName":"new"}}`)
	}))
	defer srv.Close()

	q := cache.New(time.Minute)
	c := newTestClient(t, srv.URL, &fakeTokens{}, WithCache(q))
	ctx := context.Background()

	u, err := c.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1", u.FirstName)

	u, err = c.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1", u.FirstName)
	assert.EqualValues(t, 1, reads.Load())

	name := "new"
	_, err = c.UpdateProfile(ctx, &models.ProfileUpdate{FirstName: &name})
	require.NoError(t, err)

	u, err = c.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v2", u.FirstName)
	assert.EqualValues(t, 2, reads.Load())
}

func TestCachedReads_CallersGetTheirOwnCopy(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, `{"success":true,"data":{"calories":2000,"protein":120}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, &fakeTokens{}, WithCache(cache.New(time.Minute)))

	g, err := c.GetDailyGoals(context.Background())
	require.NoError(t, err)
	g.Calories = 1

	g, err = c.GetDailyGoals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2000.0, g.Calories)
	assert.EqualValues(t, 1, hits.Load())
}

func TestCachedReads_UndecodableDataIsNotCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			_, _ = io.WriteString(w, `{"success":true,"data":{"calories":"lots"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"success":true,"data":{"calories":2000}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, &fakeTokens{}, WithCache(cache.New(time.Minute)))

	_, err := c.GetDailyGoals(context.Background())
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeInvalidResponse, apiErr.Code)

	g, err := c.GetDailyGoals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2000.0, g.Calories)
}

func TestCachedReads_ErrorsAreNotCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, `{"success":true,"data":{"calories":2000,"protein":120,"carbs":250,"fat":70}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, &fakeTokens{}, WithCache(cache.New(time.Minute)))

	_, err := c.GetDailyGoals(context.Background())
	require.Error(t, err)

	g, err := c.GetDailyGoals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2000.0, g.Calories)
}

func TestGetCalendarMonth_RejectsBadMonth(t *testing.T) {
	c := newTestClient(t, "http://api.test", &fakeTokens{})
	_, err := c.GetCalendarMonth(context.Background(), 2026, 13)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeInvalidRequest, apiErr.Code)
}

func TestPing(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	c := newTestClient(t, srv.URL, &fakeTokens{})

	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, "/health", path)

	srv.Close()
	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}
