// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/passgate/passgate/internal/auth"
	"github.com/passgate/passgate/internal/auth/memory"
	"github.com/passgate/passgate/internal/httpapi"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type outbox struct {
	mu   sync.Mutex
	sent []auth.Message
}

func (o *outbox) Send(_ context.Context, msg auth.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) Last() auth.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	ExpectWithOffset(1, o.sent).NotTo(BeEmpty())
	return o.sent[len(o.sent)-1]
}

type response struct {
	Status int
	Body   map[string]any
}

func call(srv *httptest.Server, method, path string, body any, token string) response {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, srv.URL+path, r)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	defer func() { _ = resp.Body.Close() }()

	out := response{Status: resp.StatusCode}
	ExpectWithOffset(1, json.NewDecoder(resp.Body).Decode(&out.Body)).To(Succeed())
	return out
}

func resetToken(msg auth.Message) string {
	for _, field := range strings.Fields(msg.Text) {
		if u, err := url.Parse(field); err == nil && u.Query().Get("token") != "" {
			return u.Query().Get("token")
		}
	}
	Fail("no reset link in message")
	return ""
}

var _ = Describe("Account lifecycle over HTTP", func() {
	var (
		srv   *httptest.Server
		clk   *clock
		mail  *outbox
		store *memory.AccountStore
	)

	const (
		email    = "alice@example.com"
		password = "Passw0rd!"
		newPass  = "N3wPassw0rd!"
	)

	BeforeEach(func() {
		clk = &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
		mail = &outbox{}
		store = memory.NewAccountStore()

		tokens, err := auth.NewTokenService([]byte("e2e-secret"), clk)
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(GinkgoWriter, nil))
		svc, err := auth.NewService(store, auth.NewBcryptHasher(auth.WithCost(bcrypt.MinCost)), tokens, mail,
			auth.WithClock(clk),
			auth.WithLogger(logger),
			auth.WithMailFrom("noreply@passgate.test"),
		)
		Expect(err).NotTo(HaveOccurred())

		api, err := httpapi.New(svc, httpapi.WithLogger(logger))
		Expect(err).NotTo(HaveOccurred())
		srv = httptest.NewServer(api.Handler())
		DeferCleanup(srv.Close)
	})

	register := func() {
		res := call(srv, http.MethodPost, "/api/register", map[string]string{
			"name": "Alice", "email": email, "password": password,
		}, "")
		ExpectWithOffset(1, res.Status).To(Equal(http.StatusOK))
	}

	login := func(pw string) response {
		return call(srv, http.MethodPost, "/api/login", map[string]string{"email": email, "password": pw}, "")
	}

	It("registers, logs in, reads the profile, and resets the password", func() {
		register()

		res := login(password)
		Expect(res.Status).To(Equal(http.StatusOK))
		token, _ := res.Body["token"].(string)
		Expect(token).NotTo(BeEmpty())
		Expect(res.Body["user"]).To(HaveKeyWithValue("email", email))
		Expect(res.Body["user"]).To(HaveKeyWithValue("name", "Alice"))
		Expect(res.Body["user"]).NotTo(HaveKey("passwordHash"))

		res = call(srv, http.MethodGet, "/api/profile", nil, token)
		Expect(res.Status).To(Equal(http.StatusOK))
		Expect(res.Body).To(HaveKeyWithValue("email", email))
		Expect(res.Body).To(HaveKey("createdAt"))

		res = call(srv, http.MethodGet, "/api/profile/name", nil, token)
		Expect(res.Body).To(Equal(map[string]any{"name": "Alice"}))

		res = call(srv, http.MethodPost, "/api/forgot-password", map[string]string{"email": email}, "")
		Expect(res.Status).To(Equal(http.StatusOK))
		Expect(res.Body).To(HaveKeyWithValue("message", httpapi.MsgResetLinkSent))

		msg := mail.Last()
		Expect(msg.To).To(Equal(email))
		Expect(msg.Subject).To(Equal(auth.ResetSubject))
		Expect(msg.HTML).To(ContainSubstring(auth.DefaultResetURL + "?token="))

		res = call(srv, http.MethodPost, "/api/reset-password", map[string]string{
			"token": resetToken(msg), "newPassword": newPass,
		}, "")
		Expect(res.Status).To(Equal(http.StatusOK))
		Expect(res.Body).To(HaveKeyWithValue("message", httpapi.MsgPasswordReset))

		Expect(login(password).Status).To(Equal(http.StatusBadRequest))
		Expect(login(newPass).Status).To(Equal(http.StatusOK))
	})

	It("rejects a duplicate registration", func() {
		register()
		res := call(srv, http.MethodPost, "/api/register", map[string]string{
			"name": "Alice Again", "email": "  ALICE@example.com ", "password": password,
		}, "")
		Expect(res.Status).To(Equal(http.StatusBadRequest))
		Expect(res.Body).To(HaveKeyWithValue("message", auth.MsgUserExists))
		Expect(store.Len()).To(Equal(1))
	})

	It("gives the same answer for an unknown email and a wrong password", func() {
		register()
		wrong := login("Wr0ngPass!")
		unknown := call(srv, http.MethodPost, "/api/login", map[string]string{"email": "bob@example.com", "password": password}, "")

		Expect(wrong.Status).To(Equal(http.StatusBadRequest))
		Expect(unknown.Status).To(Equal(wrong.Status))
		Expect(unknown.Body).To(Equal(wrong.Body))
	})

	It("leaves the password unchanged when the reset token has expired", func() {
		register()
		Expect(call(srv, http.MethodPost, "/api/forgot-password", map[string]string{"email": email}, "").Status).
			To(Equal(http.StatusOK))
		token := resetToken(mail.Last())

		clk.Advance(auth.ResetTTL)

		res := call(srv, http.MethodPost, "/api/reset-password", map[string]string{"token": token, "newPassword": newPass}, "")
		Expect(res.Status).To(Equal(http.StatusBadRequest))
		Expect(res.Body).To(HaveKeyWithValue("message", auth.MsgInvalidToken))

		Expect(login(password).Status).To(Equal(http.StatusOK))
		Expect(login(newPass).Status).To(Equal(http.StatusBadRequest))
	})

	It("does not accept a reset token as a session", func() {
		register()
		call(srv, http.MethodPost, "/api/forgot-password", map[string]string{"email": email}, "")
		token := resetToken(mail.Last())

		res := call(srv, http.MethodGet, "/api/profile", nil, token)
		Expect(res.Status).To(Equal(http.StatusBadRequest))
		Expect(res.Body).To(HaveKeyWithValue("message", auth.MsgInvalidToken))
	})

	It("does not accept a session token for a password reset", func() {
		register()
		session, _ := login(password).Body["token"].(string)

		res := call(srv, http.MethodPost, "/api/reset-password", map[string]string{"token": session, "newPassword": newPass}, "")
		Expect(res.Status).To(Equal(http.StatusBadRequest))
		Expect(login(password).Status).To(Equal(http.StatusOK))
	})

	It("expires sessions after an hour", func() {
		register()
		session, _ := login(password).Body["token"].(string)

		clk.Advance(auth.SessionTTL - time.Second)
		Expect(call(srv, http.MethodGet, "/api/profile/email", nil, session).Status).To(Equal(http.StatusOK))

		clk.Advance(time.Second)
		Expect(call(srv, http.MethodGet, "/api/profile/email", nil, session).Status).To(Equal(http.StatusBadRequest))
	})

	It("requires a token for profile routes", func() {
		res := call(srv, http.MethodGet, "/api/profile", nil, "")
		Expect(res.Status).To(Equal(http.StatusUnauthorized))
		Expect(res.Body).To(HaveKeyWithValue("message", auth.MsgNoToken))
	})

	It("reports an unknown email on forgot-password", func() {
		res := call(srv, http.MethodPost, "/api/forgot-password", map[string]string{"email": "nobody@example.com"}, "")
		Expect(res.Status).To(Equal(http.StatusBadRequest))
		Expect(res.Body).To(HaveKeyWithValue("message", auth.MsgUserNotFound))
	})
})
