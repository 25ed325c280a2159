package controller_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/tapechat/pkg/chat"
	"github.com/papercomputeco/tapechat/pkg/controller"
	"github.com/papercomputeco/tapechat/pkg/settings"
	"github.com/papercomputeco/tapechat/pkg/transcript"
)

func ms(v float64) *float64 {
	return &v
}

var _ = Describe("Controller", func() {
	var (
		ctx     context.Context
		input   *fakeInput
		send    *fakeSend
		view    *fakeView
		panel   *fakeSettings
		store   *settings.MemoryStore
		sender  *fakeSender
		ctrl    *controller.Controller
		newCtrl func() *controller.Controller
	)

	BeforeEach(func() {
		ctx = context.Background()
		input = &fakeInput{}
		send = &fakeSend{}
		view = &fakeView{}
		panel = &fakeSettings{}
		store = settings.NewMemoryStore()
		sender = &fakeSender{resp: &chat.TurnResponse{Answer: "hi"}}

		newCtrl = func() *controller.Controller {
			c, err := controller.New(controller.UI{
				Input:      input,
				Send:       send,
				Transcript: view,
				Settings:   panel,
			}, store, sender, zap.NewNop())
			Expect(err).NotTo(HaveOccurred())
			return c
		}
		ctrl = newCtrl()
	})

	Describe("New", func() {
		It("fails without a send control", func() {
			c, err := controller.New(controller.UI{Input: input}, store, sender, zap.NewNop())
			Expect(err).To(MatchError(controller.ErrMissingSendControl))
			Expect(c).To(BeNil())
		})

		It("fails with a nil send control pointer", func() {
			var missing *fakeSend
			c, err := controller.New(controller.UI{Input: input, Send: missing}, store, sender, zap.NewNop())
			Expect(err).To(MatchError(controller.ErrMissingSendControl))
			Expect(c).To(BeNil())
		})

		It("restores persisted settings into the settings panel", func() {
			Expect(store.Save(settings.Settings{Token: "saved", UserID: "alice"})).To(Succeed())
			newCtrl()

			Expect(panel.token).To(Equal("saved"))
			Expect(panel.userID).To(Equal("alice"))
		})

		It("populates defaults when nothing is persisted", func() {
			Expect(panel.token).To(Equal(""))
			Expect(panel.userID).To(Equal("demo"))
		})

		It("starts idle with the send control enabled", func() {
			Expect(ctrl.State()).To(Equal(controller.Idle))
			Expect(send.enabled).To(BeTrue())
			Expect(send.busy).To(BeFalse())
		})
	})

	Describe("submission", func() {
		It("appends one user entry and one assistant entry per send", func() {
			input.value = "  hello there \n"

			Expect(ctrl.Send(ctx)).To(BeTrue())

			Expect(ctrl.Transcript()).To(Equal([]transcript.Entry{
				{Role: transcript.RoleUser, Text: "hello there"},
				{Role: transcript.RoleAssistant, Text: "hi"},
			}))
			Expect(view.entries).To(Equal(ctrl.Transcript()))
			Expect(view.scrolls).To(Equal(2))
		})

		DescribeTable("ignores blank input",
			func(text string) {
				input.value = text

				Expect(ctrl.Send(ctx)).To(BeFalse())
				Expect(ctrl.Transcript()).To(BeEmpty())
				Expect(view.entries).To(BeEmpty())
				Expect(sender.sent).To(BeEmpty())
				Expect(ctrl.State()).To(Equal(controller.Idle))
				Expect(input.value).To(Equal(text))
			},
			Entry("empty", ""),
			Entry("spaces", "    "),
			Entry("mixed whitespace", "\t\n  \r\n"),
		)

		It("ignores submissions when the host has no input field", func() {
			c, err := controller.New(controller.UI{Send: send}, store, sender, zap.NewNop())
			Expect(err).NotTo(HaveOccurred())

			Expect(c.Send(ctx)).To(BeFalse())
			Expect(sender.sent).To(BeEmpty())
		})

		It("clears the input right after the user entry, before the reply", func() {
			input.value = "question"

			pending, ok := ctrl.Submit(ctx)
			Expect(ok).To(BeTrue())
			Expect(input.value).To(BeEmpty())
			Expect(view.entries).To(HaveLen(1))
			Expect(view.entries[0].Role).To(Equal(transcript.RoleUser))

			ctrl.Complete(pending())
			Expect(view.entries).To(HaveLen(2))
		})

		It("disables and marks the send control busy while sending", func() {
			input.value = "question"

			pending, ok := ctrl.Submit(ctx)
			Expect(ok).To(BeTrue())
			Expect(ctrl.State()).To(Equal(controller.Sending))
			Expect(send.enabled).To(BeFalse())
			Expect(send.busy).To(BeTrue())

			ctrl.Complete(pending())
			Expect(ctrl.State()).To(Equal(controller.Idle))
		})

		It("rejects a second submission while a turn is in flight", func() {
			input.value = "first"
			pending, ok := ctrl.Submit(ctx)
			Expect(ok).To(BeTrue())

			input.value = "second"
			_, ok = ctrl.Submit(ctx)
			Expect(ok).To(BeFalse())
			Expect(input.value).To(Equal("second"))
			Expect(ctrl.Transcript()).To(HaveLen(1))

			ctrl.Complete(pending())
			Expect(sender.sent).To(HaveLen(1))
			Expect(sender.sent[0].req.Message).To(Equal("first"))
		})

		It("ignores results when no turn is in flight", func() {
			ctrl.Complete(controller.Result{Response: &chat.TurnResponse{Answer: "stray"}})
			Expect(ctrl.Transcript()).To(BeEmpty())
		})

		It("does not perform the exchange until the pending turn runs", func() {
			input.value = "later"
			pending, ok := ctrl.Submit(ctx)
			Expect(ok).To(BeTrue())
			Expect(sender.sent).To(BeEmpty())

			pending()
			Expect(sender.sent).To(HaveLen(1))
		})
	})

	Describe("request construction", func() {
		It("sends the trimmed message and the panel's user id", func() {
			panel.userID = "  bob  "
			input.value = " hi "

			ctrl.Send(ctx)

			Expect(sender.sent).To(HaveLen(1))
			Expect(sender.sent[0].req).To(Equal(chat.TurnRequest{UserID: "bob", Message: "hi"}))
		})

		It("falls back to the demo user for a blank user id", func() {
			panel.userID = "   "
			input.value = "hi"

			ctrl.Send(ctx)

			Expect(sender.sent[0].req.UserID).To(Equal("demo"))
		})

		It("reads credentials at send time, not from the store", func() {
			Expect(store.Save(settings.Settings{Token: "stored", UserID: "stored-user"})).To(Succeed())
			panel.token = "edited"
			panel.userID = "edited-user"
			input.value = "hi"

			ctrl.Send(ctx)

			Expect(sender.sent[0].token).To(Equal("edited"))
			Expect(sender.sent[0].req.UserID).To(Equal("edited-user"))
		})

		It("uses persisted settings when the host has no settings panel", func() {
			Expect(store.Save(settings.Settings{Token: "tok", UserID: "carol"})).To(Succeed())
			c, err := controller.New(controller.UI{Input: input, Send: send}, store, sender, zap.NewNop())
			Expect(err).NotTo(HaveOccurred())

			input.value = "hi"
			c.Send(ctx)

			Expect(sender.sent[0]).To(Equal(sentTurn{token: "tok", req: chat.TurnRequest{UserID: "carol", Message: "hi"}}))
		})
	})

	Describe("response interpretation", func() {
		BeforeEach(func() {
			input.value = "question"
		})

		It("renders the answer with derived metadata", func() {
			sender.resp = &chat.TurnResponse{
				Answer:         "4",
				UsedTool:       "calculator",
				ModelLatencyMs: ms(123.4),
				ToolLatencyMs:  ms(0),
			}

			ctrl.Send(ctx)

			Expect(ctrl.Transcript()[1]).To(Equal(transcript.Entry{
				Role: transcript.RoleAssistant,
				Text: "4",
				Meta: "tool: calculator • model: 123ms",
			}))
		})

		It("renders only the answer when no optional fields are present", func() {
			sender.resp = &chat.TurnResponse{Answer: "plain"}

			ctrl.Send(ctx)

			Expect(ctrl.Transcript()[1].Text).To(Equal("plain"))
			Expect(ctrl.Transcript()[1].Meta).To(BeEmpty())
		})

		It("substitutes a placeholder for a missing answer", func() {
			sender.resp = &chat.TurnResponse{}

			ctrl.Send(ctx)

			Expect(ctrl.Transcript()[1].Text).To(Equal(controller.NoAnswer))
		})

		It("surfaces HTTP errors with status and body", func() {
			sender.resp = nil
			sender.err = &chat.StatusError{Code: 500, Status: "Internal Server Error", Body: "boom"}

			ctrl.Send(ctx)

			entry := ctrl.Transcript()[1]
			Expect(entry.Role).To(Equal(transcript.RoleAssistant))
			Expect(entry.Text).To(ContainSubstring("500"))
			Expect(entry.Text).To(ContainSubstring("Internal Server Error"))
			Expect(entry.Text).To(ContainSubstring("boom"))
			Expect(entry.Meta).To(BeEmpty())
		})

		It("surfaces transport failures with their description", func() {
			sender.resp = nil
			sender.err = errors.New("dial tcp: connection refused")

			ctrl.Send(ctx)

			entry := ctrl.Transcript()[1]
			Expect(entry.Role).To(Equal(transcript.RoleAssistant))
			Expect(entry.Text).To(Equal("Network error: dial tcp: connection refused"))
		})

		DescribeTable("always restores the send control",
			func(resp *chat.TurnResponse, err error) {
				sender.resp = resp
				sender.err = err

				ctrl.Send(ctx)

				Expect(send.enabled).To(BeTrue())
				Expect(send.busy).To(BeFalse())
				Expect(ctrl.State()).To(Equal(controller.Idle))
				Expect(ctrl.Transcript()).To(HaveLen(2))
			},
			Entry("success", &chat.TurnResponse{Answer: "ok"}, nil),
			Entry("http error", nil, &chat.StatusError{Code: 503, Status: "Service Unavailable"}),
			Entry("transport failure", nil, errors.New("reset by peer")),
			Entry("empty result", nil, nil),
		)

		It("records the outcome of the last turn", func() {
			sender.err = &chat.StatusError{Code: 401, Status: "Unauthorized", Body: "no"}
			ctrl.Send(ctx)

			var statusErr *chat.StatusError
			Expect(errors.As(ctrl.LastError(), &statusErr)).To(BeTrue())

			sender.err = nil
			input.value = "again"
			ctrl.Send(ctx)
			Expect(ctrl.LastError()).NotTo(HaveOccurred())
		})

		It("keeps turns as interleaved pairs", func() {
			for _, msg := range []string{"a", "b", "c"} {
				input.value = msg
				Expect(ctrl.Send(ctx)).To(BeTrue())
			}

			entries := ctrl.Transcript()
			Expect(entries).To(HaveLen(6))
			for i, e := range entries {
				if i%2 == 0 {
					Expect(e.Role).To(Equal(transcript.RoleUser))
				} else {
					Expect(e.Role).To(Equal(transcript.RoleAssistant))
				}
			}
		})
	})

	Describe("SaveSettings", func() {
		It("persists the panel values", func() {
			panel.token = "t1"
			panel.userID = "u1"

			Expect(ctrl.SaveSettings()).To(Succeed())
			Expect(store.Load()).To(Equal(settings.Settings{Token: "t1", UserID: "u1"}))
		})

		It("can be called while a turn is in flight", func() {
			input.value = "slow question"
			pending, ok := ctrl.Submit(ctx)
			Expect(ok).To(BeTrue())

			panel.token = "new"
			Expect(ctrl.SaveSettings()).To(Succeed())

			ctrl.Complete(pending())
			Expect(store.Load().Token).To(Equal("new"))
		})
	})

	Describe("against a real HTTP server", func() {
		var (
			server *httptest.Server
			auth   []string
			body   string
			status int
		)

		BeforeEach(func() {
			status = http.StatusOK
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				auth = r.Header.Values("Authorization")
				b, _ := io.ReadAll(r.Body)
				body = string(b)
				w.WriteHeader(status)
				if status == http.StatusOK {
					w.Write([]byte(`{"answer":"pong","model_latency_ms":9.6}`))
				} else {
					w.Write([]byte("boom"))
				}
			}))
		})

		AfterEach(func() {
			server.Close()
		})

		wire := func() *controller.Controller {
			c, err := controller.New(controller.UI{Input: input, Send: send, Settings: panel},
				store, chat.NewClient(server.URL), zap.NewNop())
			Expect(err).NotTo(HaveOccurred())
			return c
		}

		It("sends the bearer token when set", func() {
			c := wire()
			panel.token = "abc"
			input.value = "ping"

			c.Send(ctx)

			Expect(auth).To(Equal([]string{"Bearer abc"}))
			Expect(body).To(MatchJSON(`{"user_id":"demo","message":"ping"}`))
			Expect(c.Transcript()[1]).To(Equal(transcript.Entry{Role: transcript.RoleAssistant, Text: "pong", Meta: "model: 10ms"}))
		})

		It("omits the authorization header for an empty token", func() {
			c := wire()
			input.value = "ping"

			c.Send(ctx)

			Expect(auth).To(BeEmpty())
		})

		It("renders a 500 with its body", func() {
			status = http.StatusInternalServerError
			c := wire()
			input.value = "ping"

			c.Send(ctx)

			Expect(c.Transcript()[1].Text).To(Equal("Error: 500 Internal Server Error - boom"))
		})

		It("renders an unreachable server as a network error", func() {
			c := wire()
			server.Close()
			input.value = "ping"

			c.Send(ctx)

			Expect(c.Transcript()[1].Text).To(HavePrefix("Network error: "))
			Expect(send.enabled).To(BeTrue())
		})
	})
})
