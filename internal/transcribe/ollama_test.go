package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

var _ = Describe("Ollama", func() {
	var (
		server    *ghttp.Server
		ollama    *Ollama
		imageData []byte
		text      string
		err       error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		ollama = NewOllama(server.URL()+"/", "llava:1.6")

		var buf bytes.Buffer
		Expect(png.Encode(&buf, sampleImage())).To(Succeed())
		imageData = buf.Bytes()
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		text, err = ollama.Transcribe(context.Background(), imageData, "image/png")
	})

	When("the model answers", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
				ghttp.VerifyContentType("application/json"),
				func(w http.ResponseWriter, r *http.Request) {
					var req ollamaChatRequest
					Expect(decodeJSON(r, &req)).To(Succeed())
					Expect(req.Model).To(Equal("llava:1.6"))
					Expect(req.Stream).To(BeFalse())
					Expect(req.Messages).To(HaveLen(2))
					Expect(req.Messages[1].Images).To(HaveLen(1))
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
					Message: ollamaMessage{Role: "assistant", Content: "```\nJoe's Diner\nTotal $11.88\n```"},
					Done:    true,
				}),
			))
		})

		It("should return the cleaned transcript", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Joe's Diner\nTotal $11.88"))
		})
	})

	When("the model returns nothing", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{Done: true}))
		})

		It("should report an empty transcript", func() {
			Expect(err).To(MatchError(ErrEmptyTranscript))
		})
	})

	When("the API fails", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "model not loaded"))
		})

		It("should return the status and body", func() {
			Expect(err).To(MatchError(ContainSubstring("status 500")))
			Expect(err).To(MatchError(ContainSubstring("model not loaded")))
		})
	})
})
