package transcribe

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeTranscriber struct {
	text        string
	err         error
	calls       int
	contentType string
	closed      bool
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte, contentType string) (string, error) {
	f.calls++
	f.contentType = contentType
	return f.text, f.err
}

func (f *fakeTranscriber) Close() error {
	f.closed = true
	return nil
}

var _ = Describe("PDFText", func() {
	var (
		next        *fakeTranscriber
		transcriber *PDFText
	)

	BeforeEach(func() {
		next = &fakeTranscriber{text: "from OCR"}
		transcriber = NewPDFText(next)
	})

	It("should pass images straight through", func() {
		text, err := transcriber.Transcribe(context.Background(), []byte{0xff, 0xd8}, "image/jpeg")
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("from OCR"))
		Expect(next.contentType).To(Equal("image/jpeg"))
	})

	It("should fall back to OCR when the PDF cannot be read", func() {
		text, err := transcriber.Transcribe(context.Background(), []byte("%PDF-1.4 truncated"), "application/pdf")
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("from OCR"))
		Expect(next.calls).To(Equal(1))
	})

	It("should close the wrapped transcriber", func() {
		Expect(transcriber.Close()).To(Succeed())
		Expect(next.closed).To(BeTrue())
	})
})
