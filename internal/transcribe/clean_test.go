package transcribe

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("cleanTranscript", func() {
	DescribeTable("model output",
		func(input, expected string) {
			text, err := cleanTranscript(input)
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal(expected))
		},
		Entry("plain text", "Joe's Diner\nTotal 11.88", "Joe's Diner\nTotal 11.88"),
		Entry("surrounding whitespace", "\n  Joe's Diner\nTotal 11.88  \n", "Joe's Diner\nTotal 11.88"),
		Entry("fenced", "```\nJoe's Diner\nTotal 11.88\n```", "Joe's Diner\nTotal 11.88"),
		Entry("fenced with a language tag", "```text\nJoe's Diner\n```", "Joe's Diner"),
		Entry("windows line endings", "Joe's Diner\r\nTotal 11.88", "Joe's Diner\nTotal 11.88"),
	)

	It("should fail when nothing is left", func() {
		_, err := cleanTranscript("```\n```")
		Expect(err).To(MatchError(ErrEmptyTranscript))
	})
})
