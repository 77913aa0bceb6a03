package extraction

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Fallback helpers", func() {
	DescribeTable("isLikelyProductDescription",
		func(line string, expected bool) {
			Expect(isLikelyProductDescription(line)).To(Equal(expected))
		},
		Entry("product sharing a prefix with an address word", "Drill bits", true),
		Entry("dry cleaning", "Dry cleaning suit", true),
		Entry("product starting with ave", "Avocado", true),
		Entry("product starting with store", "Storage bin", true),
		Entry("product starting with tel", "Television stand", true),
		Entry("product starting with open", "Opener", true),
		Entry("street abbreviation", "Dr. Martin Luther King", false),
		Entry("store header", "Store #42", false),
		Entry("opening hours", "Open 9-5", false),
		Entry("thanks", "Thanks for shopping", false),
		Entry("payment line", "Paid by credit", false),
		Entry("no letters", "12345", false),
	)

	DescribeTable("stripPrices",
		func(line, expected string) {
			Expect(strings.TrimSpace(stripPrices(line))).To(Equal(expected))
		},
		Entry("dollar", "Widget $ 4.50", "Widget"),
		Entry("pound", "£ 18.50", ""),
		Entry("euro", "Croissant €2.40", "Croissant"),
		Entry("bare", "Soap 3.49", "Soap"),
	)
})
